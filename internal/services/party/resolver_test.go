package party

import (
	"context"
	"io"
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database/dbtest"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Resolver, *gorm.DB, context.Context) {
	t.Helper()
	db := dbtest.Open(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewResolver(db.DB, log), db.DB, appctx.WithTenant(context.Background(), "t1")
}

func strPtr(s string) *string { return &s }

func TestResolvePopulatedRefIsReturnedAsIs(t *testing.T) {
	r, _, ctx := setup(t)
	p, err := r.Resolve(ctx, models.PartyRef{PartyID: strPtr("x"), Collection: models.CollectionCustomers, Name: "Acme"}, Hints{}, ModeAddress)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Acme", p.Name)
	assert.Equal(t, "x", p.ID)
}

func TestResolveByIDRequiresCollection(t *testing.T) {
	r, _, ctx := setup(t)
	_, err := r.Resolve(ctx, models.PartyRef{PartyID: strPtr("abc")}, Hints{}, ModeAddress)
	assert.ErrorIs(t, err, ErrMissingCollection)

	_, err = r.Resolve(ctx, models.PartyRef{PartyID: strPtr("abc"), Collection: "trailers"}, Hints{}, ModeAddress)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestResolveByIDFetchesFromCollection(t *testing.T) {
	r, db, ctx := setup(t)
	wh := models.Warehouse{TenantID: "t1", Name: "North DC"}
	require.NoError(t, db.WithContext(ctx).Create(&wh).Error)

	p, err := r.Resolve(ctx, models.PartyRef{PartyID: &wh.ID, Collection: models.CollectionWarehouses}, Hints{}, ModeAddress)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "North DC", p.Name)
	assert.Equal(t, models.CollectionWarehouses, p.Collection)

	// same id looked up in the wrong collection is not found
	p, err = r.Resolve(ctx, models.PartyRef{PartyID: &wh.ID, Collection: models.CollectionCustomers}, Hints{}, ModeAddress)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveByIDIsTenantScoped(t *testing.T) {
	r, db, ctx := setup(t)
	other := models.Customer{TenantID: "t2", CustomerName: "Other Tenant Co"}
	require.NoError(t, db.WithContext(appctx.WithTenant(context.Background(), "t2")).Create(&other).Error)

	p, err := r.Resolve(ctx, models.PartyRef{PartyID: &other.ID, Collection: models.CollectionCustomers}, Hints{}, ModeAddress)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveByAddressHints(t *testing.T) {
	r, db, ctx := setup(t)
	require.NoError(t, db.WithContext(ctx).Create(&models.Customer{
		TenantID: "t1", CustomerName: "Harbour Foods",
		Address: models.Address{Street: "1 Quay St", City: "Port Town", Postcode: "4000"},
	}).Error)
	require.NoError(t, db.WithContext(ctx).Create(&models.Customer{
		TenantID: "t1", CustomerName: "Inland Goods",
		Address: models.Address{Street: "9 Ridge Rd", City: "Hill City", Postcode: "4100"},
	}).Error)

	p, err := r.Resolve(ctx, models.PartyRef{Collection: models.CollectionCustomers},
		Hints{Address: models.Address{Street: "1 quay st", Postcode: "4000"}}, ModeAddress)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Harbour Foods", p.Name)

	p, err = r.Resolve(ctx, models.PartyRef{Collection: models.CollectionCustomers},
		Hints{Address: models.Address{Street: "nowhere"}}, ModeAddress)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveChargeToMatchesContact(t *testing.T) {
	r, db, ctx := setup(t)
	require.NoError(t, db.WithContext(ctx).Create(&models.PayingCustomer{
		TenantID: "t1", CustomerName: "Billing Pty",
		Contact: models.Contact{ContactName: "Jo Smith", ContactPhone: "555-0101"},
	}).Error)

	hints := Hints{Contact: models.Contact{ContactPhone: "555-0101"}}
	p, err := r.Resolve(ctx, models.PartyRef{Collection: models.CollectionPayingCustomers}, hints, ModeChargeTo)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Billing Pty", p.Name)

	// contact fields are ignored outside charge-to mode
	p, err = r.Resolve(ctx, models.PartyRef{Collection: models.CollectionPayingCustomers}, hints, ModeAddress)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveWithoutIDOrHints(t *testing.T) {
	r, _, ctx := setup(t)
	p, err := r.Resolve(ctx, models.PartyRef{Collection: models.CollectionCustomers}, Hints{}, ModeAddress)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolveBookingLeavesFailuresEmpty(t *testing.T) {
	r, db, ctx := setup(t)
	wh := models.Warehouse{TenantID: "t1", Name: "South DC", Address: models.Address{Street: "2 Dock Rd"}}
	require.NoError(t, db.WithContext(ctx).Create(&wh).Error)

	booking := models.ContainerBooking{
		ID:          "b1",
		ChargeTo:    models.PartyRef{PartyID: strPtr("dangling")},
		From:        models.PartyRef{Collection: models.CollectionWarehouses},
		FromAddress: models.Address{Street: "2 Dock Rd"},
	}
	parties := r.ResolveBooking(ctx, booking)
	assert.Nil(t, parties.ChargeTo)
	require.NotNil(t, parties.From)
	assert.Equal(t, wh.ID, parties.From.ID)
	assert.Nil(t, parties.To)
}
