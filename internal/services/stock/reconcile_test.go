package stock

import (
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCleanAllocation(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})
	_, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
	require.NoError(t, err)

	res, err := f.svc.Reconcile(f.ctx, alloc.ID, true)
	require.NoError(t, err)
	assert.False(t, res.Drifted())
	assert.False(t, res.Applied)
	require.Len(t, res.Lines, 1)
	assert.Equal(t, 40, res.Lines[0].LinkedQty)
	assert.Equal(t, 1, res.Lines[0].LinkedUnits)
}

func TestReconcileRepairsDrift(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	a := f.unit(wh.ID, sku.ID, "B1", 40, 1)
	b := f.unit(wh.ID, sku.ID, "B1", 20, 2)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 60, LPNQty: 40})
	_, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 60)})
	require.NoError(t, err)

	// unit b vanishes behind the engine's back
	require.NoError(t, f.db.WithContext(f.ctx).Model(&models.UnitLoadRecord{}).
		Where("id = ?", b.ID).Update("lifecycle", models.RecordStateDeleted).Error)
	before := f.allocation(alloc.ID)

	res, err := f.svc.Reconcile(f.ctx, alloc.ID, false)
	require.NoError(t, err)
	require.True(t, res.Drifted())
	assert.False(t, res.Applied)
	assert.Equal(t, 60, res.Lines[0].StoredQty)
	assert.Equal(t, 40, res.Lines[0].LinkedQty)
	assert.Equal(t, before.Version, f.allocation(alloc.ID).Version, "dry run must not write")
	assert.Empty(t, f.events.types()[1:])

	res, err = f.svc.Reconcile(f.ctx, alloc.ID, true)
	require.NoError(t, err)
	assert.True(t, res.Applied)

	after := f.allocation(alloc.ID)
	line := after.ProductLines[0]
	assert.Equal(t, before.Version+1, after.Version)
	assert.Equal(t, 40, line.AllocatedQty)
	assert.Equal(t, []string{a.ID}, line.UnitLoadIDs)
	assert.Equal(t, []string{a.LPNNumber}, line.LPNNumbers)
	assert.True(t, decimal.NewFromInt(100).Equal(line.AllocatedWeight), line.AllocatedWeight.String())
	assert.True(t, decimal.NewFromInt(1).Equal(line.AllocatedPLT), line.AllocatedPLT.String())
	assert.Equal(t, []EventType{EventAllocated, EventReconciled}, f.events.types())
}

func TestReconcileUnknownAllocation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(f.ctx, "missing", true)
	requireCode(t, err, ErrCodeNotFound)
}
