package stock

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database/dbtest"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/locking"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testTenant = "tenant-1"

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	t      *testing.T
	db     *gorm.DB
	svc    *Service
	ctx    context.Context
	events *recordingPublisher
	seq    int
	base   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	events := &recordingPublisher{}
	svc := NewService(db.DB, Options{
		LPNPrefix: "LPN",
		PageSize:  2,
		Locker:    locking.NewLocalLocker(),
		Publisher: events,
		Logger:    log,
	})
	ctx := appctx.WithUser(appctx.WithTenant(context.Background(), testTenant), "user-1")
	return &fixture{
		t:      t,
		db:     db.DB,
		svc:    svc,
		ctx:    ctx,
		events: events,
		base:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.db.WithContext(f.ctx).Create(v).Error)
}

func (f *fixture) warehouse(name string) models.Warehouse {
	w := models.Warehouse{TenantID: testTenant, Name: name}
	f.create(&w)
	return w
}

func (f *fixture) sku(code string) models.SKU {
	s := models.SKU{
		TenantID:       testTenant,
		Code:           code,
		LengthMM:       decimal.NewFromInt(1000),
		WidthMM:        decimal.NewFromInt(1000),
		HeightMM:       decimal.NewFromInt(1000),
		HUWeight:       decimal.RequireFromString("2.5"),
		UnitsPerPallet: 40,
	}
	f.create(&s)
	return s
}

func (f *fixture) inboundJob(warehouseID string, lines ...models.ProductLine) models.InboundJob {
	j := models.InboundJob{TenantID: testTenant, WarehouseID: warehouseID, JobCode: "IN-1", ProductLines: lines}
	f.create(&j)
	return j
}

// exportAllocation creates a booking, a container and an allocation on it.
func (f *fixture) exportAllocation(warehouseID *string, lines ...models.ProductLine) models.ContainerStockAllocation {
	booking := models.ContainerBooking{TenantID: testTenant, BookingCode: "EXP-1", Direction: models.DirectionExport}
	f.create(&booking)
	container := models.ContainerDetail{TenantID: testTenant, BookingID: booking.ID, ContainerNumber: "MSCU1234567", WarehouseID: warehouseID}
	f.create(&container)
	alloc := models.ContainerStockAllocation{
		TenantID:          testTenant,
		ContainerDetailID: container.ID,
		Booking:           models.BookingRef{BookingID: booking.ID, Collection: booking.Collection()},
		Direction:         models.DirectionExport,
		ProductLines:      lines,
	}
	f.create(&alloc)
	return alloc
}

// unit creates an available unit load whose age is controlled by minute.
func (f *fixture) unit(warehouseID, skuID, batch string, qty, minute int) models.UnitLoadRecord {
	f.seq++
	r := models.UnitLoadRecord{
		TenantID:      testTenant,
		WarehouseID:   warehouseID,
		LPNNumber:     fmt.Sprintf("TST%05d", f.seq),
		SourceKind:    models.SourceInbound,
		SourceID:      "seed-job",
		ProductLineID: "seed-line",
		SKUID:         skuID,
		BatchNumber:   batch,
		Location:      fmt.Sprintf("A-%02d", f.seq),
		HUQty:         qty,
		CreatedAt:     f.base.Add(time.Duration(minute) * time.Minute),
	}
	f.create(&r)
	return r
}

func (f *fixture) reload(id string) models.UnitLoadRecord {
	f.t.Helper()
	var r models.UnitLoadRecord
	require.NoError(f.t, f.db.WithContext(f.ctx).Where("id = ?", id).First(&r).Error)
	return r
}

func (f *fixture) allocation(id string) models.ContainerStockAllocation {
	f.t.Helper()
	var a models.ContainerStockAllocation
	require.NoError(f.t, f.db.WithContext(f.ctx).Where("id = ?", id).First(&a).Error)
	return a
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func requireCode(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	require.Error(t, err)
	se, ok := AsError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, code, se.Code, se.Message)
	return se
}
