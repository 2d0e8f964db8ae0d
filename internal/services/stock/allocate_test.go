package stock

import (
	"sync"
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qtyItem(index, qty int) AllocationItem {
	return AllocationItem{ProductLineIndex: intPtr(index), Quantity: intPtr(qty)}
}

func TestAllocateFIFOIsAdditive(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	// created out of order to prove ordering comes from age
	u3 := f.unit(wh.ID, sku.ID, "B1", 20, 30)
	u1 := f.unit(wh.ID, sku.ID, "B1", 40, 10)
	u2 := f.unit(wh.ID, sku.ID, "B1", 40, 20)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 100, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 50)})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, 80, res.Allocations[0].AllocatedNow)
	assert.Equal(t, []string{u1.ID, u2.ID}, res.Allocations[0].UnitLoadIDs)

	line := f.allocation(alloc.ID).ProductLines[0]
	assert.Equal(t, 80, line.AllocatedQty)
	assert.Equal(t, u1.Location, line.Location)

	res, err = f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 50)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 20, res.Allocations[0].AllocatedNow)
	assert.Equal(t, []string{u3.ID}, res.Allocations[0].UnitLoadIDs)

	line = f.allocation(alloc.ID).ProductLines[0]
	assert.Equal(t, 100, line.AllocatedQty)
	assert.ElementsMatch(t, []string{u1.ID, u2.ID, u3.ID}, line.UnitLoadIDs)
	assert.ElementsMatch(t, []string{u1.LPNNumber, u2.LPNNumber, u3.LPNNumber}, line.LPNNumbers)

	for _, u := range []models.UnitLoadRecord{u1, u2, u3} {
		got := f.reload(u.ID)
		assert.Equal(t, models.StatusAllocated, got.AllocationStatus)
		assert.True(t, got.LinkedTo(alloc.ID, line.ID))
	}

	res, err = f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 1)})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrCodeConflict, res.Errors[0].Code)
	assert.Equal(t, "100", res.Errors[0].Details["allocatedQty"])
}

func TestAllocateMetricsAccumulate(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1") // 1 m3 per unit, 2.5 kg, 40 per pallet
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	f.unit(wh.ID, sku.ID, "B1", 40, 2)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 80, LPNQty: 40})

	for i := 0; i < 2; i++ {
		res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
		require.NoError(t, err)
		require.True(t, res.Success)
	}

	line := f.allocation(alloc.ID).ProductLines[0]
	assert.True(t, decimal.NewFromInt(200).Equal(line.AllocatedWeight), line.AllocatedWeight.String())
	assert.True(t, decimal.NewFromInt(80).Equal(line.AllocatedCubicM3), line.AllocatedCubicM3.String())
	assert.True(t, decimal.NewFromInt(2).Equal(line.AllocatedPLT), line.AllocatedPLT.String())
}

func TestAllocateInsufficientStockAllocatesNothing(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	a := f.unit(wh.ID, sku.ID, "B1", 40, 1)
	b := f.unit(wh.ID, sku.ID, "B1", 20, 2)
	f.unit(wh.ID, sku.ID, "OTHER", 40, 3)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 100, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 100)})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrCodeInsufficientStock, res.Errors[0].Code)
	assert.Equal(t, "60", res.Errors[0].Details["available"])
	assert.Equal(t, "100", res.Errors[0].Details["needed"])
	assert.Contains(t, res.Errors[0].Message, "available 60, needed 100")

	assert.Equal(t, models.StatusAvailable, f.reload(a.ID).AllocationStatus)
	assert.Equal(t, models.StatusAvailable, f.reload(b.ID).AllocationStatus)
	assert.Zero(t, f.allocation(alloc.ID).ProductLines[0].AllocatedQty)
}

func TestAllocateQuantityCappedByRemaining(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	small := f.unit(wh.ID, sku.ID, "B1", 10, 2)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 10, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 500)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []string{small.ID}, res.Allocations[0].UnitLoadIDs)
	assert.Equal(t, 10, res.Allocations[0].AllocatedQty)
}

func TestAllocateExplicitSelection(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	a := f.unit(wh.ID, sku.ID, "B1", 40, 1)
	b := f.unit(wh.ID, sku.ID, "B1", 40, 2)
	c := f.unit(wh.ID, sku.ID, "B1", 20, 3)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 100, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{{ProductLineIndex: intPtr(0), LPNIDs: []string{b.ID}}})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 40, res.Allocations[0].AllocatedNow)

	// re-selecting b is a no-op, only c is added
	res, err = f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{{ProductLineIndex: intPtr(0), LPNIDs: []string{b.ID, c.ID, c.ID}}})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 20, res.Allocations[0].AllocatedNow)
	assert.Equal(t, []string{b.LPNNumber}, res.Allocations[0].AlreadyLinked)
	assert.Equal(t, 60, res.Allocations[0].AllocatedQty)

	line := f.allocation(alloc.ID).ProductLines[0]
	assert.ElementsMatch(t, []string{b.ID, c.ID}, line.UnitLoadIDs)
	assert.Equal(t, models.StatusAvailable, f.reload(a.ID).AllocationStatus)
}

func TestAllocateExplicitConflicts(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	taken := f.unit(wh.ID, sku.ID, "B1", 40, 1)
	free := f.unit(wh.ID, sku.ID, "B1", 40, 2)
	wrongBatch := f.unit(wh.ID, sku.ID, "B2", 40, 3)
	line := models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 100, LPNQty: 40}
	first := f.exportAllocation(&wh.ID, line)
	second := f.exportAllocation(&wh.ID, line)

	res, err := f.svc.Allocate(f.ctx, first.ID, []AllocationItem{{ProductLineIndex: intPtr(0), LPNIDs: []string{taken.ID}}})
	require.NoError(t, err)
	require.True(t, res.Success)

	res, err = f.svc.Allocate(f.ctx, second.ID, []AllocationItem{
		{ProductLineIndex: intPtr(0), LPNIDs: []string{taken.ID, free.ID}},
		{ProductLineIndex: intPtr(0), LPNIDs: []string{wrongBatch.ID}},
		{ProductLineIndex: intPtr(0), LPNIDs: []string{"ghost"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, ErrCodeConflict, res.Errors[0].Code)
	assert.Equal(t, taken.LPNNumber, res.Errors[0].Details["lpnNumbers"])
	assert.Equal(t, ErrCodeValidation, res.Errors[1].Code)
	assert.Equal(t, ErrCodeNotFound, res.Errors[2].Code)

	// free was part of the failed item and stays available
	assert.Equal(t, models.StatusAvailable, f.reload(free.ID).AllocationStatus)
}

func TestAllocatePartialSuccess(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{
		qtyItem(0, 40),
		qtyItem(5, 10),
		{ProductLineIndex: intPtr(0)},
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, 40, res.Allocations[0].AllocatedQty)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 5, res.Errors[0].ProductLineIndex)
	assert.Equal(t, ErrCodeValidation, res.Errors[0].Code)
	assert.Equal(t, ErrCodeValidation, res.Errors[1].Code)
	assert.Equal(t, []EventType{EventAllocated}, f.events.types())
}

func TestAllocateUsesItemBatchOverLine(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	b2 := f.unit(wh.ID, sku.ID, "B2", 40, 2)
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{{ProductLineIndex: intPtr(0), BatchNumber: "B2", Quantity: intPtr(40)}})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []string{b2.ID}, res.Allocations[0].UnitLoadIDs)
}

func TestAllocateScopesToWarehouse(t *testing.T) {
	f := newFixture(t)
	dc1 := f.warehouse("DC1")
	dc2 := f.warehouse("DC2")
	sku := f.sku("SKU-1")
	f.unit(dc2.ID, sku.ID, "B1", 40, 1)
	mine := f.unit(dc1.ID, sku.ID, "B1", 40, 2)
	alloc := f.exportAllocation(&dc1.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []string{mine.ID}, res.Allocations[0].UnitLoadIDs)
}

func TestAllocateWarehouseFromBookingOrigin(t *testing.T) {
	f := newFixture(t)
	dc1 := f.warehouse("DC1")
	dc2 := f.warehouse("DC2")
	sku := f.sku("SKU-1")
	f.unit(dc1.ID, sku.ID, "B1", 40, 1)
	want := f.unit(dc2.ID, sku.ID, "B1", 40, 2)
	alloc := f.exportAllocation(nil, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})

	require.NoError(t, f.db.WithContext(f.ctx).Model(&models.ContainerBooking{}).
		Where("id = ?", alloc.Booking.BookingID).
		Updates(map[string]any{"from_party_id": dc2.ID, "from_collection": models.CollectionWarehouses}).Error)

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []string{want.ID}, res.Allocations[0].UnitLoadIDs)
}

func TestAllocateFallsBackToContainer(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	f.unit(wh.ID, sku.ID, "B1", 40, 1)
	alloc := f.exportAllocation(nil, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 40, LPNQty: 40})

	res, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, ErrCodeInsufficientStock, res.Errors[0].Code)

	inContainer := f.unit(wh.ID, sku.ID, "B1", 40, 2)
	require.NoError(t, f.db.WithContext(f.ctx).Model(&models.UnitLoadRecord{}).
		Where("id = ?", inContainer.ID).
		Update("source_container_id", alloc.ContainerDetailID).Error)

	res, err = f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, []string{inContainer.ID}, res.Allocations[0].UnitLoadIDs)
}

func TestAllocateUnknownAllocation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Allocate(f.ctx, "missing", []AllocationItem{qtyItem(0, 1)})
	requireCode(t, err, ErrCodeNotFound)
}

func TestAllocateConcurrentCallsNeverExceedExpected(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse("DC1")
	sku := f.sku("SKU-1")
	for i := 0; i < 8; i++ {
		f.unit(wh.ID, sku.ID, "B1", 20, i)
	}
	alloc := f.exportAllocation(&wh.ID, models.ProductLine{SKUID: sku.ID, BatchNumber: "B1", ExpectedQty: 100, LPNQty: 20})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Allocate(f.ctx, alloc.ID, []AllocationItem{qtyItem(0, 40)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	line := f.allocation(alloc.ID).ProductLines[0]
	assert.Equal(t, 100, line.AllocatedQty)
	assert.Len(t, line.UnitLoadIDs, 5)

	var linked int64
	require.NoError(t, f.db.WithContext(f.ctx).Model(&models.UnitLoadRecord{}).
		Where("allocation_status = ?", models.StatusAllocated).Count(&linked).Error)
	assert.Equal(t, int64(5), linked)
}
