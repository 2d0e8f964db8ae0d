package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/party"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AllocationItem requests stock for one product line of an allocation, either
// as explicit unit loads (LPNIDs) or as a quantity drawn oldest first.
type AllocationItem struct {
	ProductLineIndex *int     `json:"productLineIndex" validate:"required,gte=0"`
	BatchNumber      string   `json:"batchNumber"`
	LPNIDs           []string `json:"lpnIds"`
	Quantity         *int     `json:"quantity" validate:"omitempty,gt=0"`
}

// AllocatedLine reports the outcome of one successful item.
type AllocatedLine struct {
	ProductLineIndex int      `json:"productLineIndex"`
	ProductLineID    string   `json:"productLineId"`
	AllocatedNow     int      `json:"allocatedNow"`
	AllocatedQty     int      `json:"allocatedQty"`
	ExpectedQty      int      `json:"expectedQty"`
	UnitLoadIDs      []string `json:"unitLoadIds"`
	LPNNumbers       []string `json:"lpnNumbers"`
	AlreadyLinked    []string `json:"alreadyLinked,omitempty"`
}

// ItemError is a failed item. Other items of the same call are unaffected.
type ItemError struct {
	ProductLineIndex int `json:"productLineIndex"`
	*Error
}

// AllocateResult carries the successful and the failed items of one call.
type AllocateResult struct {
	Success     bool            `json:"success"`
	Allocations []AllocatedLine `json:"allocations"`
	Errors      []ItemError     `json:"errors,omitempty"`
}

// poolScope restricts candidate unit loads to a warehouse, or to the
// allocation's own container when no warehouse can be resolved.
type poolScope struct {
	warehouseID string
	containerID string
}

func (p poolScope) apply(db *gorm.DB) *gorm.DB {
	if p.warehouseID != "" {
		return db.Where("warehouse_id = ?", p.warehouseID)
	}
	return db.Where("source_container_id = ?", p.containerID)
}

func (p poolScope) contains(rec models.UnitLoadRecord) bool {
	if p.warehouseID != "" {
		return rec.WarehouseID == p.warehouseID
	}
	return rec.SourceContainerID != nil && *rec.SourceContainerID == p.containerID
}

// Allocate processes every item independently. Item level validation and
// stock errors are collected in the result; persistence failures abort.
func (s *Service) Allocate(ctx context.Context, allocationID string, items []AllocationItem) (*AllocateResult, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newError(ErrCodeValidation, "at least one allocation item is required")
	}

	alloc, err := s.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	scope, err := s.resolvePoolScope(ctx, alloc)
	if err != nil {
		return nil, err
	}

	result := &AllocateResult{Allocations: []AllocatedLine{}}
	for _, item := range items {
		index := -1
		if item.ProductLineIndex != nil {
			index = *item.ProductLineIndex
		}
		line, err := s.allocateItem(ctx, alloc.ID, scope, index, item)
		if err != nil {
			se, ok := AsError(err)
			if !ok {
				return nil, err
			}
			result.Errors = append(result.Errors, ItemError{ProductLineIndex: index, Error: se})
			continue
		}
		result.Allocations = append(result.Allocations, *line)
	}
	result.Success = len(result.Errors) == 0

	s.log.WithFields(logrus.Fields{
		"tenant_id":     appctx.TenantID(ctx),
		"allocation_id": alloc.ID,
		"items":         len(items),
		"failed":        len(result.Errors),
	}).Info("allocation processed")
	if len(result.Allocations) > 0 {
		s.publish(ctx, EventAllocated, map[string]any{
			"allocationId": alloc.ID,
			"allocations":  result.Allocations,
		})
	}
	return result, nil
}

func (s *Service) resolvePoolScope(ctx context.Context, alloc *models.ContainerStockAllocation) (poolScope, error) {
	scope := poolScope{containerID: alloc.ContainerDetailID}

	var container models.ContainerDetail
	err := s.db.WithContext(ctx).Where("id = ?", alloc.ContainerDetailID).First(&container).Error
	switch {
	case err == nil && container.WarehouseID != nil && *container.WarehouseID != "":
		scope.warehouseID = *container.WarehouseID
		return scope, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return scope, fmt.Errorf("failed to load container %s: %w", alloc.ContainerDetailID, err)
	}

	if alloc.Booking.BookingID == "" {
		return scope, nil
	}
	var booking models.ContainerBooking
	err = s.db.WithContext(ctx).Where("id = ?", alloc.Booking.BookingID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return scope, nil
	}
	if err != nil {
		return scope, fmt.Errorf("failed to load booking %s: %w", alloc.Booking.BookingID, err)
	}

	from, err := s.parties.Resolve(ctx, booking.From, party.Hints{Address: booking.FromAddress}, party.ModeAddress)
	if err != nil {
		config.LogError(s.log, "stock", "Allocate", "could not resolve booking origin", map[string]string{"bookingId": booking.ID}, err)
		return scope, nil
	}
	if from != nil && from.Collection == models.CollectionWarehouses && from.ID != "" {
		scope.warehouseID = from.ID
	}
	return scope, nil
}

func (s *Service) allocateItem(ctx context.Context, allocationID string, scope poolScope, index int, item AllocationItem) (*AllocatedLine, error) {
	if index < 0 {
		return nil, newError(ErrCodeValidation, "productLineIndex is required")
	}
	explicit := len(item.LPNIDs) > 0
	if !explicit && (item.Quantity == nil || *item.Quantity <= 0) {
		return nil, newError(ErrCodeValidation, "either lpnIds or a positive quantity is required")
	}

	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("allocation:%s:%d", allocationID, index))
	if err != nil {
		return nil, newError(ErrCodeConflict, "product line %d is being allocated by another request, retry", index)
	}
	defer unlock()

	var out *AllocatedLine
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := loadAllocation(ctx, tx, allocationID)
		if err != nil {
			return err
		}
		if index >= len(alloc.ProductLines) {
			return newError(ErrCodeValidation, "productLineIndex %d out of range, allocation has %d line(s)", index, len(alloc.ProductLines))
		}
		target := &allocationLine{alloc: alloc, idx: index}
		line := target.line()
		if line.FullyAllocated() {
			return newError(ErrCodeConflict, "product line %d is already fully allocated (%d of %d)", index, line.AllocatedQty, line.ExpectedQty).
				with("allocatedQty", fmt.Sprint(line.AllocatedQty)).
				with("expectedQty", fmt.Sprint(line.ExpectedQty))
		}

		batch := strings.TrimSpace(item.BatchNumber)
		if batch == "" {
			batch = line.BatchNumber
		}

		var chosen, linked []models.UnitLoadRecord
		if explicit {
			chosen, linked, err = s.selectExplicit(ctx, tx, scope, alloc.ID, line, batch, item.LPNIDs)
		} else {
			chosen, err = s.selectFIFO(ctx, tx, scope, line, batch, *item.Quantity)
		}
		if err != nil {
			return err
		}

		out = &AllocatedLine{
			ProductLineIndex: index,
			ProductLineID:    line.ID,
			UnitLoadIDs:      []string{},
			LPNNumbers:       []string{},
		}
		for _, u := range linked {
			out.AlreadyLinked = append(out.AlreadyLinked, u.LPNNumber)
		}

		if len(chosen) > 0 {
			if err := s.linkUnits(ctx, tx, alloc, line.ID, chosen); err != nil {
				return err
			}
			if err := s.bookUnits(ctx, tx, target, chosen); err != nil {
				return err
			}
		}
		for _, u := range chosen {
			out.AllocatedNow += u.HUQty
			out.UnitLoadIDs = append(out.UnitLoadIDs, u.ID)
			out.LPNNumbers = append(out.LPNNumbers, u.LPNNumber)
		}
		out.AllocatedQty = target.line().AllocatedQty
		out.ExpectedQty = target.line().ExpectedQty
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// selectExplicit validates caller chosen unit loads. Units already linked to
// this line are returned separately and left untouched.
func (s *Service) selectExplicit(ctx context.Context, tx *gorm.DB, scope poolScope, allocationID string, line *models.ProductLine, batch string, ids []string) (chosen, linked []models.UnitLoadRecord, err error) {
	ids = uniqueStrings(ids)

	var records []models.UnitLoadRecord
	if err := models.ActiveOnly(tx.WithContext(ctx)).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load unit loads: %w", err)
	}
	byID := make(map[string]models.UnitLoadRecord, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	var missing, ineligible, conflicts []string
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		if rec.SKUID != line.SKUID || rec.BatchNumber != batch || !scope.contains(rec) {
			ineligible = append(ineligible, rec.LPNNumber)
			continue
		}
		switch {
		case rec.LinkedTo(allocationID, line.ID):
			linked = append(linked, rec)
		case rec.AllocationStatus == models.StatusAvailable:
			chosen = append(chosen, rec)
		default:
			conflicts = append(conflicts, rec.LPNNumber)
		}
	}

	if len(missing) > 0 {
		return nil, nil, newError(ErrCodeNotFound, "unit loads not found: %s", strings.Join(missing, ", ")).
			with("lpnIds", strings.Join(missing, ","))
	}
	if len(ineligible) > 0 {
		return nil, nil, newError(ErrCodeValidation, "unit loads do not match sku %s batch %q in scope: %s", line.SKUID, batch, strings.Join(ineligible, ", ")).
			with("lpnNumbers", strings.Join(ineligible, ","))
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		return nil, nil, newError(ErrCodeConflict, "unit loads already allocated elsewhere: %s", strings.Join(conflicts, ", ")).
			with("lpnNumbers", strings.Join(conflicts, ","))
	}
	return chosen, linked, nil
}

// selectFIFO walks the available pool oldest first and picks whole units until
// the target is covered. Units that would push the line above its expected
// quantity are skipped.
func (s *Service) selectFIFO(ctx context.Context, tx *gorm.DB, scope poolScope, line *models.ProductLine, batch string, quantity int) ([]models.UnitLoadRecord, error) {
	target := quantity
	limit := -1
	if line.ExpectedQty > 0 {
		limit = line.RemainingQty()
		if limit < target {
			target = limit
		}
	}
	if target <= 0 {
		return nil, newError(ErrCodeConflict, "nothing left to allocate (%d of %d)", line.AllocatedQty, line.ExpectedQty)
	}

	var (
		chosen    []models.UnitLoadRecord
		total     int
		available int
	)
	for page := 0; ; page++ {
		var batchRecs []models.UnitLoadRecord
		err := scope.apply(models.ActiveOnly(tx.WithContext(ctx))).
			Where("allocation_status = ? AND sku_id = ? AND batch_number = ?", models.StatusAvailable, line.SKUID, batch).
			Order("created_at ASC, lpn_number ASC, id ASC").
			Limit(s.pageSize).Offset(page * s.pageSize).
			Find(&batchRecs).Error
		if err != nil {
			return nil, fmt.Errorf("failed to page candidate unit loads: %w", err)
		}
		for _, u := range batchRecs {
			available += u.HUQty
			if limit >= 0 && total+u.HUQty > limit {
				continue
			}
			chosen = append(chosen, u)
			total += u.HUQty
			if total >= target {
				return chosen, nil
			}
		}
		if len(batchRecs) < s.pageSize {
			break
		}
	}

	if available < target {
		return nil, newError(ErrCodeInsufficientStock, "insufficient stock: available %d, needed %d", available, target).
			with("available", fmt.Sprint(available)).
			with("needed", fmt.Sprint(target))
	}
	return nil, newError(ErrCodeCapacityExceeded, "no combination of whole unit loads covers %d without exceeding expected %d", target, line.ExpectedQty).
		with("needed", fmt.Sprint(target)).
		with("expectedQty", fmt.Sprint(line.ExpectedQty))
}

// linkUnits moves chosen units from available to allocated. A unit taken by
// another request in the meantime fails the whole item.
func (s *Service) linkUnits(ctx context.Context, tx *gorm.DB, alloc *models.ContainerStockAllocation, lineID string, units []models.UnitLoadRecord) error {
	now := s.now()
	by := optionalString(appctx.UserID(ctx))
	for i := range units {
		res := tx.WithContext(ctx).Model(&models.UnitLoadRecord{}).
			Where("id = ? AND allocation_status = ?", units[i].ID, models.StatusAvailable).
			Updates(map[string]any{
				"allocation_status":        models.StatusAllocated,
				"outbound_allocation_id":   alloc.ID,
				"outbound_product_line_id": lineID,
				"outbound_container_id":    alloc.ContainerDetailID,
				"allocated_at":             now,
				"allocated_by":             by,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to allocate unit load %s: %w", units[i].ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(ErrCodeConflict, "unit load %s was allocated concurrently, retry", units[i].LPNNumber).
				with("lpnNumber", units[i].LPNNumber)
		}
		units[i].AllocationStatus = models.StatusAllocated
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
