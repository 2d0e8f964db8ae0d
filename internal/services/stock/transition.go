package stock

import (
	"context"
	"fmt"
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"gorm.io/gorm"
)

// transitions lists every permitted status change.
var transitions = map[models.AllocationStatus]map[models.AllocationStatus]bool{
	models.StatusAvailable: {models.StatusAllocated: true},
	models.StatusAllocated: {models.StatusPicked: true, models.StatusAvailable: true},
	models.StatusPicked:    {models.StatusAvailable: true, models.StatusAllocated: true},
}

// CanTransition reports whether from -> to is in the transition table.
// Staying in the same status is always allowed.
func CanTransition(from, to models.AllocationStatus) bool {
	if from == to {
		return from.Valid()
	}
	return transitions[from][to]
}

// UpdateRecordRequest edits a unit load and optionally moves its status.
type UpdateRecordRequest struct {
	Location              *string                 `json:"location"`
	HUQty                 *int                    `json:"huQty" validate:"omitempty,gt=0"`
	AllocationStatus      models.AllocationStatus `json:"allocationStatus" validate:"omitempty,oneof=available allocated picked"`
	OutboundProductLineID string                  `json:"outboundProductLineId"`
	OutboundInventoryID   string                  `json:"outboundInventoryId"`
}

// Transition applies the edits in req to a unit load and runs the side
// effects of its status change inside one transaction.
func (s *Service) Transition(ctx context.Context, recordID string, req UpdateRecordRequest) (*models.UnitLoadRecord, error) {
	if _, err := tenantFrom(ctx); err != nil {
		return nil, err
	}

	// the pool scope is resolved outside the transaction, the party resolver
	// reads through its own handle
	var (
		scope    poolScope
		scopeErr error
	)
	if req.AllocationStatus == models.StatusAllocated && req.OutboundInventoryID != "" {
		scope, scopeErr = s.scopeForAllocation(ctx, req.OutboundInventoryID)
	}

	var (
		out     models.UnitLoadRecord
		from    models.AllocationStatus
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.UnitLoadRecord
		if err := models.ActiveOnly(tx.WithContext(ctx)).Where("id = ?", recordID).First(&rec).Error; err != nil {
			return notFound(err, "unit load "+recordID)
		}
		from = rec.AllocationStatus
		to := req.AllocationStatus
		if to == "" {
			to = from
		}
		if !to.Valid() {
			return newError(ErrCodeValidation, "unknown allocation status %q", to)
		}
		if !CanTransition(from, to) {
			return newError(ErrCodeInvalidTransition, "transition %s -> %s is not allowed", from, to).
				with("from", string(from)).with("to", string(to))
		}
		changed = from != to

		updates := map[string]any{}
		if req.Location != nil {
			loc := strings.TrimSpace(*req.Location)
			if loc == "" {
				return newError(ErrCodeValidation, "location cannot be blank")
			}
			updates["location"] = loc
			rec.Location = loc
		}
		if req.HUQty != nil && *req.HUQty != rec.HUQty {
			if *req.HUQty <= 0 {
				return newError(ErrCodeValidation, "huQty must be positive")
			}
			if from != models.StatusAvailable || changed {
				return newError(ErrCodeValidation, "huQty can only change while the unit load is available")
			}
			updates["hu_qty"] = *req.HUQty
		}

		var (
			link    *allocationLine
			release bool
		)
		switch {
		case from == models.StatusAvailable && to == models.StatusAllocated:
			if scopeErr != nil {
				return scopeErr
			}
			l, err := s.linkTarget(ctx, tx, req, scope, rec)
			if err != nil {
				return err
			}
			link = l
			now := s.now()
			updates["outbound_allocation_id"] = l.alloc.ID
			updates["outbound_product_line_id"] = l.alloc.ProductLines[l.idx].ID
			updates["outbound_container_id"] = l.alloc.ContainerDetailID
			updates["allocated_at"] = now
			updates["allocated_by"] = optionalString(appctx.UserID(ctx))

		case from == models.StatusAllocated && to == models.StatusPicked:
			if !rec.HasLinkage() {
				return newError(ErrCodeValidation, "unit load %s is not linked to an outbound line", rec.LPNNumber)
			}

		case to == models.StatusAvailable && changed:
			updates["outbound_allocation_id"] = nil
			updates["outbound_product_line_id"] = nil
			updates["outbound_container_id"] = nil
			updates["allocated_at"] = nil
			updates["allocated_by"] = nil
			release = true
		}
		if changed {
			updates["allocation_status"] = to
		}

		if len(updates) > 0 {
			res := tx.WithContext(ctx).Model(&models.UnitLoadRecord{}).
				Where("id = ? AND allocation_status = ?", rec.ID, from).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to update unit load %s: %w", rec.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return newError(ErrCodeConflict, "unit load %s changed status concurrently, retry", rec.LPNNumber).
					with("lpnNumber", rec.LPNNumber)
			}
		}

		// side effects on the pickup ledger and the outbound product line
		switch {
		case link != nil:
			if err := s.bookUnits(ctx, tx, link, []models.UnitLoadRecord{rec}); err != nil {
				return err
			}
		case from == models.StatusAllocated && to == models.StatusPicked:
			if err := recordPick(ctx, tx, rec); err != nil {
				return err
			}
		case from == models.StatusPicked && changed:
			if err := releasePick(ctx, tx, rec); err != nil {
				return err
			}
		case from == models.StatusPicked && req.Location != nil:
			if err := refreshPick(ctx, tx, rec); err != nil {
				return err
			}
		}
		if release {
			if err := s.unbookUnit(ctx, tx, rec); err != nil {
				return err
			}
		}

		return tx.WithContext(ctx).Where("id = ?", rec.ID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, EventStatusChanged, map[string]any{
			"id":        out.ID,
			"lpnNumber": out.LPNNumber,
			"from":      from,
			"to":        out.AllocationStatus,
		})
	}
	return &out, nil
}

// allocationLine is a product line inside a loaded allocation document.
type allocationLine struct {
	alloc *models.ContainerStockAllocation
	idx   int
}

func (l *allocationLine) line() *models.ProductLine {
	return &l.alloc.ProductLines[l.idx]
}

// scopeForAllocation resolves the pool an allocation may draw unit loads from.
func (s *Service) scopeForAllocation(ctx context.Context, allocationID string) (poolScope, error) {
	alloc, err := s.GetAllocation(ctx, allocationID)
	if err != nil {
		return poolScope{}, err
	}
	return s.resolvePoolScope(ctx, alloc)
}

// linkTarget loads the outbound line a unit is manually allocated to and
// checks the unit could have been chosen for it by Allocate.
func (s *Service) linkTarget(ctx context.Context, tx *gorm.DB, req UpdateRecordRequest, scope poolScope, rec models.UnitLoadRecord) (*allocationLine, error) {
	if req.OutboundInventoryID == "" || req.OutboundProductLineID == "" {
		return nil, newError(ErrCodeValidation, "outboundInventoryId and outboundProductLineId are required to allocate")
	}
	alloc, err := loadAllocation(ctx, tx, req.OutboundInventoryID)
	if err != nil {
		return nil, err
	}
	idx := models.FindLine(alloc.ProductLines, req.OutboundProductLineID)
	if idx < 0 {
		return nil, newError(ErrCodeNotFound, "product line %s not found on allocation %s", req.OutboundProductLineID, alloc.ID)
	}
	line := alloc.ProductLines[idx]
	if rec.SKUID != line.SKUID || rec.BatchNumber != line.BatchNumber || !scope.contains(rec) {
		return nil, newError(ErrCodeValidation, "unit load %s does not match sku %s batch %q in scope", rec.LPNNumber, line.SKUID, line.BatchNumber).
			with("lpnNumber", rec.LPNNumber).
			with("productLineId", line.ID)
	}
	return &allocationLine{alloc: alloc, idx: idx}, nil
}

// bookUnits merges units into an allocation line and saves the allocation.
func (s *Service) bookUnits(ctx context.Context, tx *gorm.DB, target *allocationLine, units []models.UnitLoadRecord) error {
	line := target.line()
	qty := 0
	for _, u := range units {
		qty += u.HUQty
	}
	if line.ExpectedQty > 0 && line.AllocatedQty+qty > line.ExpectedQty {
		return newError(ErrCodeCapacityExceeded, "allocating %d would exceed expected %d (allocated %d)", qty, line.ExpectedQty, line.AllocatedQty).
			with("allocatedQty", fmt.Sprint(line.AllocatedQty)).
			with("expectedQty", fmt.Sprint(line.ExpectedQty))
	}
	sku, err := s.loadSKU(ctx, tx, line.SKUID)
	if err != nil {
		return err
	}
	mergeIntoLine(line, units, metricsFor(sku, qty, line.LPNQty))
	if err := saveVersioned(ctx, tx, &models.ContainerStockAllocation{}, target.alloc.ID, target.alloc.Version, target.alloc.ProductLines); err != nil {
		return err
	}
	target.alloc.Version++
	return nil
}

// unbookUnit takes a released unit back out of the line it was allocated to.
func (s *Service) unbookUnit(ctx context.Context, tx *gorm.DB, rec models.UnitLoadRecord) error {
	if rec.OutboundAllocationID == nil || rec.OutboundProductLineID == nil {
		return nil
	}
	alloc, err := loadAllocation(ctx, tx, *rec.OutboundAllocationID)
	if HasCode(err, ErrCodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	idx := models.FindLine(alloc.ProductLines, *rec.OutboundProductLineID)
	if idx < 0 {
		return nil
	}
	line := &alloc.ProductLines[idx]
	sku, err := s.loadSKU(ctx, tx, line.SKUID)
	if err != nil {
		return err
	}
	releaseFromLine(line, rec, metricsFor(sku, rec.HUQty, line.LPNQty))
	return saveVersioned(ctx, tx, &models.ContainerStockAllocation{}, alloc.ID, alloc.Version, alloc.ProductLines)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
