package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"gorm.io/gorm"
)

// LineDrift compares a line's stored totals with its linked unit loads.
type LineDrift struct {
	ProductLineIndex int    `json:"productLineIndex"`
	ProductLineID    string `json:"productLineId"`
	StoredQty        int    `json:"storedQty"`
	LinkedQty        int    `json:"linkedQty"`
	LinkedUnits      int    `json:"linkedUnits"`
	Drifted          bool   `json:"drifted"`
}

// ReconcileResult is the outcome of a reconciliation run.
type ReconcileResult struct {
	AllocationID string      `json:"allocationId"`
	Lines        []LineDrift `json:"lines"`
	Applied      bool        `json:"applied"`
}

// Drifted reports whether any line disagreed with its unit loads.
func (r ReconcileResult) Drifted() bool {
	for _, l := range r.Lines {
		if l.Drifted {
			return true
		}
	}
	return false
}

// Reconcile recomputes each line's allocated quantity, metrics and unit lists
// from the active unit loads linked to it. With apply false it only reports.
func (s *Service) Reconcile(ctx context.Context, allocationID string, apply bool) (*ReconcileResult, error) {
	var result *ReconcileResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		alloc, err := loadAllocation(ctx, tx, allocationID)
		if err != nil {
			return err
		}
		result = &ReconcileResult{AllocationID: alloc.ID}

		for i := range alloc.ProductLines {
			line := &alloc.ProductLines[i]
			var units []models.UnitLoadRecord
			err := models.ActiveOnly(tx.WithContext(ctx)).
				Where("outbound_allocation_id = ? AND outbound_product_line_id = ?", alloc.ID, line.ID).
				Order("created_at ASC, lpn_number ASC").
				Find(&units).Error
			if err != nil {
				return fmt.Errorf("failed to load unit loads of line %s: %w", line.ID, err)
			}

			qty := 0
			ids := make([]string, 0, len(units))
			lpns := make([]string, 0, len(units))
			for _, u := range units {
				qty += u.HUQty
				ids = append(ids, u.ID)
				lpns = append(lpns, u.LPNNumber)
			}
			d := LineDrift{
				ProductLineIndex: i,
				ProductLineID:    line.ID,
				StoredQty:        line.AllocatedQty,
				LinkedQty:        qty,
				LinkedUnits:      len(units),
				Drifted:          line.AllocatedQty != qty || !sameSet(line.UnitLoadIDs, ids),
			}
			result.Lines = append(result.Lines, d)
			if !d.Drifted {
				continue
			}

			sku, err := s.loadSKU(ctx, tx, line.SKUID)
			if err != nil {
				return err
			}
			m := metricsFor(sku, qty, line.LPNQty)
			line.AllocatedQty = qty
			line.AllocatedWeight = m.Weight
			line.AllocatedCubicM3 = m.CubicM3
			line.AllocatedPLT = m.PLT
			line.UnitLoadIDs = ids
			line.LPNNumbers = lpns
		}

		if !apply || !result.Drifted() {
			return nil
		}
		if err := saveVersioned(ctx, tx, &models.ContainerStockAllocation{}, alloc.ID, alloc.Version, alloc.ProductLines); err != nil {
			return err
		}
		result.Applied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Applied {
		s.log.WithField("allocation_id", allocationID).Warn("allocation totals reconciled from unit loads")
		s.publish(ctx, EventReconciled, result)
	}
	return result, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
