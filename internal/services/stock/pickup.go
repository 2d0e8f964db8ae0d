package stock

import (
	"context"
	"fmt"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"gorm.io/gorm"
)

// recordPick lists a picked unit on the pickup entry of its outbound line,
// creating the entry for the first unit picked against that line.
func recordPick(ctx context.Context, tx *gorm.DB, rec models.UnitLoadRecord) error {
	if rec.OutboundAllocationID == nil || rec.OutboundProductLineID == nil {
		return newError(ErrCodeValidation, "unit load %s is not linked to an outbound line", rec.LPNNumber)
	}
	picked := models.PickedLPN{LPNID: rec.ID, LPNNumber: rec.LPNNumber, HUQty: rec.HUQty, Location: rec.Location}

	entries, err := activeEntries(ctx, tx, *rec.OutboundProductLineID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.OutboundAllocationID == *rec.OutboundAllocationID && e.Contains(rec.ID) {
			return nil
		}
	}
	for i := range entries {
		e := &entries[i]
		if e.OutboundAllocationID != *rec.OutboundAllocationID {
			continue
		}
		e.PickedUpLPNs = append(e.PickedUpLPNs, picked)
		e.Recompute()
		return saveEntry(ctx, tx, e)
	}

	entry := models.PickupEntry{
		TenantID:              rec.TenantID,
		OutboundAllocationID:  *rec.OutboundAllocationID,
		OutboundProductLineID: *rec.OutboundProductLineID,
		PickedUpLPNs:          []models.PickedLPN{picked},
	}
	entry.Recompute()
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create pickup entry: %w", err)
	}
	return nil
}

// releasePick removes a unit from every active pickup entry of its outbound
// line. An entry left without units is retired.
func releasePick(ctx context.Context, tx *gorm.DB, rec models.UnitLoadRecord) error {
	if rec.OutboundProductLineID == nil {
		return nil
	}
	entries, err := activeEntries(ctx, tx, *rec.OutboundProductLineID)
	if err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		if !e.Remove(rec.ID) {
			continue
		}
		if len(e.PickedUpLPNs) == 0 {
			e.Lifecycle = models.RecordStateDeleted
		}
		if err := saveEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

// refreshPick copies a picked unit's current location into the pickup
// entries listing it.
func refreshPick(ctx context.Context, tx *gorm.DB, rec models.UnitLoadRecord) error {
	if rec.OutboundProductLineID == nil {
		return nil
	}
	entries, err := activeEntries(ctx, tx, *rec.OutboundProductLineID)
	if err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		stale := false
		for j := range e.PickedUpLPNs {
			if e.PickedUpLPNs[j].LPNID == rec.ID && e.PickedUpLPNs[j].Location != rec.Location {
				e.PickedUpLPNs[j].Location = rec.Location
				stale = true
			}
		}
		if !stale {
			continue
		}
		if err := saveEntry(ctx, tx, e); err != nil {
			return err
		}
	}
	return nil
}

func activeEntries(ctx context.Context, tx *gorm.DB, productLineID string) ([]models.PickupEntry, error) {
	var entries []models.PickupEntry
	err := models.ActiveOnly(tx.WithContext(ctx)).
		Where("outbound_product_line_id = ?", productLineID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load pickup entries of line %s: %w", productLineID, err)
	}
	return entries, nil
}

func saveEntry(ctx context.Context, tx *gorm.DB, e *models.PickupEntry) error {
	res := tx.WithContext(ctx).Model(&models.PickupEntry{}).
		Where("id = ? AND version = ?", e.ID, e.Version).
		Updates(map[string]any{
			"picked_up_lpns":      e.PickedUpLPNs,
			"picked_up_qty":       e.PickedUpQty,
			"final_picked_up_qty": e.FinalPickedUpQty,
			"lifecycle":           e.Lifecycle,
			"version":             e.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save pickup entry %s: %w", e.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrCodeConflict, "pickup entry %s was modified concurrently, retry", e.ID)
	}
	e.Version++
	return nil
}

// PickupEntries returns the active pickup entries of an outbound product line.
func (s *Service) PickupEntries(ctx context.Context, productLineID string) ([]models.PickupEntry, error) {
	return activeEntries(ctx, s.db, productLineID)
}
