package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PickupStatus of a pickup ledger entry
type PickupStatus string

const (
	PickupStatusPicked    PickupStatus = "picked"
	PickupStatusCompleted PickupStatus = "completed"
)

// PickedLPN is one unit load listed on a pickup entry.
type PickedLPN struct {
	LPNID     string `json:"lpnId"`
	LPNNumber string `json:"lpnNumber"`
	HUQty     int    `json:"huQty"`
	Location  string `json:"location"`
}

// PickupEntry aggregates the unit loads picked against one outbound product line.
// PickedUpQty is always the sum of HUQty over PickedUpLPNs.
type PickupEntry struct {
	ID                    string                         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID              string                         `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	OutboundAllocationID  string                         `gorm:"type:varchar(36);not null;index" json:"outboundInventoryId"`
	OutboundProductLineID string                         `gorm:"type:varchar(36);not null;index" json:"outboundProductLineId"`
	PickedUpLPNs          datatypes.JSONSlice[PickedLPN] `json:"pickedUpLPNs"`
	PickedUpQty           int                            `json:"pickedUpQty"`
	BufferQty             int                            `json:"bufferQty"`
	FinalPickedUpQty      int                            `json:"finalPickedUpQty"`
	PickupStatus          PickupStatus                   `gorm:"type:varchar(16);default:picked" json:"pickupStatus"`
	Version               int64                          `gorm:"not null;default:1" json:"version"`
	Lifecycle             RecordState                    `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt             time.Time                      `json:"createdAt"`
	UpdatedAt             time.Time                      `json:"updatedAt"`
}

func (PickupEntry) TableName() string { return "pickup_entries" }

func (p *PickupEntry) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Lifecycle == "" {
		p.Lifecycle = RecordStateActive
	}
	if p.PickupStatus == "" {
		p.PickupStatus = PickupStatusPicked
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

// Contains reports whether the entry lists the given unit load.
func (p PickupEntry) Contains(lpnID string) bool {
	for _, l := range p.PickedUpLPNs {
		if l.LPNID == lpnID {
			return true
		}
	}
	return false
}

// Recompute refreshes the derived quantities from the LPN list.
func (p *PickupEntry) Recompute() {
	total := 0
	for _, l := range p.PickedUpLPNs {
		total += l.HUQty
	}
	p.PickedUpQty = total
	p.FinalPickedUpQty = total + p.BufferQty
}

// Remove drops the unit load from the list and recomputes the sums.
// It returns false when the unit was not listed.
func (p *PickupEntry) Remove(lpnID string) bool {
	kept := p.PickedUpLPNs[:0:0]
	found := false
	for _, l := range p.PickedUpLPNs {
		if l.LPNID == lpnID {
			found = true
			continue
		}
		kept = append(kept, l)
	}
	if !found {
		return false
	}
	p.PickedUpLPNs = kept
	p.Recompute()
	return true
}
