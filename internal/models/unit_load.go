package models

import (
	"time"

	"gorm.io/gorm"
)

// AllocationStatus is the lifecycle of a physical unit load against outbound demand.
type AllocationStatus string

const (
	StatusAvailable AllocationStatus = "available"
	StatusAllocated AllocationStatus = "allocated"
	StatusPicked    AllocationStatus = "picked"
)

// Valid reports whether s is a known allocation status.
func (s AllocationStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusAllocated, StatusPicked:
		return true
	}
	return false
}

// SourceKind names the document a unit load was put away from.
type SourceKind string

const (
	SourceInbound   SourceKind = "inbound"
	SourceContainer SourceKind = "container"
)

// UnitLoadRecord is one physical pallet identified by its LPN.
// An available record carries no outbound linkage; allocated and picked ones always do.
type UnitLoadRecord struct {
	ID                string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID          string     `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	WarehouseID       string     `gorm:"type:varchar(36);index" json:"warehouseId"`
	LPNNumber         string     `gorm:"type:varchar(32);not null;uniqueIndex" json:"lpnNumber"`
	SourceKind        SourceKind `gorm:"type:varchar(16);not null" json:"sourceKind"`
	SourceID          string     `gorm:"type:varchar(36);not null;index" json:"sourceId"`
	ProductLineID     string     `gorm:"type:varchar(36);not null;index" json:"productLineId"`
	SourceContainerID *string    `gorm:"type:varchar(36);index" json:"sourceContainerId,omitempty"`
	SKUID             string     `gorm:"type:varchar(36);not null;index:idx_unit_load_pool,priority:1" json:"skuId"`
	BatchNumber       string     `gorm:"index:idx_unit_load_pool,priority:2" json:"batchNumber"`
	Location          string     `json:"location"`
	HUQty             int        `gorm:"not null" json:"huQty"`

	AllocationStatus      AllocationStatus `gorm:"type:varchar(16);not null;default:available;index" json:"allocationStatus"`
	OutboundAllocationID  *string          `gorm:"type:varchar(36);index" json:"outboundInventoryId,omitempty"`
	OutboundProductLineID *string          `gorm:"type:varchar(36);index" json:"outboundProductLineId,omitempty"`
	OutboundContainerID   *string          `gorm:"type:varchar(36)" json:"outboundContainerId,omitempty"`
	AllocatedAt           *time.Time       `json:"allocatedAt,omitempty"`
	AllocatedBy           *string          `gorm:"type:varchar(36)" json:"allocatedBy,omitempty"`

	Lifecycle RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (UnitLoadRecord) TableName() string { return "unit_load_records" }

func (r *UnitLoadRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.Lifecycle == "" {
		r.Lifecycle = RecordStateActive
	}
	if r.AllocationStatus == "" {
		r.AllocationStatus = StatusAvailable
	}
	return nil
}

// LinkedTo reports whether the record is linked to the given outbound allocation and line.
func (r UnitLoadRecord) LinkedTo(allocationID, productLineID string) bool {
	return r.OutboundAllocationID != nil && *r.OutboundAllocationID == allocationID &&
		r.OutboundProductLineID != nil && *r.OutboundProductLineID == productLineID
}

// HasLinkage reports whether any outbound linkage is set.
func (r UnitLoadRecord) HasLinkage() bool {
	return r.OutboundAllocationID != nil || r.OutboundProductLineID != nil
}
