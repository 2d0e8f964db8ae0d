package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookingRef is a tagged reference to an import or export booking.
type BookingRef struct {
	BookingID  string            `gorm:"type:varchar(36);index" json:"id"`
	Collection BookingCollection `gorm:"type:varchar(40)" json:"collection"`
}

// ContainerStockAllocation groups the product lines loaded into (export) or
// unloaded from (import) one container. Version guards every save.
type ContainerStockAllocation struct {
	ID                string                           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID          string                           `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	ContainerDetailID string                           `gorm:"type:varchar(36);not null;index" json:"containerDetailId"`
	Booking           BookingRef                       `gorm:"embedded;embeddedPrefix:booking_" json:"booking"`
	Direction         Direction                        `gorm:"type:varchar(16);not null" json:"direction"`
	Stage             string                           `gorm:"type:varchar(32);default:allocated" json:"stage"`
	ProductLines      datatypes.JSONSlice[ProductLine] `json:"productLines"`
	Version           int64                            `gorm:"not null;default:1" json:"version"`
	Lifecycle         RecordState                      `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt         time.Time                        `json:"createdAt"`
	UpdatedAt         time.Time                        `json:"updatedAt"`
}

func (ContainerStockAllocation) TableName() string { return "container_stock_allocations" }

func (a *ContainerStockAllocation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Lifecycle == "" {
		a.Lifecycle = RecordStateActive
	}
	if a.Version == 0 {
		a.Version = 1
	}
	assignLineIDs(a.ProductLines)
	return nil
}

// InboundJob receives freight into a warehouse. Its product lines carry the
// received quantities that put-away decomposes into unit loads.
type InboundJob struct {
	ID           string                           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID     string                           `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	WarehouseID  string                           `gorm:"type:varchar(36);not null;index" json:"warehouseId"`
	JobCode      string                           `gorm:"not null;index" json:"jobCode"`
	ProductLines datatypes.JSONSlice[ProductLine] `json:"productLines"`
	Version      int64                            `gorm:"not null;default:1" json:"version"`
	Lifecycle    RecordState                      `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}

func (InboundJob) TableName() string { return "inbound_jobs" }

func (j *InboundJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = newID()
	}
	if j.Lifecycle == "" {
		j.Lifecycle = RecordStateActive
	}
	if j.Version == 0 {
		j.Version = 1
	}
	assignLineIDs(j.ProductLines)
	return nil
}
