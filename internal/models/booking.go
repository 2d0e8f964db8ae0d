package models

import (
	"time"

	"gorm.io/gorm"
)

// Direction of a container movement
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// BookingCollection tags which booking collection an allocation belongs to.
type BookingCollection string

const (
	BookingCollectionImport BookingCollection = "import-container-bookings"
	BookingCollectionExport BookingCollection = "export-container-bookings"
)

// ContainerBooking is an import or export booking. ChargeTo, From and To are
// polymorphic party references; the hint fields carry the address and contact
// data captured with the booking and are used when a reference lost its id.
type ContainerBooking struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID    string    `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	BookingCode string    `gorm:"not null;index" json:"bookingCode"`
	Direction   Direction `gorm:"type:varchar(16);not null" json:"direction"`

	ChargeTo        PartyRef `gorm:"embedded;embeddedPrefix:charge_to_" json:"chargeTo"`
	ChargeToAddress Address  `gorm:"embedded;embeddedPrefix:charge_to_hint_" json:"chargeToAddress"`
	ChargeToContact Contact  `gorm:"embedded;embeddedPrefix:charge_to_hint_" json:"chargeToContact"`

	From        PartyRef `gorm:"embedded;embeddedPrefix:from_" json:"from"`
	FromAddress Address  `gorm:"embedded;embeddedPrefix:from_hint_" json:"fromAddress"`

	To        PartyRef `gorm:"embedded;embeddedPrefix:to_" json:"to"`
	ToAddress Address  `gorm:"embedded;embeddedPrefix:to_hint_" json:"toAddress"`

	Lifecycle RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (ContainerBooking) TableName() string { return "container_bookings" }

func (b *ContainerBooking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.Lifecycle == "" {
		b.Lifecycle = RecordStateActive
	}
	return nil
}

// Collection returns the booking collection tag matching the booking direction.
func (b ContainerBooking) Collection() BookingCollection {
	if b.Direction == DirectionExport {
		return BookingCollectionExport
	}
	return BookingCollectionImport
}

// ContainerDetail is one container on a booking. WarehouseID is set once the
// container is assigned to a site.
type ContainerDetail struct {
	ID              string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID        string      `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	BookingID       string      `gorm:"type:varchar(36);not null;index" json:"bookingId"`
	ContainerNumber string      `gorm:"not null" json:"containerNumber"`
	WarehouseID     *string     `gorm:"type:varchar(36);index" json:"warehouseId,omitempty"`
	Lifecycle       RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (ContainerDetail) TableName() string { return "container_details" }

func (c *ContainerDetail) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Lifecycle == "" {
		c.Lifecycle = RecordStateActive
	}
	return nil
}
