package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordState is the lifecycle of a persisted record. Records are never
// removed physically; deletion moves them to RecordStateDeleted.
type RecordState string

const (
	RecordStateActive  RecordState = "active"
	RecordStateDeleted RecordState = "deleted"
)

// ActiveOnly restricts a query to records that have not been soft-deleted.
func ActiveOnly(db *gorm.DB) *gorm.DB {
	return db.Where("lifecycle = ?", RecordStateActive)
}

// Address is shared by every party collection and used for address matching.
type Address struct {
	Street   string `gorm:"index" json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `gorm:"index" json:"postcode"`
}

// IsZero reports whether no address field is set.
func (a Address) IsZero() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Postcode == ""
}

// Contact holds the person to reach at a customer.
type Contact struct {
	ContactName  string `json:"contactName"`
	ContactPhone string `json:"contactPhone"`
}

func newID() string {
	return uuid.New().String()
}
