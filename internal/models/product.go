package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SKU is a stock keeping unit with the physical data used for allocation metrics.
type SKU struct {
	ID             string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID       string          `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	Code           string          `gorm:"not null;index" json:"code"`
	Description    string          `json:"description"`
	LengthMM       decimal.Decimal `gorm:"type:decimal(12,2)" json:"lengthMm"`
	WidthMM        decimal.Decimal `gorm:"type:decimal(12,2)" json:"widthMm"`
	HeightMM       decimal.Decimal `gorm:"type:decimal(12,2)" json:"heightMm"`
	HUWeight       decimal.Decimal `gorm:"type:decimal(12,4)" json:"huWeight"` // kg per unit
	UnitsPerPallet int             `json:"unitsPerPallet"`
	Lifecycle      RecordState     `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (SKU) TableName() string { return "skus" }

func (s *SKU) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Lifecycle == "" {
		s.Lifecycle = RecordStateActive
	}
	return nil
}

// ProductLine is one SKU/batch combination expected, received or allocated
// within a job or container allocation. It is stored embedded in its parent.
type ProductLine struct {
	ID               string          `json:"id"`
	SKUID            string          `json:"skuId"`
	BatchNumber      string          `json:"batchNumber"`
	ExpectedQty      int             `json:"expectedQty"`
	ReceivedQty      int             `json:"receivedQty"`
	LPNQty           int             `json:"lpnQty"`
	AllocatedQty     int             `json:"allocatedQty"`
	AllocatedWeight  decimal.Decimal `json:"allocatedWeight"`
	AllocatedCubicM3 decimal.Decimal `json:"allocatedCubicM3"`
	AllocatedPLT     decimal.Decimal `json:"allocatedPlt"`
	Location         string          `json:"location,omitempty"`
	UnitLoadIDs      []string        `json:"unitLoadIds,omitempty"`
	LPNNumbers       []string        `json:"lpnNumbers,omitempty"`
}

// FullyAllocated reports whether the line already covers its expected quantity.
func (p ProductLine) FullyAllocated() bool {
	return p.ExpectedQty > 0 && p.AllocatedQty >= p.ExpectedQty
}

// RemainingQty is what is still needed to reach the expected quantity.
func (p ProductLine) RemainingQty() int {
	if rest := p.ExpectedQty - p.AllocatedQty; rest > 0 {
		return rest
	}
	return 0
}

// assignLineIDs gives every embedded line a stable id before it is first saved.
func assignLineIDs(lines []ProductLine) {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = newID()
		}
	}
}

// FindLine returns the index of the line with the given id, or -1.
func FindLine(lines []ProductLine, id string) int {
	for i := range lines {
		if lines[i].ID == id {
			return i
		}
	}
	return -1
}
