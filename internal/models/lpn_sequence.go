package models

import "time"

// LPNSequenceGlobal names the counter every tenant's LPNs are reserved from.
// LPN numbers share one unique index across tenants, so the counter does too.
const LPNSequenceGlobal = "lpn"

// LPNSequence is a named counter LPN numbers are reserved from.
type LPNSequence struct {
	Name      string    `gorm:"primaryKey;type:varchar(32)" json:"name"`
	NextValue int64     `gorm:"not null;default:1" json:"nextValue"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LPNSequence) TableName() string { return "lpn_sequences" }
