package models

import (
	"time"

	"gorm.io/gorm"
)

// PartyCollection tags which collection a polymorphic party reference points into.
type PartyCollection string

const (
	CollectionCustomers       PartyCollection = "customers"
	CollectionPayingCustomers PartyCollection = "paying-customers"
	CollectionWarehouses      PartyCollection = "warehouses"
)

// Valid reports whether c is one of the known party collections.
func (c PartyCollection) Valid() bool {
	switch c {
	case CollectionCustomers, CollectionPayingCustomers, CollectionWarehouses:
		return true
	}
	return false
}

// PartyRef is a tagged reference to a customer, paying customer or warehouse.
// Name is a denormalized snapshot; when set the reference counts as populated.
type PartyRef struct {
	PartyID    *string         `gorm:"type:varchar(36)" json:"id,omitempty"`
	Collection PartyCollection `gorm:"type:varchar(40)" json:"collection,omitempty"`
	Name       string          `json:"name,omitempty"`
}

// Party is the resolved view of any party collection.
type Party struct {
	ID         string          `json:"id"`
	Collection PartyCollection `json:"collection"`
	Name       string          `json:"name"`
	Address
	Contact
}

// PartySource is implemented by every model that can be the target of a PartyRef.
type PartySource interface {
	AsParty() Party
}

// Warehouse is a storage site owned by a tenant
type Warehouse struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID  string      `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	Name      string      `gorm:"not null" json:"name"`
	Address   `gorm:"embedded"`
	Lifecycle RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (Warehouse) TableName() string { return "warehouses" }

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = newID()
	}
	if w.Lifecycle == "" {
		w.Lifecycle = RecordStateActive
	}
	return nil
}

func (w Warehouse) AsParty() Party {
	return Party{ID: w.ID, Collection: CollectionWarehouses, Name: w.Name, Address: w.Address}
}

// Customer is a consignor/consignee of freight
type Customer struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID     string      `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	CustomerName string      `gorm:"not null" json:"customerName"`
	Address      `gorm:"embedded"`
	Contact      `gorm:"embedded"`
	Lifecycle    RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Lifecycle == "" {
		c.Lifecycle = RecordStateActive
	}
	return nil
}

func (c Customer) AsParty() Party {
	return Party{ID: c.ID, Collection: CollectionCustomers, Name: c.CustomerName, Address: c.Address, Contact: c.Contact}
}

// PayingCustomer is the party invoiced for a booking (the "charge to")
type PayingCustomer struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TenantID     string      `gorm:"type:varchar(36);not null;index" json:"tenantId"`
	CustomerName string      `gorm:"not null" json:"customerName"`
	Address      `gorm:"embedded"`
	Contact      `gorm:"embedded"`
	Lifecycle    RecordState `gorm:"type:varchar(16);default:active;index" json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (PayingCustomer) TableName() string { return "paying_customers" }

func (c *PayingCustomer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if c.Lifecycle == "" {
		c.Lifecycle = RecordStateActive
	}
	return nil
}

func (c PayingCustomer) AsParty() Party {
	return Party{ID: c.ID, Collection: CollectionPayingCustomers, Name: c.CustomerName, Address: c.Address, Contact: c.Contact}
}
