package party

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrMissingCollection is returned for a reference that has an id but no
	// collection tag. The collection is never guessed.
	ErrMissingCollection = errors.New("party reference has an id but no collection")

	// ErrUnknownCollection is returned for a collection tag outside the known set.
	ErrUnknownCollection = errors.New("unknown party collection")
)

// Mode selects which fields take part in hint matching.
type Mode int

const (
	// ModeAddress matches on street, city, state and postcode.
	ModeAddress Mode = iota
	// ModeChargeTo also accepts a contact name/phone match.
	ModeChargeTo
)

// Hints are the address and contact fields captured next to a reference.
type Hints struct {
	Address models.Address
	Contact models.Contact
}

func (h Hints) empty(mode Mode) bool {
	if !h.Address.IsZero() {
		return false
	}
	return mode != ModeChargeTo || (h.Contact.ContactName == "" && h.Contact.ContactPhone == "")
}

// Resolver recovers the entity behind a polymorphic party reference.
type Resolver struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewResolver(db *gorm.DB, log logrus.FieldLogger) *Resolver {
	return &Resolver{db: db, log: log}
}

// Resolve returns the referenced party, or nil when it cannot be found.
// A populated reference (name already set) is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, ref models.PartyRef, hints Hints, mode Mode) (*models.Party, error) {
	hasID := ref.PartyID != nil && *ref.PartyID != ""

	if ref.Name != "" {
		p := &models.Party{Collection: ref.Collection, Name: ref.Name}
		if hasID {
			p.ID = *ref.PartyID
		}
		return p, nil
	}

	if hasID {
		if ref.Collection == "" {
			return nil, fmt.Errorf("%w: id %s", ErrMissingCollection, *ref.PartyID)
		}
		if !ref.Collection.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, ref.Collection)
		}
		p, err := r.first(ctx, ref.Collection, func(db *gorm.DB) *gorm.DB {
			return db.Where("id = ?", *ref.PartyID)
		})
		if err != nil {
			return nil, err
		}
		if p == nil {
			r.log.WithFields(logrus.Fields{"collection": ref.Collection, "id": *ref.PartyID}).
				Warn("party reference points at a missing record")
		}
		return p, nil
	}

	if ref.Collection == "" || hints.empty(mode) {
		return nil, nil
	}
	if !ref.Collection.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, ref.Collection)
	}
	return r.first(ctx, ref.Collection, func(db *gorm.DB) *gorm.DB {
		return matchHints(db, ref.Collection, hints, mode)
	})
}

// BookingParties holds the resolved parties of a booking. Unresolvable
// references are left nil.
type BookingParties struct {
	ChargeTo *models.Party `json:"chargeTo,omitempty"`
	From     *models.Party `json:"from,omitempty"`
	To       *models.Party `json:"to,omitempty"`
}

// ResolveBooking resolves the three party references of a booking. Failures
// are logged and never abort the caller.
func (r *Resolver) ResolveBooking(ctx context.Context, b models.ContainerBooking) BookingParties {
	var out BookingParties
	out.ChargeTo = r.soft(ctx, b.ID, "chargeTo", b.ChargeTo, Hints{Address: b.ChargeToAddress, Contact: b.ChargeToContact}, ModeChargeTo)
	out.From = r.soft(ctx, b.ID, "from", b.From, Hints{Address: b.FromAddress}, ModeAddress)
	out.To = r.soft(ctx, b.ID, "to", b.To, Hints{Address: b.ToAddress}, ModeAddress)
	return out
}

func (r *Resolver) soft(ctx context.Context, bookingID, field string, ref models.PartyRef, hints Hints, mode Mode) *models.Party {
	p, err := r.Resolve(ctx, ref, hints, mode)
	if err != nil {
		config.LogError(r.log, "party", "ResolveBooking", "could not resolve "+field, map[string]string{"bookingId": bookingID}, err)
		return nil
	}
	return p
}

func (r *Resolver) first(ctx context.Context, c models.PartyCollection, scope func(*gorm.DB) *gorm.DB) (*models.Party, error) {
	db := scope(models.ActiveOnly(r.db.WithContext(ctx))).Order("created_at ASC")
	switch c {
	case models.CollectionCustomers:
		return firstParty[models.Customer](db)
	case models.CollectionPayingCustomers:
		return firstParty[models.PayingCustomer](db)
	case models.CollectionWarehouses:
		return firstParty[models.Warehouse](db)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
}

func firstParty[T models.PartySource](db *gorm.DB) (*models.Party, error) {
	var rows []T
	if err := db.Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query parties: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := rows[0].AsParty()
	return &p, nil
}

func matchHints(db *gorm.DB, c models.PartyCollection, hints Hints, mode Mode) *gorm.DB {
	var conds []string
	var args []any
	add := func(col, val string) {
		if val = strings.TrimSpace(val); val != "" {
			conds = append(conds, "LOWER("+col+") = ?")
			args = append(args, strings.ToLower(val))
		}
	}

	add("street", hints.Address.Street)
	add("city", hints.Address.City)
	add("state", hints.Address.State)
	add("postcode", hints.Address.Postcode)
	address := strings.Join(conds, " AND ")
	addressArgs := args

	if mode != ModeChargeTo || c == models.CollectionWarehouses {
		if address == "" {
			return db.Where("1 = 0")
		}
		return db.Where(address, addressArgs...)
	}

	conds, args = nil, nil
	add("contact_name", hints.Contact.ContactName)
	add("contact_phone", hints.Contact.ContactPhone)
	contact := strings.Join(conds, " AND ")

	switch {
	case address != "" && contact != "":
		return db.Where("(("+address+") OR ("+contact+"))", append(addressArgs, args...)...)
	case address != "":
		return db.Where(address, addressArgs...)
	default:
		return db.Where(contact, args...)
	}
}
