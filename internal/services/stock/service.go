package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/appctx"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/services/party"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultPageSize = 100

// Locker serializes allocation work on one product line.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Options configures a Service. Zero values fall back to in-process defaults.
type Options struct {
	LPNPrefix string
	PageSize  int
	Locker    Locker
	Publisher Publisher
	Logger    logrus.FieldLogger
	Parties   *party.Resolver
	Now       func() time.Time
}

// Service is the put-away and allocation engine.
type Service struct {
	db        *gorm.DB
	lpn       *LPNGenerator
	locker    Locker
	publisher Publisher
	log       logrus.FieldLogger
	parties   *party.Resolver
	pageSize  int
	now       func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	s := &Service{
		db:        db,
		lpn:       NewLPNGenerator(opts.LPNPrefix),
		locker:    opts.Locker,
		publisher: opts.Publisher,
		log:       opts.Logger,
		parties:   opts.Parties,
		pageSize:  opts.PageSize,
		now:       opts.Now,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.locker == nil {
		s.locker = noLock{}
	}
	if s.publisher == nil {
		s.publisher = NopPublisher{}
	}
	if s.parties == nil {
		s.parties = party.NewResolver(db, s.log)
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPageSize
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

type noLock struct{}

func (noLock) Lock(context.Context, string) (func(), error) { return func() {}, nil }

func (s *Service) publish(ctx context.Context, typ EventType, data any) {
	s.publisher.Publish(Event{Type: typ, TenantID: appctx.TenantID(ctx), Data: data, At: s.now()})
}

func tenantFrom(ctx context.Context) (string, error) {
	tenantID := appctx.TenantID(ctx)
	if tenantID == "" {
		return "", newError(ErrCodeValidation, "tenant is required")
	}
	return tenantID, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrCodeNotFound, "%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// GetUnitLoad returns an active unit load of the caller's tenant.
func (s *Service) GetUnitLoad(ctx context.Context, id string) (*models.UnitLoadRecord, error) {
	var rec models.UnitLoadRecord
	if err := models.ActiveOnly(s.db.WithContext(ctx)).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, notFound(err, "unit load "+id)
	}
	return &rec, nil
}

// GetAllocation returns an active container stock allocation.
func (s *Service) GetAllocation(ctx context.Context, id string) (*models.ContainerStockAllocation, error) {
	return loadAllocation(ctx, s.db, id)
}

func loadAllocation(ctx context.Context, db *gorm.DB, id string) (*models.ContainerStockAllocation, error) {
	var alloc models.ContainerStockAllocation
	if err := models.ActiveOnly(db.WithContext(ctx)).Where("id = ?", id).First(&alloc).Error; err != nil {
		return nil, notFound(err, "container stock allocation "+id)
	}
	return &alloc, nil
}

// AllocationView is an allocation with its booking parties resolved.
type AllocationView struct {
	*models.ContainerStockAllocation
	Container     *models.ContainerDetail  `json:"container,omitempty"`
	BookingDetail *models.ContainerBooking `json:"bookingDetail,omitempty"`
	Parties       party.BookingParties     `json:"parties"`
}

// DescribeAllocation loads an allocation with its container and resolved
// booking parties. Missing container or booking data is left empty.
func (s *Service) DescribeAllocation(ctx context.Context, id string) (*AllocationView, error) {
	alloc, err := s.GetAllocation(ctx, id)
	if err != nil {
		return nil, err
	}
	view := &AllocationView{ContainerStockAllocation: alloc}

	var container models.ContainerDetail
	if err := s.db.WithContext(ctx).Where("id = ?", alloc.ContainerDetailID).First(&container).Error; err == nil {
		view.Container = &container
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load container %s: %w", alloc.ContainerDetailID, err)
	}

	if alloc.Booking.BookingID != "" {
		var booking models.ContainerBooking
		if err := s.db.WithContext(ctx).Where("id = ?", alloc.Booking.BookingID).First(&booking).Error; err == nil {
			view.BookingDetail = &booking
			view.Parties = s.parties.ResolveBooking(ctx, booking)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load booking %s: %w", alloc.Booking.BookingID, err)
		}
	}
	return view, nil
}

// saveVersioned writes the product lines of a versioned document and bumps its
// version. A concurrent save in between surfaces as a conflict.
func saveVersioned(ctx context.Context, tx *gorm.DB, model any, id string, version int64, lines []models.ProductLine) error {
	res := tx.WithContext(ctx).Model(model).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"product_lines": datatypes.NewJSONSlice(lines),
			"version":       version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save product lines of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrCodeConflict, "document %s was modified concurrently, retry", id).
			with("id", id)
	}
	return nil
}
