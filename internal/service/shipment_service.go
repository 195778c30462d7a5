package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kargohub/cargo-backend/internal/metrics"
	"github.com/kargohub/cargo-backend/internal/model"
	"github.com/kargohub/cargo-backend/internal/repository"
	"github.com/kargohub/cargo-backend/internal/tracking"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidInput = errors.New("invalid input")
var ErrUnknownStatus = errors.New("unknown status")
var ErrTransitionNotAllowed = errors.New("status transition not allowed")
var ErrUpdateConflict = errors.New("concurrent status update")

// trackingAttempts bounds the retry loop when a generated code collides with
// the unique index.
const trackingAttempts = 5

type ShipmentDraft struct {
	Sender   model.Party
	Receiver model.Party
	Package  model.PackageInfo
	Delivery model.DeliveryInfo
	Notes    string
	Photo    *string
}

type Stats struct {
	Total     int64
	Pending   int64
	PickedUp  int64
	InTransit int64
	Delivered int64
	Cancelled int64
}

type ShipmentService interface {
	Create(ctx context.Context, draft ShipmentDraft) (*model.Shipment, error)
	List(ctx context.Context) ([]model.Shipment, error)
	Track(ctx context.Context, code string) (*model.Shipment, error)
	UpdateStatus(ctx context.Context, code, status string) error
	Delete(ctx context.Context, code string) error
	Stats(ctx context.Context) (*Stats, error)
}

type shipmentService struct {
	repo     repository.ShipmentRepository
	notifier Notifier
	metrics  *metrics.Metrics
}

func NewShipmentService(repo repository.ShipmentRepository, notifier Notifier, m *metrics.Metrics) ShipmentService {
	return &shipmentService{repo: repo, notifier: notifier, metrics: m}
}

func validateParty(label string, p *model.Party) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Address = strings.TrimSpace(p.Address)
	if p.Name == "" || p.Phone == "" || p.Address == "" {
		return fmt.Errorf("%w: %s name, phone and address are required", ErrInvalidInput, label)
	}
	return nil
}

func (s *shipmentService) Create(ctx context.Context, draft ShipmentDraft) (*model.Shipment, error) {
	if err := validateParty("sender", &draft.Sender); err != nil {
		return nil, err
	}
	if err := validateParty("receiver", &draft.Receiver); err != nil {
		return nil, err
	}
	draft.Package.Type = strings.TrimSpace(draft.Package.Type)
	draft.Package.Weight = strings.TrimSpace(draft.Package.Weight)
	if draft.Package.Type == "" || draft.Package.Weight == "" {
		return nil, fmt.Errorf("%w: package type and weight are required", ErrInvalidInput)
	}

	shipment := &model.Shipment{
		ID:       uuid.NewString(),
		Sender:   draft.Sender,
		Receiver: draft.Receiver,
		Package:  draft.Package,
		Delivery: draft.Delivery,
		Notes:    draft.Notes,
		Photo:    draft.Photo,
		Status:   model.StatusPending,
	}

	for attempt := 0; attempt < trackingAttempts; attempt++ {
		code, err := tracking.NewNumber()
		if err != nil {
			return nil, err
		}
		shipment.TrackingNumber = code
		err = s.repo.Create(ctx, shipment)
		if err == nil {
			s.metrics.ShipmentsCreated.Inc()
			s.notifier.ShipmentCreated(ctx, shipment)
			return shipment, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, errors.New("could not allocate a unique tracking number")
}

func (s *shipmentService) List(ctx context.Context) ([]model.Shipment, error) {
	return s.repo.List(ctx)
}

func (s *shipmentService) Track(ctx context.Context, code string) (*model.Shipment, error) {
	shipment, err := s.repo.FindByTracking(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.TrackingLookups.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.metrics.TrackingLookups.WithLabelValues("found").Inc()
	return shipment, nil
}

func (s *shipmentService) UpdateStatus(ctx context.Context, code, status string) error {
	next, ok := model.ParseStatus(status)
	if !ok {
		return ErrUnknownStatus
	}
	shipment, err := s.repo.FindByTracking(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	prev := shipment.Status
	if !prev.CanTransitionTo(next) {
		return ErrTransitionNotAllowed
	}
	rows, err := s.repo.UpdateStatus(ctx, code, prev, next)
	if err != nil {
		return err
	}
	if rows == 0 {
		// Status moved (or the record vanished) between the read and the
		// conditional write.
		return ErrUpdateConflict
	}
	s.metrics.StatusUpdates.WithLabelValues(string(next)).Inc()
	s.notifier.StatusChanged(ctx, shipment, prev, next)
	return nil
}

func (s *shipmentService) Delete(ctx context.Context, code string) error {
	rows, err := s.repo.Delete(ctx, code)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	s.metrics.ShipmentsDeleted.Inc()
	return nil
}

func (s *shipmentService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Pending:   counts[model.StatusPending],
		PickedUp:  counts[model.StatusPickedUp],
		InTransit: counts[model.StatusInTransit],
		Delivered: counts[model.StatusDelivered],
		Cancelled: counts[model.StatusCancelled],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}
