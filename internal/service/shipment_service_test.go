package service

import (
	"context"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/kargohub/cargo-backend/internal/metrics"
	"github.com/kargohub/cargo-backend/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeShipmentRepo is an in-memory stand-in that mimics the gorm error
// surface the service depends on.
type fakeShipmentRepo struct {
	shipments   []*model.Shipment
	createCalls int
	failCreates int // leading Create calls that report a duplicate key
	zeroRows    bool
	clock       time.Time
}

func newFakeRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *fakeShipmentRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *fakeShipmentRepo) Create(_ context.Context, s *model.Shipment) error {
	r.createCalls++
	if r.createCalls <= r.failCreates {
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range r.shipments {
		if existing.TrackingNumber == s.TrackingNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	now := r.tick()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	r.shipments = append(r.shipments, &cp)
	return nil
}

func (r *fakeShipmentRepo) List(_ context.Context) ([]model.Shipment, error) {
	out := make([]model.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeShipmentRepo) FindByTracking(_ context.Context, code string) (*model.Shipment, error) {
	for _, s := range r.shipments {
		if s.TrackingNumber == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeShipmentRepo) UpdateStatus(_ context.Context, code string, prev, next model.ShipmentStatus) (int64, error) {
	if r.zeroRows {
		return 0, nil
	}
	for _, s := range r.shipments {
		if s.TrackingNumber == code && s.Status == prev {
			s.Status = next
			s.UpdatedAt = r.tick()
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeShipmentRepo) Delete(_ context.Context, code string) (int64, error) {
	for i, s := range r.shipments {
		if s.TrackingNumber == code {
			r.shipments = append(r.shipments[:i], r.shipments[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *fakeShipmentRepo) CountByStatus(_ context.Context) (map[model.ShipmentStatus]int64, error) {
	counts := make(map[model.ShipmentStatus]int64)
	for _, s := range r.shipments {
		counts[s.Status]++
	}
	return counts, nil
}

type fakeNotifier struct {
	created       int
	statusChanged int
}

func (n *fakeNotifier) ShipmentCreated(context.Context, *model.Shipment) { n.created++ }
func (n *fakeNotifier) StatusChanged(context.Context, *model.Shipment, model.ShipmentStatus, model.ShipmentStatus) {
	n.statusChanged++
}

func newTestService(repo *fakeShipmentRepo) (ShipmentService, *fakeNotifier) {
	n := &fakeNotifier{}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewShipmentService(repo, n, m), n
}

func validDraft() ShipmentDraft {
	return ShipmentDraft{
		Sender:   model.Party{Name: "Ahmet", Phone: "05321112233", Address: "Kadikoy, Istanbul"},
		Receiver: model.Party{Name: "Zeynep", Phone: "05419998877", Address: "Cankaya, Ankara"},
		Package:  model.PackageInfo{Type: "document", Weight: "0.5"},
		Delivery: model.DeliveryInfo{Type: "standard", PickupDate: "2025-06-02"},
	}
}

var trackingRe = regexp.MustCompile(`^KH\d{6}$`)

func TestCreateShipment(t *testing.T) {
	repo := newFakeRepo()
	svc, notifier := newTestService(repo)

	s, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Regexp(t, trackingRe, s.TrackingNumber)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.StatusPending, s.Status)
	assert.Len(t, repo.shipments, 1)
	assert.Equal(t, 1, notifier.created)

	s2, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, s2.ID)
}

func TestCreateShipmentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ShipmentDraft)
	}{
		{"missing sender phone", func(d *ShipmentDraft) { d.Sender.Phone = "" }},
		{"blank sender name", func(d *ShipmentDraft) { d.Sender.Name = "   " }},
		{"missing receiver address", func(d *ShipmentDraft) { d.Receiver.Address = "" }},
		{"missing package type", func(d *ShipmentDraft) { d.Package.Type = "" }},
		{"missing package weight", func(d *ShipmentDraft) { d.Package.Weight = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			svc, _ := newTestService(repo)
			draft := validDraft()
			tt.mutate(&draft)
			_, err := svc.Create(context.Background(), draft)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Empty(t, repo.shipments, "no record may be persisted on invalid input")
		})
	}
}

func TestCreateRetriesOnTrackingCollision(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreates = 2
	svc, _ := newTestService(repo)

	s, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.createCalls)
	assert.Regexp(t, trackingRe, s.TrackingNumber)
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreates = 100
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), validDraft())
	require.Error(t, err)
	assert.Equal(t, trackingAttempts, repo.createCalls)
}

func TestTrack(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	found, err := svc.Track(context.Background(), created.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, created.Sender.Name, found.Sender.Name)

	_, err = svc.Track(context.Background(), "KH000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo := newFakeRepo()
	svc, notifier := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), created.TrackingNumber, "picked_up"))
	assert.Equal(t, 1, notifier.statusChanged)

	after, err := svc.Track(context.Background(), created.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPickedUp, after.Status)
	assert.True(t, after.UpdatedAt.After(created.UpdatedAt), "updatedAt must advance")
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	err = svc.UpdateStatus(context.Background(), created.TrackingNumber, "teleported")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUpdateStatusRejectsDisallowedTransition(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	err = svc.UpdateStatus(context.Background(), created.TrackingNumber, "delivered")
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	after, err := svc.Track(context.Background(), created.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, after.Status)
}

func TestUpdateStatusUnknownCode(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	err := svc.UpdateStatus(context.Background(), "KH123456", "picked_up")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.shipments)
}

func TestUpdateStatusLostRace(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	repo.zeroRows = true
	err = svc.UpdateStatus(context.Background(), created.TrackingNumber, "picked_up")
	assert.ErrorIs(t, err, ErrUpdateConflict)
}

func TestDelete(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	created, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.TrackingNumber))
	_, err = svc.Track(context.Background(), created.TrackingNumber)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), created.TrackingNumber)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	first, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestStats(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), validDraft())
		require.NoError(t, err)
	}
	delivered, err := svc.Create(context.Background(), validDraft())
	require.NoError(t, err)
	require.NoError(t, svc.UpdateStatus(context.Background(), delivered.TrackingNumber, "in_transit"))
	require.NoError(t, svc.UpdateStatus(context.Background(), delivered.TrackingNumber, "delivered"))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(0), stats.InTransit)
}
