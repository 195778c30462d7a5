package repository

import (
	"context"

	"github.com/kargohub/cargo-backend/internal/model"
	"gorm.io/gorm"
)

type ShipmentRepository interface {
	Create(ctx context.Context, s *model.Shipment) error
	List(ctx context.Context) ([]model.Shipment, error)
	FindByTracking(ctx context.Context, code string) (*model.Shipment, error)
	// UpdateStatus flips status for the record matching code only while its
	// current status is still prev; returns the number of affected rows.
	UpdateStatus(ctx context.Context, code string, prev, next model.ShipmentStatus) (int64, error)
	Delete(ctx context.Context, code string) (int64, error)
	CountByStatus(ctx context.Context) (map[model.ShipmentStatus]int64, error)
}

type shipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) Create(ctx context.Context, s *model.Shipment) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *shipmentRepository) List(ctx context.Context) ([]model.Shipment, error) {
	var list []model.Shipment
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *shipmentRepository) FindByTracking(ctx context.Context, code string) (*model.Shipment, error) {
	var s model.Shipment
	if err := r.db.WithContext(ctx).
		Where("tracking_number = ?", code).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shipmentRepository) UpdateStatus(ctx context.Context, code string, prev, next model.ShipmentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Shipment{}).
		Where("tracking_number = ? AND status = ?", code, prev).
		Update("status", next)
	return res.RowsAffected, res.Error
}

func (r *shipmentRepository) Delete(ctx context.Context, code string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("tracking_number = ?", code).
		Delete(&model.Shipment{})
	return res.RowsAffected, res.Error
}

func (r *shipmentRepository) CountByStatus(ctx context.Context) (map[model.ShipmentStatus]int64, error) {
	var rows []struct {
		Status model.ShipmentStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Shipment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.ShipmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
