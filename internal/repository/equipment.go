package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-app/internal/domain/bookings"
	"rental-app/internal/domain/equipment"

	"gorm.io/gorm"
)

// EquipmentRepository is the slice of the external equipment catalog the
// booking core needs: reading a unit and flipping its availability lock.
type EquipmentRepository interface {
	Get(ctx context.Context, id uint) (*equipment.Equipment, error)
	SetAvailability(ctx context.Context, id uint, available bool) error
}

type gormEquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return &gormEquipmentRepository{db: db}
}

func (r *gormEquipmentRepository) Get(ctx context.Context, id uint) (*equipment.Equipment, error) {
	var eq equipment.Equipment
	if err := r.db.WithContext(ctx).First(&eq, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bookings.ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("load equipment %d: %w", id, err)
	}
	return &eq, nil
}

func (r *gormEquipmentRepository) SetAvailability(ctx context.Context, id uint, available bool) error {
	res := r.db.WithContext(ctx).
		Model(&equipment.Equipment{}).
		Where("id = ?", id).
		Update("availability", available)
	if res.Error != nil {
		return fmt.Errorf("set availability on equipment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return bookings.ErrEquipmentNotFound
	}
	return nil
}
