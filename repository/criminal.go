package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/swdee/go-trafficwatch/plate"
)

// CriminalRecord is a plate flagged by law enforcement
type CriminalRecord struct {
	ID          int64  `gorm:"primaryKey"`
	PlateNumber string `gorm:"not null;uniqueIndex"`
	Reason      *string
	CreatedAt   time.Time
}

// TableName sets the table backing CriminalRecord
func (CriminalRecord) TableName() string {
	return "criminal_records"
}

// CriminalRepository queries the criminal_records table
type CriminalRepository struct {
	db *gorm.DB
}

// NewCriminalRepository returns a repository on the given connection
func NewCriminalRepository(db *gorm.DB) *CriminalRepository {
	return &CriminalRepository{db: db}
}

// LoadAll returns every flagged plate number
func (r *CriminalRepository) LoadAll(ctx context.Context) ([]string, error) {
	var plates []string
	err := r.db.WithContext(ctx).
		Model(&CriminalRecord{}).
		Order("plate_number").
		Pluck("plate_number", &plates).Error
	return plates, err
}

// IsCriminal reports whether the plate is flagged
func (r *CriminalRepository) IsCriminal(ctx context.Context, plateNumber string) (bool, error) {

	var rec CriminalRecord
	err := r.db.WithContext(ctx).
		Where("plate_number = ?", plate.Normalize(plateNumber)).
		First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// Add flags a plate, updating the reason if it is already flagged
func (r *CriminalRepository) Add(ctx context.Context, plateNumber, reason string) error {

	rec := CriminalRecord{
		PlateNumber: plate.Normalize(plateNumber),
	}

	if reason != "" {
		rec.Reason = &reason
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plate_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason"}),
		}).
		Create(&rec).Error
}

// Remove unflags a plate
func (r *CriminalRepository) Remove(ctx context.Context, plateNumber string) error {
	return r.db.WithContext(ctx).
		Where("plate_number = ?", plate.Normalize(plateNumber)).
		Delete(&CriminalRecord{}).Error
}

// Enrich adds every flagged plate to the set and returns the number loaded
func (r *CriminalRepository) Enrich(ctx context.Context, set *plate.CriminalSet) (int, error) {

	plates, err := r.LoadAll(ctx)

	if err != nil {
		return 0, err
	}

	set.Add(plates...)
	return len(plates), nil
}
