package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fpang/trip-journal/internal/trip"
	"gorm.io/gorm"
)

// GormStore implements trip.RecordStore on a gorm connection.
type GormStore struct {
	db *gorm.DB
}

// Compile-time interface check.
var _ trip.RecordStore = (*GormStore)(nil)

// NewGormStore wraps an opened and migrated connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InsertTrip(ctx context.Context, t *trip.Trip) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("insert trip owner=%s: %w", t.OwnerID, err)
	}
	return nil
}

func (s *GormStore) InsertTripRecord(ctx context.Context, r *trip.TripRecord) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("insert record trip=%d seq=%d: %w", r.TripID, r.Sequence, err)
	}
	return nil
}

func (s *GormStore) InsertTripPhoto(ctx context.Context, p *trip.TripPhoto) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("insert photo record=%d: %w", p.RecordID, err)
	}
	return nil
}

func (s *GormStore) InsertTripTag(ctx context.Context, tag *trip.TripTag) error {
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return fmt.Errorf("insert tag trip=%d style=%s: %w", tag.TripID, tag.Style, err)
	}
	return nil
}

// SelectTripByID returns nil, nil when the trip does not exist.
func (s *GormStore) SelectTripByID(ctx context.Context, tripID uint64) (*trip.Trip, error) {
	var t trip.Trip
	err := s.db.WithContext(ctx).Where("id = ?", tripID).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select trip %d: %w", tripID, err)
	}
	return &t, nil
}

func (s *GormStore) SelectRecordsByTripID(ctx context.Context, tripID uint64) ([]trip.TripRecord, error) {
	var records []trip.TripRecord
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("sequence ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("select records trip=%d: %w", tripID, err)
	}
	return records, nil
}

func (s *GormStore) SelectPhotosByRecordID(ctx context.Context, recordID uint64) ([]trip.TripPhoto, error) {
	var photos []trip.TripPhoto
	err := s.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("id ASC").
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("select photos record=%d: %w", recordID, err)
	}
	return photos, nil
}

func (s *GormStore) SelectTagsByTripID(ctx context.Context, tripID uint64) ([]trip.TripTag, error) {
	var tags []trip.TripTag
	err := s.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("id ASC").
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("select tags trip=%d: %w", tripID, err)
	}
	return tags, nil
}

func (s *GormStore) SelectTripListByOwner(ctx context.Context, ownerID string) ([]trip.Trip, error) {
	var trips []trip.Trip
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("select trips owner=%s: %w", ownerID, err)
	}
	return trips, nil
}

func (s *GormStore) DeleteTrip(ctx context.Context, tripID uint64) error {
	if err := s.db.WithContext(ctx).Where("id = ?", tripID).Delete(&trip.Trip{}).Error; err != nil {
		return fmt.Errorf("delete trip %d: %w", tripID, err)
	}
	return nil
}

func (s *GormStore) DeleteRecordsByTripID(ctx context.Context, tripID uint64) error {
	if err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&trip.TripRecord{}).Error; err != nil {
		return fmt.Errorf("delete records trip=%d: %w", tripID, err)
	}
	return nil
}

func (s *GormStore) DeletePhotosByRecordID(ctx context.Context, recordID uint64) error {
	if err := s.db.WithContext(ctx).Where("record_id = ?", recordID).Delete(&trip.TripPhoto{}).Error; err != nil {
		return fmt.Errorf("delete photos record=%d: %w", recordID, err)
	}
	return nil
}

func (s *GormStore) DeleteTagsByTripID(ctx context.Context, tripID uint64) error {
	if err := s.db.WithContext(ctx).Where("trip_id = ?", tripID).Delete(&trip.TripTag{}).Error; err != nil {
		return fmt.Errorf("delete tags trip=%d: %w", tripID, err)
	}
	return nil
}

// WithinTx runs fn in a database transaction; fn's error rolls it back.
func (s *GormStore) WithinTx(ctx context.Context, fn func(tx trip.RecordStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
