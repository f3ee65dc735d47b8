// Package gormstore keeps locations and the member directory in a SQL
// database through gorm (SQLite or Postgres).
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	db        *gorm.DB
	retention int
}

var _ storage.Store = (*Store)(nil)

// Open connects with the named driver ("sqlite" or "postgres") and
// migrates the schema.
func Open(driver, dsn string, retention int) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db, retention)
}

// New wraps an open handle and migrates the schema.
func New(db *gorm.DB, retention int) (*Store, error) {
	if err := db.AutoMigrate(&locationRecord{}, &memberRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if retention <= 0 {
		retention = storage.DefaultRetention
	}
	return &Store{db: db, retention: retention}, nil
}

func (s *Store) AppendLocation(ctx context.Context, sample domain.LocationSample) error {
	rec := locationRecord{
		ID:        sample.ID,
		UserID:    string(sample.UserID),
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Accuracy:  sample.Accuracy,
		Timestamp: sample.Timestamp,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		// the retention-th newest row and everything older than it goes
		var cutoff []uint64
		if err := tx.Model(&locationRecord{}).
			Where("user_id = ?", rec.UserID).
			Order("seq desc").
			Offset(s.retention).
			Limit(1).
			Pluck("seq", &cutoff).Error; err != nil {
			return fmt.Errorf("failed to find retention cutoff: %w", err)
		}
		if len(cutoff) == 0 {
			return nil
		}
		if err := tx.Where("user_id = ? AND seq <= ?", rec.UserID, cutoff[0]).
			Delete(&locationRecord{}).Error; err != nil {
			return fmt.Errorf("failed to evict locations: %w", err)
		}
		return nil
	})
	return err
}

func (s *Store) LatestLocationsByFamily(ctx context.Context, fid domain.FamilyID) ([]domain.MemberLocation, error) {
	members, err := s.FamilyMembers(ctx, fid)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MemberLocation, 0, len(members))
	for _, m := range members {
		ml := domain.MemberLocation{UserID: m.UserID, Username: m.Username}
		latest, err := s.LatestLocation(ctx, m.UserID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return nil, err
		default:
			ml.Latest = &latest
			var count int64
			if err := s.db.WithContext(ctx).Model(&locationRecord{}).
				Where("user_id = ?", string(m.UserID)).Count(&count).Error; err != nil {
				return nil, fmt.Errorf("failed to count locations: %w", err)
			}
			ml.LocationCount = int(count)
		}
		out = append(out, ml)
	}
	return out, nil
}

func (s *Store) LocationHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.LocationSample, error) {
	if limit <= 0 || limit > s.retention {
		limit = s.retention
	}
	var recs []locationRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", string(uid)).
		Order("seq desc").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find locations: %w", err)
	}
	out := make([]domain.LocationSample, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) LatestLocation(ctx context.Context, uid domain.UserID) (domain.LocationSample, error) {
	var rec locationRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", string(uid)).
		Order("seq desc").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LocationSample{}, storage.ErrNotFound
		}
		return domain.LocationSample{}, fmt.Errorf("failed to find latest location: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) SaveMember(ctx context.Context, m domain.Member) error {
	rec := memberRecord{
		UserID:   string(m.UserID),
		Username: m.Username,
		FamilyID: string(m.FamilyID),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "family_id", "updated_at"}),
	}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (s *Store) Member(ctx context.Context, uid domain.UserID) (domain.Member, error) {
	var rec memberRecord
	if err := s.db.WithContext(ctx).First(&rec, "user_id = ?", string(uid)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Member{}, storage.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("failed to find member: %w", err)
	}
	return rec.toDomain(), nil
}

func (s *Store) FamilyMembers(ctx context.Context, fid domain.FamilyID) ([]domain.Member, error) {
	var recs []memberRecord
	if err := s.db.WithContext(ctx).
		Where("family_id = ?", string(fid)).
		Order("user_id").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to find members: %w", err)
	}
	out := make([]domain.Member, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
