package gormstore

import (
	"time"

	"github.com/dkeye/FamilyShare/internal/domain"
)

// locationRecord is one stored sample. Seq is the insertion order used
// for retention and for breaking timestamp ties.
type locationRecord struct {
	Seq       uint64    `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"size:36;uniqueIndex;not null"`
	UserID    string    `gorm:"size:64;index;not null"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
	Accuracy  float64   `gorm:"not null;default:0"`
	Timestamp time.Time `gorm:"not null"`
}

func (locationRecord) TableName() string {
	return "locations"
}

func (r locationRecord) toDomain() domain.LocationSample {
	return domain.LocationSample{
		ID:        r.ID,
		UserID:    domain.UserID(r.UserID),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Accuracy:  r.Accuracy,
		Timestamp: r.Timestamp.UTC(),
	}
}

type memberRecord struct {
	UserID    string    `gorm:"primaryKey;size:64"`
	Username  string    `gorm:"size:64;not null"`
	FamilyID  string    `gorm:"size:64;index;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (memberRecord) TableName() string {
	return "members"
}

func (r memberRecord) toDomain() domain.Member {
	return domain.Member{
		UserID:   domain.UserID(r.UserID),
		Username: r.Username,
		FamilyID: domain.FamilyID(r.FamilyID),
	}
}
