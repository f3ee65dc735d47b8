// Package storage defines the persistence collaborator of the hub and
// its backends: in-memory, SQL via gorm, and Redis.
package storage

import (
	"context"
	"errors"

	"github.com/dkeye/FamilyShare/internal/domain"
)

// DefaultRetention is the number of samples kept per user.
const DefaultRetention = 1000

var ErrNotFound = errors.New("not found")

// Store is what the hub needs from durable storage. Every backend
// enforces the per-user retention cap on AppendLocation, evicting the
// oldest inserted samples first.
type Store interface {
	AppendLocation(ctx context.Context, s domain.LocationSample) error
	// LatestLocationsByFamily lists every known member of the family with
	// their most recently appended sample (nil when none).
	LatestLocationsByFamily(ctx context.Context, fid domain.FamilyID) ([]domain.MemberLocation, error)
	// LocationHistory returns up to limit samples, newest first.
	LocationHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.LocationSample, error)
	LatestLocation(ctx context.Context, uid domain.UserID) (domain.LocationSample, error)

	SaveMember(ctx context.Context, m domain.Member) error
	Member(ctx context.Context, uid domain.UserID) (domain.Member, error)
	FamilyMembers(ctx context.Context, fid domain.FamilyID) ([]domain.Member, error)

	Close() error
}

func normalizeRetention(n int) int {
	if n <= 0 {
		return DefaultRetention
	}
	return n
}

func clampLimit(limit, retention int) int {
	if limit <= 0 || limit > retention {
		return retention
	}
	return limit
}
