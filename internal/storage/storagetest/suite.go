// Package storagetest is the behaviour every storage.Store backend must
// share. Backends call Run from their own tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store with the given retention.
type Factory func(t *testing.T, retention int) storage.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("members", func(t *testing.T) { testMembers(t, newStore(t, 0)) })
	t.Run("history", func(t *testing.T) { testHistory(t, newStore(t, 0)) })
	t.Run("retention", func(t *testing.T) { testRetention(t, newStore(t, 5)) })
	t.Run("latest_per_member", func(t *testing.T) { testLatestPerMember(t, newStore(t, 0)) })
}

func sampleAt(uid domain.UserID, i int) domain.LocationSample {
	ts := time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC)
	return domain.NewLocationSample(uid, float64(i%90), float64(i%180), float64(i), ts)
}

func testMembers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.Member(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u2", Username: "Bo", FamilyID: "f1"}))
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u1", Username: "Al", FamilyID: "f1"}))
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u3", Username: "Cy", FamilyID: "f2"}))

	got, err := s.FamilyMembers(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.UserID("u1"), got[0].UserID)
	assert.Equal(t, "Bo", got[1].Username)

	// moving a member updates both families
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u2", Username: "Bob", FamilyID: "f2"}))
	got, err = s.FamilyMembers(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	m, err := s.Member(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.Member{UserID: "u2", Username: "Bob", FamilyID: "f2"}, m)
}

func testHistory(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.LatestLocation(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var last domain.LocationSample
	for i := 0; i < 10; i++ {
		last = sampleAt("u1", i)
		require.NoError(t, s.AppendLocation(ctx, last))
	}
	require.NoError(t, s.AppendLocation(ctx, sampleAt("u2", 0)))

	latest, err := s.LatestLocation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, last.ID, latest.ID)
	assert.True(t, last.Timestamp.Equal(latest.Timestamp))

	hist, err := s.LocationHistory(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, last.ID, hist[0].ID, "newest first")
	assert.Equal(t, 8.0, hist[1].Accuracy)

	all, err := s.LocationHistory(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	none, err := s.LocationHistory(ctx, "ghost", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testRetention(t *testing.T, s storage.Store) {
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, s.AppendLocation(ctx, sampleAt("u1", i)))
	}
	hist, err := s.LocationHistory(ctx, "u1", 100)
	require.NoError(t, err)
	require.Len(t, hist, 5)
	for j, smp := range hist {
		assert.Equal(t, float64(11-j), smp.Accuracy, fmt.Sprintf("position %d", j))
	}
}

func testLatestPerMember(t *testing.T, s storage.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u1", Username: "Al", FamilyID: "f1"}))
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "u2", Username: "Bo", FamilyID: "f1"}))
	require.NoError(t, s.SaveMember(ctx, domain.Member{UserID: "x", Username: "X", FamilyID: "f2"}))
	require.NoError(t, s.AppendLocation(ctx, sampleAt("u1", 1)))
	newest := sampleAt("u1", 2)
	require.NoError(t, s.AppendLocation(ctx, newest))
	require.NoError(t, s.AppendLocation(ctx, sampleAt("x", 1)))

	locs, err := s.LatestLocationsByFamily(ctx, "f1")
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "Al", locs[0].Username)
	require.NotNil(t, locs[0].Latest)
	assert.Equal(t, newest.ID, locs[0].Latest.ID)
	assert.Equal(t, 2, locs[0].LocationCount)
	assert.Nil(t, locs[1].Latest)
	assert.Equal(t, 0, locs[1].LocationCount)
}
