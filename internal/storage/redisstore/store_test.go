package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/dkeye/FamilyShare/internal/storage/storagetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, retention int) storage.Store {
		_, rdb := setupTestRedis(t)
		return New(rdb, retention)
	})
}

func TestAppendLocation_TrimsList(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := New(rdb, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendLocation(ctx, domain.NewLocationSample("u1", 0, 0, float64(i), domainTime(i))))
	}
	list, err := mr.List("loc:u1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestOpen_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = Open(context.Background(), addr, 0)
	assert.Error(t, err)
}

func domainTime(i int) time.Time {
	return time.Unix(int64(1_700_000_000+i), 0)
}
