// Package redisstore keeps locations in Redis lists, newest first.
// LPUSH followed by LTRIM gives FIFO eviction by insertion order.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb       *redis.Client
	retention int
}

var _ storage.Store = (*Store)(nil)

func Open(ctx context.Context, addr string, retention int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return New(rdb, retention), nil
}

func New(rdb *redis.Client, retention int) *Store {
	if retention <= 0 {
		retention = storage.DefaultRetention
	}
	return &Store{rdb: rdb, retention: retention}
}

func locationsKey(uid domain.UserID) string { return "loc:" + string(uid) }
func memberKey(uid domain.UserID) string    { return "member:" + string(uid) }
func familyKey(fid domain.FamilyID) string  { return "family:" + string(fid) + ":members" }

func (s *Store) AppendLocation(ctx context.Context, sample domain.LocationSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	key := locationsKey(sample.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(s.retention-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append location: %w", err)
	}
	return nil
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
			n, err := s.rdb.LLen(ctx, locationsKey(m.UserID)).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to count locations: %w", err)
			}
			ml.LocationCount = int(n)
		}
		out = append(out, ml)
	}
	return out, nil
}

func (s *Store) LocationHistory(ctx context.Context, uid domain.UserID, limit int) ([]domain.LocationSample, error) {
	if limit <= 0 || limit > s.retention {
		limit = s.retention
	}
	raw, err := s.rdb.LRange(ctx, locationsKey(uid), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read locations: %w", err)
	}
	out := make([]domain.LocationSample, 0, len(raw))
	for _, r := range raw {
		var sample domain.LocationSample
		if err := json.Unmarshal([]byte(r), &sample); err != nil {
			return nil, fmt.Errorf("failed to decode location: %w", err)
		}
		out = append(out, sample)
	}
	return out, nil
}

func (s *Store) LatestLocation(ctx context.Context, uid domain.UserID) (domain.LocationSample, error) {
	raw, err := s.rdb.LIndex(ctx, locationsKey(uid), 0).Result()
	if errors.Is(err, redis.Nil) {
		return domain.LocationSample{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.LocationSample{}, fmt.Errorf("failed to read latest location: %w", err)
	}
	var sample domain.LocationSample
	if err := json.Unmarshal([]byte(raw), &sample); err != nil {
		return domain.LocationSample{}, fmt.Errorf("failed to decode location: %w", err)
	}
	return sample, nil
}

func (s *Store) SaveMember(ctx context.Context, m domain.Member) error {
	oldFamily, err := s.rdb.HGet(ctx, memberKey(m.UserID), "familyId").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read member: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if oldFamily != "" && oldFamily != string(m.FamilyID) {
			pipe.SRem(ctx, familyKey(domain.FamilyID(oldFamily)), string(m.UserID))
		}
		pipe.HSet(ctx, memberKey(m.UserID), "username", m.Username, "familyId", string(m.FamilyID))
		pipe.SAdd(ctx, familyKey(m.FamilyID), string(m.UserID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

func (s *Store) Member(ctx context.Context, uid domain.UserID) (domain.Member, error) {
	fields, err := s.rdb.HGetAll(ctx, memberKey(uid)).Result()
	if err != nil {
		return domain.Member{}, fmt.Errorf("failed to read member: %w", err)
	}
	if len(fields) == 0 {
		return domain.Member{}, storage.ErrNotFound
	}
	return domain.Member{
		UserID:   uid,
		Username: fields["username"],
		FamilyID: domain.FamilyID(fields["familyId"]),
	}, nil
}

func (s *Store) FamilyMembers(ctx context.Context, fid domain.FamilyID) ([]domain.Member, error) {
	ids, err := s.rdb.SMembers(ctx, familyKey(fid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read family: %w", err)
	}
	sort.Strings(ids)
	out := make([]domain.Member, 0, len(ids))
	for _, id := range ids {
		m, err := s.Member(ctx, domain.UserID(id))
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
