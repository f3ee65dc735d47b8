package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/FamilyShare/internal/domain"
)

// Memory keeps everything in process. Samples per user are stored in
// insertion order; the oldest are evicted once retention is exceeded.
type Memory struct {
	mu        sync.RWMutex
	retention int
	locations map[domain.UserID][]domain.LocationSample
	members   map[domain.UserID]domain.Member
}

var _ Store = (*Memory)(nil)

func NewMemory(retention int) *Memory {
	return &Memory{
		retention: normalizeRetention(retention),
		locations: make(map[domain.UserID][]domain.LocationSample),
		members:   make(map[domain.UserID]domain.Member),
	}
}

func (m *Memory) AppendLocation(_ context.Context, s domain.LocationSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append(m.locations[s.UserID], s)
	if over := len(list) - m.retention; over > 0 {
		// copy so the evicted prefix can be collected
		list = append([]domain.LocationSample(nil), list[over:]...)
	}
	m.locations[s.UserID] = list
	return nil
}

func (m *Memory) LatestLocationsByFamily(_ context.Context, fid domain.FamilyID) ([]domain.MemberLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MemberLocation, 0)
	for _, mem := range m.familyLocked(fid) {
		ml := domain.MemberLocation{UserID: mem.UserID, Username: mem.Username}
		if list := m.locations[mem.UserID]; len(list) > 0 {
			last := list[len(list)-1]
			ml.Latest = &last
			ml.LocationCount = len(list)
		}
		out = append(out, ml)
	}
	return out, nil
}

func (m *Memory) LocationHistory(_ context.Context, uid domain.UserID, limit int) ([]domain.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.locations[uid]
	limit = clampLimit(limit, m.retention)
	if limit > len(list) {
		limit = len(list)
	}
	out := make([]domain.LocationSample, 0, limit)
	for i := len(list) - 1; i >= len(list)-limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (m *Memory) LatestLocation(_ context.Context, uid domain.UserID) (domain.LocationSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.locations[uid]
	if len(list) == 0 {
		return domain.LocationSample{}, ErrNotFound
	}
	return list[len(list)-1], nil
}

func (m *Memory) SaveMember(_ context.Context, mem domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[mem.UserID] = mem
	return nil
}

func (m *Memory) Member(_ context.Context, uid domain.UserID) (domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mem, ok := m.members[uid]
	if !ok {
		return domain.Member{}, ErrNotFound
	}
	return mem, nil
}

func (m *Memory) FamilyMembers(_ context.Context, fid domain.FamilyID) ([]domain.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.familyLocked(fid), nil
}

func (m *Memory) familyLocked(fid domain.FamilyID) []domain.Member {
	out := make([]domain.Member, 0)
	for _, mem := range m.members {
		if mem.FamilyID == fid {
			out = append(out, mem)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (m *Memory) Close() error { return nil }
