// Package share holds the per-user screen-share state machine.
// States are Idle and Sharing; every transition goes through Manager.
package share

import (
	"sort"
	"sync"
	"time"

	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/rs/zerolog/log"
)

type Manager struct {
	mu       sync.RWMutex
	sessions map[domain.UserID]*domain.ScreenShare
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[domain.UserID]*domain.ScreenShare),
		now:      time.Now,
	}
}

// Start moves the user to Sharing, replacing any prior record.
// Starting while already sharing only resets StartedAt and the owning
// connection; restarted reports that case.
func (m *Manager) Start(id domain.Identity, connID string) (sess domain.ScreenShare, restarted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.sessions[id.UserID]; ok && old.State == domain.ShareSharing {
		restarted = true
	}
	s := &domain.ScreenShare{
		UserID:    id.UserID,
		FamilyID:  id.FamilyID,
		ConnID:    connID,
		State:     domain.ShareSharing,
		StartedAt: m.now().UTC(),
	}
	m.sessions[id.UserID] = s
	log.Info().Str("module", "app.share").Str("user", string(id.UserID)).
		Str("conn", connID).Bool("restarted", restarted).Msg("share started")
	return *s, restarted
}

// Stop moves the user to Idle. wasSharing is false when the user was
// already Idle or never shared.
func (m *Manager) Stop(uid domain.UserID) (sess domain.ScreenShare, wasSharing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	if !ok {
		return domain.ScreenShare{UserID: uid, State: domain.ShareIdle}, false
	}
	wasSharing = s.State == domain.ShareSharing
	s.State = domain.ShareIdle
	if wasSharing {
		log.Info().Str("module", "app.share").Str("user", string(uid)).
			Dur("duration", m.now().Sub(s.StartedAt)).Msg("share stopped")
	}
	return *s, wasSharing
}

// StopIfConn stops the share only while it is owned by connID, so a newer
// share started from another connection survives.
func (m *Manager) StopIfConn(uid domain.UserID, connID string) (sess domain.ScreenShare, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	if !ok || s.State != domain.ShareSharing || s.ConnID != connID {
		return m.snapshotLocked(uid), false
	}
	s.State = domain.ShareIdle
	log.Info().Str("module", "app.share").Str("user", string(uid)).
		Str("conn", connID).Msg("share stopped with its connection")
	return *s, true
}

func (m *Manager) snapshotLocked(uid domain.UserID) domain.ScreenShare {
	if s, ok := m.sessions[uid]; ok {
		return *s
	}
	return domain.ScreenShare{UserID: uid, State: domain.ShareIdle}
}

// State returns the current record; users without one are Idle.
func (m *Manager) State(uid domain.UserID) domain.ScreenShare {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(uid)
}

// Active lists users of a family that are currently sharing.
func (m *Manager) Active(fid domain.FamilyID) []domain.ScreenShare {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ScreenShare, 0)
	for _, s := range m.sessions {
		if s.FamilyID == fid && s.State == domain.ShareSharing {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Count is the number of users currently sharing, across families.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.State == domain.ShareSharing {
			n++
		}
	}
	return n
}
