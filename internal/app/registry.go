package app

import (
	"sort"
	"sync"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Signal   core.SignalConnection
	Identity *domain.Identity
}

// Registry is the authority for who is online and in which family.
// conns and families are updated under the same lock, so MembersOf
// never lags a completed Join or Leave.
type Registry struct {
	mu       sync.RWMutex
	conns    map[core.ConnID]*connEntry
	families map[domain.FamilyID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[core.ConnID]*connEntry),
		families: make(map[domain.FamilyID]map[core.ConnID]struct{}),
	}
}

// Attach records a live transport endpoint that has not joined yet.
func (r *Registry) Attach(id core.ConnID, sig core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Signal = sig
		return
	}
	r.conns[id] = &connEntry{Signal: sig}
	log.Debug().Str("module", "app.registry").Str("conn", string(id)).Msg("attached connection")
}

// Join binds an identity to an attached connection. Re-joining overwrites
// the previous identity; prev is returned so the caller can notify the old
// family. ok is false when the connection is not attached.
func (r *Registry) Join(id core.ConnID, ident domain.Identity) (prev *domain.Identity, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	prev = e.Identity
	if prev != nil {
		r.removeFromFamily(prev.FamilyID, id)
	}
	set, exists := r.families[ident.FamilyID]
	if !exists {
		set = make(map[core.ConnID]struct{})
		r.families[ident.FamilyID] = set
	}
	set[id] = struct{}{}
	joined := ident
	e.Identity = &joined
	log.Info().Str("module", "app.registry").Str("conn", string(id)).
		Str("user", string(ident.UserID)).Str("family", string(ident.FamilyID)).Msg("joined family")
	return prev, true
}

// Leave forgets the connection entirely. Unknown ids are ignored:
// disconnects can race with other cleanup.
func (r *Registry) Leave(id core.ConnID) (domain.Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.Identity{}, false
	}
	delete(r.conns, id)
	if e.Identity == nil {
		return domain.Identity{}, false
	}
	r.removeFromFamily(e.Identity.FamilyID, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).
		Str("user", string(e.Identity.UserID)).Msg("left family")
	return *e.Identity, true
}

func (r *Registry) removeFromFamily(fid domain.FamilyID, id core.ConnID) {
	set, ok := r.families[fid]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.families, fid)
	}
}

// MembersOf returns the live connection ids of a family, sorted.
func (r *Registry) MembersOf(fid domain.FamilyID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.families[fid]
	out := make([]core.ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Peers snapshots every joined connection of a family.
func (r *Registry) Peers(fid domain.FamilyID) []core.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.families[fid]
	out := make([]core.Peer, 0, len(set))
	for id := range set {
		e := r.conns[id]
		out = append(out, core.Peer{ConnID: id, Identity: *e.Identity, Signal: e.Signal})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnID < out[j].ConnID })
	return out
}

func (r *Registry) IdentityOf(id core.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Identity == nil {
		return domain.Identity{}, false
	}
	return *e.Identity, true
}

// Peer returns the snapshot of a joined connection.
func (r *Registry) Peer(id core.ConnID) (core.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Identity == nil {
		return core.Peer{}, false
	}
	return core.Peer{ConnID: id, Identity: *e.Identity, Signal: e.Signal}, true
}

// Signal returns the transport endpoint of any attached connection.
func (r *Registry) Signal(id core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Signal, true
}

// UserOnline reports whether user has any live connection in the family.
func (r *Registry) UserOnline(fid domain.FamilyID, uid domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id := range r.families[fid] {
		if r.conns[id].Identity.UserID == uid {
			return true
		}
	}
	return false
}

// Count returns attached and joined connection totals.
func (r *Registry) Count() (attached, joined int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, set := range r.families {
		joined += len(set)
	}
	return len(r.conns), joined
}
