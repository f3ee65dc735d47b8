package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/FamilyShare/internal/app"
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	if f.full {
		return core.ErrBackpressure
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// events decodes every received frame as a generic map.
func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(fr, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) ofType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ev := range f.events(t) {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

// failingStore rejects every write.
type failingStore struct {
	storage.Store
}

func (failingStore) AppendLocation(context.Context, domain.LocationSample) error {
	return errors.New("disk full")
}

func (failingStore) SaveMember(context.Context, domain.Member) error {
	return errors.New("disk full")
}

func newTestHub(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	if opts.PersistTimeout == 0 {
		opts.PersistTimeout = time.Second
	}
	return New(storage.NewMemory(0), app.SimplePolicy{}, nil, opts)
}

// joinConn attaches a fake connection and joins it.
func joinConn(t *testing.T, o *Orchestrator, id core.ConnID, user, family string) *fakeConn {
	t.Helper()
	c := &fakeConn{}
	o.Connect(id, c)
	_, err := o.Join(context.Background(), id, user, family, "")
	require.NoError(t, err)
	return c
}
