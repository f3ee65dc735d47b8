package orch

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/FamilyShare/internal/app"
	"github.com/dkeye/FamilyShare/internal/app/share"
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/metrics"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/rs/zerolog/log"
)

type Options struct {
	// EchoLocation also delivers a location_update back to its sender.
	EchoLocation   bool
	PersistTimeout time.Duration
	// ValidateSignal checks relayed SDP/ICE payloads; nil accepts any.
	ValidateSignal func(core.SignalKind, json.RawMessage) error
}

// Orchestrator is the hub. Every handler goes through it; shared maps
// live behind Registry, Shares and Store.
type Orchestrator struct {
	Registry *app.Registry
	Shares   *share.Manager
	Store    storage.Store
	Policy   app.Policy
	Limiter  *app.RateLimiter
	Options  Options
}

func New(store storage.Store, policy app.Policy, limiter *app.RateLimiter, opts Options) *Orchestrator {
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 3 * time.Second
	}
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Shares:   share.NewManager(),
		Store:    store,
		Policy:   policy,
		Limiter:  limiter,
		Options:  opts,
	}
}

func (o *Orchestrator) presence() app.Presence {
	return app.Presence{Registry: o.Registry}
}

// Connect registers a new transport endpoint.
func (o *Orchestrator) Connect(id core.ConnID, sig core.SignalConnection) {
	o.Registry.Attach(id, sig)
	o.updateGauges()
}

// Disconnect is the transport-level disconnect; it is the same as leave.
func (o *Orchestrator) Disconnect(id core.ConnID) {
	o.Leave(id)
}

// broadcast sends v to the family, excluding except, and applies the
// back-pressure policy to connections whose queue was full.
func (o *Orchestrator) broadcast(fid domain.FamilyID, except core.ConnID, eventType string, v any) core.PublishResult {
	res, err := app.Broadcast(o.Registry.Peers(fid), except, v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", eventType).Msg("encode broadcast")
		return res
	}
	o.account(fid, eventType, res)
	return res
}

func (o *Orchestrator) account(fid domain.FamilyID, eventType string, res core.PublishResult) {
	metrics.Delivered.WithLabelValues(eventType).Add(float64(res.SendTo))
	if len(res.Dropped) == 0 {
		return
	}
	metrics.Dropped.WithLabelValues(eventType).Add(float64(len(res.Dropped)))
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(fid, slow) {
		case app.KickMember:
			o.KickByConn(slow)
		case app.DropFrame, app.NoAction:
		}
	}
}

// send delivers v to one connection.
func (o *Orchestrator) send(id core.ConnID, eventType string, v any) error {
	sig, ok := o.Registry.Signal(id)
	if !ok {
		return core.ErrTargetUnreachable
	}
	if err := app.Send(sig, v); err != nil {
		if ident, joined := o.Registry.IdentityOf(id); joined && errors.Is(err, core.ErrBackpressure) {
			o.account(ident.FamilyID, eventType, core.PublishResult{Dropped: []core.ConnID{id}})
		}
		return err
	}
	metrics.Delivered.WithLabelValues(eventType).Inc()
	return nil
}

// KickByConn closes the transport; its read pump then runs Disconnect.
func (o *Orchestrator) KickByConn(id core.ConnID) {
	sig, ok := o.Registry.Signal(id)
	if !ok {
		return
	}
	log.Warn().Str("module", "orch").Str("conn", string(id)).Msg("kicking slow connection")
	sig.Close()
}

func (o *Orchestrator) updateGauges() {
	attached, joined := o.Registry.Count()
	metrics.Connections.Set(float64(attached))
	metrics.JoinedConnections.Set(float64(joined))
}
