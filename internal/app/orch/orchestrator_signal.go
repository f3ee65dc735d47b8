package orch

import (
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Relay forwards one signaling message to a single connection of the
// sender's family. Nothing is delivered when any check fails.
func (o *Orchestrator) Relay(env core.Envelope) error {
	err := o.relay(env)
	result := "ok"
	if err != nil {
		result = core.Code(err)
	}
	metrics.Relayed.WithLabelValues(string(env.Kind), result).Inc()
	return err
}

func (o *Orchestrator) relay(env core.Envelope) error {
	from, ok := o.Registry.IdentityOf(env.From)
	if !ok {
		return core.ErrNotJoined
	}
	target, ok := o.Registry.IdentityOf(env.Target)
	if !ok || target.FamilyID != from.FamilyID {
		return core.ErrTargetUnreachable
	}
	if o.Options.ValidateSignal != nil {
		if err := o.Options.ValidateSignal(env.Kind, env.Payload); err != nil {
			return err
		}
	}

	msg := core.Relayed{
		Type:         env.Kind.EventType(),
		FromUserID:   from.UserID,
		FromSocketID: env.From,
	}
	switch env.Kind {
	case core.KindOffer:
		msg.Offer = env.Payload
	case core.KindAnswer:
		msg.Answer = env.Payload
	default:
		msg.Candidate = env.Payload
	}

	if err := o.send(env.Target, msg.Type, msg); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("from", string(env.From)).
			Str("target", string(env.Target)).Str("kind", string(env.Kind)).Msg("relay not delivered")
		return core.ErrTargetUnreachable
	}
	return nil
}
