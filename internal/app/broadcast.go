package app

import (
	"errors"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/rs/zerolog/log"
)

// Broadcast encodes v once and offers it to every peer except one.
// Closed connections are skipped silently; full queues are reported
// in Dropped for the back-pressure policy.
func Broadcast(peers []core.Peer, except core.ConnID, v any) (core.PublishResult, error) {
	res := core.PublishResult{}
	frame, err := core.Encode(v)
	if err != nil {
		return res, err
	}
	for _, p := range peers {
		if p.ConnID == except {
			continue
		}
		if err := p.Signal.TrySend(frame); err != nil {
			if errors.Is(err, core.ErrBackpressure) {
				res.Dropped = append(res.Dropped, p.ConnID)
			}
			continue
		}
		res.SendTo++
	}
	log.Debug().Str("module", "app.broadcast").Str("except", string(except)).
		Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res, nil
}

// Send encodes v and offers it to a single connection.
func Send(sig core.SignalConnection, v any) error {
	frame, err := core.Encode(v)
	if err != nil {
		return err
	}
	return sig.TrySend(frame)
}
