package signal

import (
	"encoding/json"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
)

func (ctl *SignalWSController) handleStreamRequest(
	conn *WsSignalConn,
	data []byte,
) error {
	type requestPayload struct {
		Type         string `json:"type"`
		TargetUserID string `json:"targetUserId,omitempty"`
	}
	var p requestPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	return ctl.Orch.RequestShare(conn.id, domain.UserID(p.TargetUserID))
}

// handleRelay covers screen_stream_offer, screen_stream_answer and
// ice_candidate; only the payload field name differs.
func (ctl *SignalWSController) handleRelay(
	conn *WsSignalConn,
	kind core.SignalKind,
	data []byte,
) error {
	type relayPayload struct {
		Type           string          `json:"type"`
		TargetSocketID string          `json:"targetSocketId"`
		Offer          json.RawMessage `json:"offer,omitempty"`
		Answer         json.RawMessage `json:"answer,omitempty"`
		Candidate      json.RawMessage `json:"candidate,omitempty"`
	}
	var p relayPayload
	if err := decode(data, &p); err != nil {
		return err
	}

	env := core.Envelope{
		Kind:   kind,
		From:   conn.id,
		Target: core.ConnID(p.TargetSocketID),
	}
	switch kind {
	case core.KindOffer:
		env.Payload = p.Offer
	case core.KindAnswer:
		env.Payload = p.Answer
	default:
		env.Payload = p.Candidate
	}
	return ctl.Orch.Relay(env)
}
