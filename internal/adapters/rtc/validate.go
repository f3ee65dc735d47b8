// Package rtc holds the WebRTC bits the hub needs without terminating
// media: ICE server configuration and signaling payload checks.
package rtc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// Validate checks that payload is a well-formed description or
// candidate for kind. Errors wrap core.ErrInvalidPayload.
func Validate(kind core.SignalKind, payload json.RawMessage) error {
	if len(payload) == 0 || string(payload) == "null" {
		return fmt.Errorf("%w: empty %s", core.ErrInvalidPayload, kind)
	}
	switch kind {
	case core.KindOffer:
		return validateDescription(webrtc.SDPTypeOffer, payload)
	case core.KindAnswer:
		return validateDescription(webrtc.SDPTypeAnswer, payload)
	case core.KindCandidate:
		return validateCandidate(payload)
	default:
		return fmt.Errorf("%w: unknown kind %q", core.ErrInvalidPayload, kind)
	}
}

func validateDescription(want webrtc.SDPType, payload json.RawMessage) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(payload, &desc); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrInvalidPayload, want, err)
	}
	if desc.Type != want {
		return fmt.Errorf("%w: expected %s, got %s", core.ErrInvalidPayload, want, desc.Type)
	}
	var parsed sdp.SessionDescription
	if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
		return fmt.Errorf("%w: sdp: %v", core.ErrInvalidPayload, err)
	}
	return nil
}

// An empty candidate string is the end-of-candidates marker and passes.
func validateCandidate(payload json.RawMessage) error {
	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &cand); err != nil {
		return fmt.Errorf("%w: candidate: %v", core.ErrInvalidPayload, err)
	}
	if cand.Candidate != "" && !strings.HasPrefix(cand.Candidate, "candidate:") {
		return fmt.Errorf("%w: malformed candidate", core.ErrInvalidPayload)
	}
	return nil
}
