package core

import "encoding/json"

type SignalKind string

const (
	KindOffer     SignalKind = "offer"
	KindAnswer    SignalKind = "answer"
	KindCandidate SignalKind = "candidate"
)

// EventType is the outbound event a kind is delivered as.
func (k SignalKind) EventType() string {
	switch k {
	case KindOffer:
		return EventStreamOffer
	case KindAnswer:
		return EventStreamAnswer
	default:
		return EventICECandidate
	}
}

// Envelope is one relay hop. It is never stored.
type Envelope struct {
	Kind    SignalKind
	From    ConnID
	Target  ConnID
	Payload json.RawMessage
}
