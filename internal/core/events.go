package core

import (
	"encoding/json"
	"time"

	"github.com/dkeye/FamilyShare/internal/domain"
)

// Outbound event types.
const (
	EventWelcome         = "welcome"
	EventJoined          = "joined"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventLocationUpdate  = "location_update"
	EventMemberLocations = "member_locations"
	EventShareStarted    = "screen_share_started"
	EventShareStopped    = "screen_share_stopped"
	EventStreamRequest   = "screen_stream_request"
	EventStreamOffer     = "screen_stream_offer"
	EventStreamAnswer    = "screen_stream_answer"
	EventICECandidate    = "ice_candidate"
	EventPong            = "pong"
	EventError           = "error"
)

type MemberJoined struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	SocketID ConnID        `json:"socketId"`
}

type MemberLeft struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type LocationUpdate struct {
	Type      string        `json:"type"`
	UserID    domain.UserID `json:"userId"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Accuracy  float64       `json:"accuracy"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewLocationUpdate(s domain.LocationSample) LocationUpdate {
	return LocationUpdate{
		Type:      EventLocationUpdate,
		UserID:    s.UserID,
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Accuracy:  s.Accuracy,
		Timestamp: s.Timestamp,
	}
}

type MemberLocations struct {
	Type      string                  `json:"type"`
	Locations []domain.MemberLocation `json:"locations"`
}

type ShareStarted struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	SocketID ConnID        `json:"socketId"`
}

type ShareStopped struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type StreamRequest struct {
	Type              string        `json:"type"`
	RequesterID       domain.UserID `json:"requesterId"`
	RequesterSocketID ConnID        `json:"requesterSocketId"`
	TargetUserID      domain.UserID `json:"targetUserId,omitempty"`
}

// Relayed is the point-to-point signaling delivery. Exactly one of
// Offer, Answer, Candidate is set, matching Type.
type Relayed struct {
	Type         string          `json:"type"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	FromSocketID ConnID          `json:"fromSocketId"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

type Joined struct {
	Type     string          `json:"type"`
	SocketID ConnID          `json:"socketId"`
	UserID   domain.UserID   `json:"userId"`
	FamilyID domain.FamilyID `json:"familyId"`
	Members  []OnlineMember  `json:"members"`
	Sharing  []ShareInfo     `json:"sharing"`
}

type OnlineMember struct {
	UserID   domain.UserID `json:"userId"`
	SocketID ConnID        `json:"socketId"`
}

type ShareInfo struct {
	UserID    domain.UserID `json:"userId"`
	SocketID  ConnID        `json:"socketId"`
	StartedAt time.Time     `json:"startedAt"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Encode marshals an event into a frame.
func Encode(v any) (Frame, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}
