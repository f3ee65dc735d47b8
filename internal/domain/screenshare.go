package domain

import "time"

type ShareState int32

const (
	ShareIdle ShareState = iota
	ShareSharing
)

func (s ShareState) String() string {
	switch s {
	case ShareSharing:
		return "sharing"
	default:
		return "idle"
	}
}

// ScreenShare is the per-user share record. ConnID is the connection
// that started the share; viewers address their signaling to it.
type ScreenShare struct {
	UserID    UserID     `json:"userId"`
	FamilyID  FamilyID   `json:"familyId"`
	ConnID    string     `json:"socketId"`
	State     ShareState `json:"-"`
	StartedAt time.Time  `json:"startedAt"`
}
