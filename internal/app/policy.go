package app

import (
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(family domain.FamilyID, conn core.ConnID) BackpressureAction
}

// SimplePolicy kicks slow consumers; they reconnect and re-seed via
// get_member_locations.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.FamilyID, core.ConnID) BackpressureAction {
	return KickMember
}

// TolerantPolicy drops the frame and keeps the connection.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.FamilyID, core.ConnID) BackpressureAction {
	return DropFrame
}

// PolicyByName maps a config value to a Policy.
func PolicyByName(name string) Policy {
	switch name {
	case "drop":
		return TolerantPolicy{}
	default:
		return SimplePolicy{}
	}
}
