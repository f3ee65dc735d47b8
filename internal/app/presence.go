package app

import (
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
)

// Presence emits member_joined / member_left to a family room.
type Presence struct {
	Registry *Registry
}

// Joined notifies the family of ident, excluding the joining connection.
func (p Presence) Joined(conn core.ConnID, ident domain.Identity) (core.PublishResult, error) {
	return Broadcast(p.Registry.Peers(ident.FamilyID), conn, core.MemberJoined{
		Type:     core.EventMemberJoined,
		UserID:   ident.UserID,
		SocketID: conn,
	})
}

// Left notifies the family that ident went away. except is the departed
// connection; it may still be in the family under a new identity.
func (p Presence) Left(ident domain.Identity, except core.ConnID) (core.PublishResult, error) {
	return Broadcast(p.Registry.Peers(ident.FamilyID), except, core.MemberLeft{
		Type:   core.EventMemberLeft,
		UserID: ident.UserID,
	})
}
