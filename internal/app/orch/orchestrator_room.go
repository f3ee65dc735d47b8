package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join binds the connection to a user and family and announces it.
// The returned ack lists who is online and who is sharing.
func (o *Orchestrator) Join(ctx context.Context, id core.ConnID, userID, familyID, username string) (core.Joined, error) {
	ident, err := domain.NewIdentity(userID, familyID)
	if err != nil {
		return core.Joined{}, fmt.Errorf("%w: %v", core.ErrInvalidPayload, err)
	}
	member, err := domain.NewMember(ident, username)
	if err != nil {
		return core.Joined{}, fmt.Errorf("%w: %v", core.ErrInvalidPayload, err)
	}

	prev, ok := o.Registry.Join(id, ident)
	if !ok {
		return core.Joined{}, core.ErrConnClosed
	}
	if prev != nil && *prev == ident {
		// repeated join, nothing to announce
		return o.joinedAck(id, ident), nil
	}
	if prev != nil {
		// the connection already left the old family set inside Registry.Join
		o.afterDeparture(id, *prev)
	}

	res, err := o.presence().Joined(id, ident)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode member_joined")
	} else {
		o.account(ident.FamilyID, core.EventMemberJoined, res)
	}
	o.updateGauges()

	pctx, cancel := context.WithTimeout(ctx, o.Options.PersistTimeout)
	defer cancel()
	if username == "" {
		// keep a name registered earlier over the id fallback
		if stored, err := o.Store.Member(pctx, ident.UserID); err == nil && stored.Username != "" {
			member.Username = stored.Username
		}
	}
	if err := o.Store.SaveMember(pctx, member); err != nil {
		log.Error().Err(fmt.Errorf("%w: %v", core.ErrPersistence, err)).Str("module", "orch").
			Str("user", userID).Msg("save member")
	}

	return o.joinedAck(id, ident), nil
}

func (o *Orchestrator) joinedAck(id core.ConnID, ident domain.Identity) core.Joined {
	ack := core.Joined{
		Type:     core.EventJoined,
		SocketID: id,
		UserID:   ident.UserID,
		FamilyID: ident.FamilyID,
		Members:  []core.OnlineMember{},
		Sharing:  []core.ShareInfo{},
	}
	for _, p := range o.Registry.Peers(ident.FamilyID) {
		ack.Members = append(ack.Members, core.OnlineMember{UserID: p.Identity.UserID, SocketID: p.ConnID})
	}
	for _, s := range o.Shares.Active(ident.FamilyID) {
		ack.Sharing = append(ack.Sharing, core.ShareInfo{
			UserID:    s.UserID,
			SocketID:  core.ConnID(s.ConnID),
			StartedAt: s.StartedAt,
		})
	}
	return ack
}

// Leave forgets the connection and tells its family. Unknown or
// never-joined connections are ignored.
func (o *Orchestrator) Leave(id core.ConnID) {
	ident, ok := o.Registry.Leave(id)
	defer o.updateGauges()
	if !ok {
		return
	}
	o.afterDeparture(id, ident)
}

// afterDeparture runs once ident no longer owns id. On a re-join into the
// same family id is back in the set, so it is excluded from the fan-out.
func (o *Orchestrator) afterDeparture(id core.ConnID, ident domain.Identity) {
	res, err := o.presence().Left(ident, id)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode member_left")
	} else {
		o.account(ident.FamilyID, core.EventMemberLeft, res)
	}

	if _, stopped := o.Shares.StopIfConn(ident.UserID, string(id)); stopped {
		o.broadcast(ident.FamilyID, id, core.EventShareStopped, core.ShareStopped{
			Type:   core.EventShareStopped,
			UserID: ident.UserID,
		})
		o.updateShareGauge()
	}
	if !o.Registry.UserOnline(ident.FamilyID, ident.UserID) {
		o.Limiter.Forget(ident.UserID)
	}
}
