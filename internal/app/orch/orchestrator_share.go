package orch

import (
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/metrics"
)

// StartShare marks the caller's user as sharing from this connection.
func (o *Orchestrator) StartShare(id core.ConnID) (domain.ScreenShare, error) {
	ident, ok := o.Registry.IdentityOf(id)
	if !ok {
		return domain.ScreenShare{}, core.ErrNotJoined
	}
	sess, _ := o.Shares.Start(ident, string(id))
	o.updateShareGauge()
	o.broadcast(ident.FamilyID, id, core.EventShareStarted, core.ShareStarted{
		Type:     core.EventShareStarted,
		UserID:   ident.UserID,
		SocketID: id,
	})
	return sess, nil
}

// StopShare returns the caller's user to Idle. Stopping while Idle changes
// nothing but is still announced.
func (o *Orchestrator) StopShare(id core.ConnID) (domain.ScreenShare, error) {
	ident, ok := o.Registry.IdentityOf(id)
	if !ok {
		return domain.ScreenShare{}, core.ErrNotJoined
	}
	sess, wasSharing := o.Shares.Stop(ident.UserID)
	if wasSharing {
		o.updateShareGauge()
	}
	o.broadcast(ident.FamilyID, id, core.EventShareStopped, core.ShareStopped{
		Type:   core.EventShareStopped,
		UserID: ident.UserID,
	})
	return sess, nil
}

// RequestShare asks the family (or one member of it) to start sharing.
// No state changes; the request is only relayed.
func (o *Orchestrator) RequestShare(id core.ConnID, target domain.UserID) error {
	ident, ok := o.Registry.IdentityOf(id)
	if !ok {
		return core.ErrNotJoined
	}
	if target != "" && !o.Registry.UserOnline(ident.FamilyID, target) {
		return core.ErrTargetUnreachable
	}
	o.broadcast(ident.FamilyID, id, core.EventStreamRequest, core.StreamRequest{
		Type:              core.EventStreamRequest,
		RequesterID:       ident.UserID,
		RequesterSocketID: id,
		TargetUserID:      target,
	})
	return nil
}

func (o *Orchestrator) updateShareGauge() {
	metrics.ActiveShares.Set(float64(o.Shares.Count()))
}
