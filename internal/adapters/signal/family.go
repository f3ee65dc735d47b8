package signal

import (
	"context"

	"github.com/dkeye/FamilyShare/internal/app/orch"
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) error {
	type joinPayload struct {
		Type     string `json:"type"`
		UserID   string `json:"userId"`
		FamilyID string `json:"familyId"`
		Username string `json:"username,omitempty"`
	}
	var p joinPayload
	if err := decode(data, &p); err != nil {
		return err
	}

	ack, err := ctl.Orch.Join(ctx, conn.id, p.UserID, p.FamilyID, p.Username)
	if err != nil {
		return err
	}
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).
		Str("user", p.UserID).Str("family", p.FamilyID).Msg("join")
	ctl.sendJSON(conn, ack)
	return nil
}

func (ctl *SignalWSController) handleUpdateLocation(
	ctx context.Context,
	conn *WsSignalConn,
	data []byte,
) error {
	// userId in the payload is informational; the sender is whoever
	// joined on this connection.
	type locationPayload struct {
		Type      string   `json:"type"`
		UserID    string   `json:"userId,omitempty"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Accuracy  float64  `json:"accuracy"`
	}
	var p locationPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if p.Latitude == nil || p.Longitude == nil {
		return core.ErrInvalidPayload
	}

	_, err := ctl.Orch.SubmitLocation(ctx, conn.id, orch.Position{
		Latitude:  *p.Latitude,
		Longitude: *p.Longitude,
		Accuracy:  p.Accuracy,
	})
	return err
}

func (ctl *SignalWSController) handleMemberLocations(
	ctx context.Context,
	conn *WsSignalConn,
) error {
	locs, err := ctl.Orch.MemberLocations(ctx, conn.id)
	if err != nil {
		return err
	}
	ctl.sendJSON(conn, core.MemberLocations{
		Type:      core.EventMemberLocations,
		Locations: locs,
	})
	return nil
}
