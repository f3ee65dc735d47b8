package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		ctl.Orch.Disconnect(c.id)
		c.Close()
		cancel()
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(ctl.Opts.PongWait))
			ctl.handleSignal(ctx, c, data)
		}
	}
}

var errUnknownType = errors.New("unknown_type")

func (ctl *SignalWSController) handleSignal(ctx context.Context, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad json")
		ctl.sendError(c, "", core.ErrInvalidPayload)
		return
	}

	var err error
	switch env.Type {
	case "join":
		err = ctl.handleJoin(ctx, c, data)
	case "update_location":
		err = ctl.handleUpdateLocation(ctx, c, data)
	case "get_member_locations":
		err = ctl.handleMemberLocations(ctx, c)
	case "start_screen_share":
		_, err = ctl.Orch.StartShare(c.id)
	case "stop_screen_share":
		_, err = ctl.Orch.StopShare(c.id)
	case "request_screen_stream":
		err = ctl.handleStreamRequest(c, data)
	case "screen_stream_offer":
		err = ctl.handleRelay(c, core.KindOffer, data)
	case "screen_stream_answer":
		err = ctl.handleRelay(c, core.KindAnswer, data)
	case "ice_candidate":
		err = ctl.handleRelay(c, core.KindCandidate, data)
	case "ping":
		ctl.sendJSON(c, map[string]string{"type": core.EventPong})
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		err = errUnknownType
	}

	result := "ok"
	if err != nil {
		result = errorCode(err)
		ctl.sendError(c, env.Type, err)
	}
	metrics.InboundEvents.WithLabelValues(eventLabel(env.Type), result).Inc()
}

// eventLabel keeps arbitrary client types out of metric labels.
func eventLabel(t string) string {
	switch t {
	case "join", "update_location", "get_member_locations", "start_screen_share",
		"stop_screen_share", "request_screen_stream", "screen_stream_offer",
		"screen_stream_answer", "ice_candidate", "ping":
		return t
	}
	return "unknown"
}

func errorCode(err error) string {
	if errors.Is(err, errUnknownType) {
		return "unknown_type"
	}
	return core.Code(err)
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, request string, err error) {
	code := errorCode(err)
	ev := core.ErrorEvent{
		Type:    core.EventError,
		Request: request,
		Error:   code,
	}
	if code == "invalid_payload" {
		ev.Message = err.Error()
	}
	log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Str("request", request).Msg("request failed")
	ctl.sendJSON(c, ev)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := core.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(core.ErrInvalidPayload, err)
	}
	return nil
}
