package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/FamilyShare/internal/adapters/rtc"
	"github.com/dkeye/FamilyShare/internal/app"
	"github.com/dkeye/FamilyShare/internal/app/orch"
	"github.com/dkeye/FamilyShare/internal/config"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	cfg := &config.Config{
		Mode:       "test",
		Secret:     "test-secret",
		ReadLimit:  1 << 16,
		PingPeriod: 9 * time.Second,
		PongWait:   10 * time.Second,
		Hub:        config.HubConfig{SendBuffer: 16},
	}
	o := orch.New(storage.NewMemory(0), app.SimplePolicy{}, nil, orch.Options{
		PersistTimeout: time.Second,
		ValidateSignal: rtc.Validate,
	})
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, o
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	c := &wsClient{t: t, conn: conn}
	welcome := c.expect("welcome")
	c.id = welcome["socketId"].(string)
	require.NotEmpty(t, c.id)
	return c
}

func (c *wsClient) send(v any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

// expect reads until an event of the given type arrives.
func (c *wsClient) expect(typ string) map[string]any {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev map[string]any
		require.NoError(c.t, c.conn.ReadJSON(&ev), "waiting for %s", typ)
		if ev["type"] == typ {
			return ev
		}
	}
}

func (c *wsClient) join(user, family string) map[string]any {
	c.t.Helper()
	c.send(map[string]any{"type": "join", "userId": user, "familyId": family})
	return c.expect("joined")
}

func TestWebSocketFamilyFlow(t *testing.T) {
	srv, o := setupServer(t)

	u1 := dial(t, srv)
	u2 := dial(t, srv)
	u1.join("U1", "F1")
	ack := u2.join("U2", "F1")
	assert.Len(t, ack["members"], 2)

	joined := u1.expect("member_joined")
	assert.Equal(t, "U2", joined["userId"])
	assert.Equal(t, u2.id, joined["socketId"])

	u1.send(map[string]any{"type": "update_location", "userId": "U1", "latitude": 10.0, "longitude": 20.0, "accuracy": 5})
	upd := u2.expect("location_update")
	assert.Equal(t, "U1", upd["userId"])
	assert.Equal(t, 10.0, upd["latitude"])
	assert.Equal(t, 20.0, upd["longitude"])
	assert.Equal(t, 5.0, upd["accuracy"])

	u2.send(map[string]any{"type": "get_member_locations"})
	locs := u2.expect("member_locations")["locations"].([]any)
	assert.Len(t, locs, 2)

	u1.send(map[string]any{"type": "start_screen_share"})
	started := u2.expect("screen_share_started")
	assert.Equal(t, u1.id, started["socketId"])

	u2.send(map[string]any{"type": "request_screen_stream", "targetUserId": "U1"})
	req := u1.expect("screen_stream_request")
	assert.Equal(t, u2.id, req["requesterSocketId"])

	offer := map[string]string{"type": "offer", "sdp": "v=0\r\no=- 1 2 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"}
	u1.send(map[string]any{"type": "screen_stream_offer", "targetSocketId": u2.id, "offer": offer})
	got := u2.expect("screen_stream_offer")
	assert.Equal(t, u1.id, got["fromSocketId"])
	assert.Equal(t, "offer", got["offer"].(map[string]any)["type"])

	u2.send(map[string]any{"type": "ice_candidate", "targetSocketId": "nobody", "candidate": map[string]any{"candidate": ""}})
	errEv := u2.expect("error")
	assert.Equal(t, "target_unreachable", errEv["error"])
	assert.Equal(t, "ice_candidate", errEv["request"])

	u1.conn.Close()
	left := u2.expect("member_left")
	assert.Equal(t, "U1", left["userId"])
	u2.expect("screen_share_stopped")

	assert.Eventually(t, func() bool {
		return len(o.Registry.MembersOf("F1")) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWebSocketErrors(t *testing.T) {
	srv, _ := setupServer(t)
	c := dial(t, srv)

	c.send(map[string]any{"type": "start_screen_share"})
	assert.Equal(t, "not_joined", c.expect("error")["error"])

	c.send(map[string]any{"type": "dance"})
	assert.Equal(t, "unknown_type", c.expect("error")["error"])

	c.join("U1", "F1")
	c.send(map[string]any{"type": "update_location", "latitude": 100.0, "longitude": 0.0})
	assert.Equal(t, "invalid_payload", c.expect("error")["error"])

	c.send(map[string]any{"type": "ping"})
	c.expect("pong")
}

func TestHTTPRoutes(t *testing.T) {
	srv, o := setupServer(t)
	ctx := context.Background()
	require.NoError(t, o.Store.SaveMember(ctx, domain.Member{UserID: "U1", Username: "Ann", FamilyID: "F1"}))

	get := func(path string) (int, map[string]any) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp.StatusCode, body
	}

	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = get("/api/location/U1/latest")
	assert.Equal(t, http.StatusNotFound, code)

	resp, err := http.Post(srv.URL+"/api/sync-location", "application/json",
		strings.NewReader(`{"userId":"U1","latitude":1.5,"longitude":2.5,"accuracy":3}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/sync-location", "application/json",
		strings.NewReader(`{"userId":"ghost","latitude":1,"longitude":2}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "unknown user is stored, not rejected")

	code, body = get("/api/location/ghost/latest")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["latitude"])

	resp, err = http.Post(srv.URL+"/api/sync-location", "application/json",
		strings.NewReader(`{"userId":"U1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	code, body = get("/api/location/U1/latest")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.5, body["latitude"])

	code, body = get("/api/location/U1/history?limit=10")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["locations"], 1)

	code, _ = get("/api/location/U1/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = get("/api/family/F1/members")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["members"], 1)

	code, body = get("/api/family/F1/locations")
	assert.Equal(t, http.StatusOK, code)
	locs := body["locations"].([]any)
	require.Len(t, locs, 1)
	assert.Equal(t, float64(1), locs[0].(map[string]any)["locationCount"])

	code, body = get("/api/family/F1/online")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["online"])

	code, body = get("/api/webrtc/config")
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, body["iceServers"], 1)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
