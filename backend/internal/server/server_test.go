package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/hub"
	"github.com/soar/padbind/backend/internal/playermap"
)

const indexPage = "<!doctype html>\n<html>\n  <body>\n\n    <p>bindings</p>\n\n  </body>\n</html>\n"

type stubController struct{}

func (stubController) ValidPlayer(index int) bool { return playermap.Player(index).Valid() }
func (stubController) State(player int) gamepad.GamepadState {
	return gamepad.GamepadState{PlayerIndex: player}
}
func (stubController) Snapshot() gamepad.Snapshot { return gamepad.Snapshot{Enabled: true} }
func (stubController) MapDevice(playermap.HardwareID, playermap.Player) error {
	return gamepad.ErrUnknownDevice
}
func (stubController) UnmapDevice(playermap.HardwareID) error { return nil }
func (stubController) UnmapPlayer(playermap.Player) error     { return nil }
func (stubController) UnmapAll()                              {}
func (stubController) SetEnabled(bool)                        {}
func (stubController) Prune()                                 {}

func newTestServer(t *testing.T, minified bool) *httptest.Server {
	t.Helper()
	h := hub.NewHub(zap.NewNop())
	go h.Run()
	t.Cleanup(h.Stop)

	frontend := fstest.MapFS{"index.html": {Data: []byte(indexPage)}}
	s := New(zap.NewNop(), h, hub.NewBroadcaster(h, nil), stubController{}, frontend, Options{Minify: minified})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func fetchIndex(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestFrontendMinified(t *testing.T) {
	body := fetchIndex(t, newTestServer(t, true).URL)
	if !strings.Contains(body, "bindings") {
		t.Errorf("body = %q, want page content", body)
	}
	if strings.Contains(body, "\n\n") {
		t.Errorf("body = %q, want minified output", body)
	}
}

func TestFrontendUnminified(t *testing.T) {
	if body := fetchIndex(t, newTestServer(t, false).URL); body != indexPage {
		t.Errorf("body = %q, want %q", body, indexPage)
	}
}

func TestWebSocketSession(t *testing.T) {
	ts := newTestServer(t, false)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	read := func() hub.WSMessage {
		t.Helper()
		var msg hub.WSMessage
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		return msg
	}

	if msg := read(); msg.Type != hub.TypeFull || msg.PlayerIndex != 1 {
		t.Errorf("first message = %+v, want full state of player 1", msg)
	}
	if msg := read(); msg.Type != hub.TypeDevices || msg.Devices == nil || !msg.Devices.Enabled {
		t.Errorf("second message = %+v, want devices snapshot", msg)
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: hub.CmdMapDevice, HardwareID: 3, PlayerIndex: 1}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	msg := read()
	if msg.Type != hub.TypeError || !strings.Contains(msg.Error, gamepad.ErrUnknownDevice.Error()) {
		t.Errorf("reply = %+v, want unknown device error", msg)
	}
}

func TestBindingsAPI(t *testing.T) {
	ts := newTestServer(t, false)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "snapshot", method: http.MethodGet, path: "/api/bindings", status: http.StatusOK},
		{name: "player", method: http.MethodGet, path: "/api/players/2", status: http.StatusOK},
		{name: "player out of range", method: http.MethodGet, path: "/api/players/7", status: http.StatusBadRequest},
		{name: "map absent device", method: http.MethodPut, path: "/api/players/1/devices/3", status: http.StatusNotFound},
		{name: "map invalid player", method: http.MethodPut, path: "/api/players/0/devices/3", status: http.StatusBadRequest},
		{name: "unmap player", method: http.MethodDelete, path: "/api/players/4", status: http.StatusNoContent},
		{name: "unmap device", method: http.MethodDelete, path: "/api/devices/3", status: http.StatusNoContent},
		{name: "bad device id", method: http.MethodDelete, path: "/api/devices/pad", status: http.StatusBadRequest},
		{name: "zero device id", method: http.MethodDelete, path: "/api/devices/0", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("%s %s error = %v", tt.method, tt.path, err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.status)
			}
		})
	}
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t, false)

	resp, err := http.Get(ts.URL + "/api/players/3")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	var view PlayerView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Player != 3 || view.State.PlayerIndex != 3 {
		t.Errorf("view = %+v, want player 3", view)
	}
}
