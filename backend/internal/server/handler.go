package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewClient(s.hub, conn)
	s.hub.Register(client)

	// Current player state first, then the binding table
	s.broadcaster.SendInitialState(client)
	s.broadcaster.SendDevices(client, s.ctrl.Snapshot())

	go client.WritePump()
	go client.ReadPumpWithHandler(s.ctrl, s.broadcaster)
}
