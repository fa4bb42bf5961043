package hub

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/playermap"
)

// Controller is the binding API clients drive over the socket.
type Controller interface {
	ValidPlayer(index int) bool
	State(player int) gamepad.GamepadState
	Snapshot() gamepad.Snapshot
	MapDevice(id playermap.HardwareID, player playermap.Player) error
	UnmapDevice(id playermap.HardwareID) error
	UnmapPlayer(player playermap.Player) error
	UnmapAll()
	SetEnabled(enabled bool)
	Prune()
}

// Client represents a connected WebSocket client.
type Client struct {
	id          uuid.UUID
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	playerIndex atomic.Int32 // 1-based player index this client is watching
	closed      bool         // guarded by hub.mu
}

// NewClient creates a new Client attached to the hub, watching player 1.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		id:   uuid.New(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	c.playerIndex.Store(1)
	return c
}

func (c *Client) ID() uuid.UUID {
	return c.id
}

func (c *Client) PlayerIndex() int {
	return int(c.playerIndex.Load())
}

func (c *Client) SetPlayerIndex(index int) {
	c.playerIndex.Store(int32(index))
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads client commands until the connection closes.
func (c *Client) ReadPumpWithHandler(ctrl Controller, b *Broadcaster) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	log := c.hub.logger.With(zap.Stringer("client", c.id))
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn("Error parsing client message", zap.Error(err))
			continue
		}

		if err := c.handle(ctrl, b, msg); err != nil {
			log.Warn("Client command failed", zap.String("type", msg.Type), zap.Error(err))
			c.reply(NewErrorMessage(err))
		}
	}
}

func (c *Client) handle(ctrl Controller, b *Broadcaster, msg ClientMessage) error {
	switch msg.Type {
	case CmdSelectPlayer:
		if !ctrl.ValidPlayer(msg.PlayerIndex) {
			return fmt.Errorf("select player %d: %w", msg.PlayerIndex, gamepad.ErrInvalidPlayer)
		}
		c.SetPlayerIndex(msg.PlayerIndex)
		c.reply(NewPlayerSelectedMessage(msg.PlayerIndex))
		b.SendInitialState(c)
		c.hub.logger.Debug("Client switched player", zap.Stringer("client", c.id), zap.Int("player", msg.PlayerIndex))
		return nil

	case CmdListDevices:
		c.reply(NewDevicesMessage(ctrl.Snapshot()))
		return nil

	case CmdMapDevice:
		return ctrl.MapDevice(playermap.HardwareID(msg.HardwareID), playermap.Player(msg.PlayerIndex))

	case CmdUnmapDevice:
		return ctrl.UnmapDevice(playermap.HardwareID(msg.HardwareID))

	case CmdUnmapPlayer:
		return ctrl.UnmapPlayer(playermap.Player(msg.PlayerIndex))

	case CmdUnmapAll:
		ctrl.UnmapAll()
		return nil

	case CmdSetEnabled:
		if msg.Enabled == nil {
			return fmt.Errorf("%s: missing enabled field", msg.Type)
		}
		ctrl.SetEnabled(*msg.Enabled)
		return nil

	case CmdPrune:
		ctrl.Prune()
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (c *Client) reply(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("Error marshaling reply", zap.Error(err))
		return
	}
	c.hub.deliver(c, data)
}
