package hub

import (
	"time"

	"github.com/soar/padbind/backend/internal/gamepad"
)

// Server to client message types.
const (
	TypeFull           = "full"
	TypeDelta          = "delta"
	TypeEvent          = "event"
	TypePlayerSelected = "player_selected"
	TypeDevices        = "devices"
	TypeError          = "error"
)

// Client to server message types.
const (
	CmdSelectPlayer = "select_player"
	CmdListDevices  = "list_devices"
	CmdMapDevice    = "map_device"
	CmdUnmapDevice  = "unmap_device"
	CmdUnmapPlayer  = "unmap_player"
	CmdUnmapAll     = "unmap_all"
	CmdSetEnabled   = "set_enabled"
	CmdPrune        = "prune"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type        string                `json:"type"`
	Seq         int64                 `json:"seq"`
	Timestamp   int64                 `json:"timestamp"` // Unix milliseconds
	Event       string                `json:"event,omitempty"`
	Data        *gamepad.GamepadState `json:"data,omitempty"`
	Changes     *gamepad.DeltaChanges `json:"changes,omitempty"`
	PlayerIndex int                   `json:"playerIndex,omitempty"`
	Devices     *gamepad.Snapshot     `json:"devices,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// NewFullMessage creates a "full" message containing the complete state of one player.
func NewFullMessage(seq int64, state *gamepad.GamepadState) *WSMessage {
	return &WSMessage{
		Type:        TypeFull,
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		Data:        state,
		PlayerIndex: state.PlayerIndex,
	}
}

// NewDeltaMessage creates a "delta" message containing only changed fields.
func NewDeltaMessage(seq int64, playerIndex int, changes *gamepad.DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:        TypeDelta,
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		Changes:     changes,
		PlayerIndex: playerIndex,
	}
}

// NewEventMessage creates an "event" message, e.g. a device reconnecting to a player.
func NewEventMessage(seq int64, event string, state *gamepad.GamepadState) *WSMessage {
	return &WSMessage{
		Type:      TypeEvent,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Event:     event,
		Data:      state,
	}
}

func NewPlayerSelectedMessage(playerIndex int) *WSMessage {
	return &WSMessage{
		Type:        TypePlayerSelected,
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: playerIndex,
	}
}

// NewDevicesMessage creates a "devices" message with the connected devices and bindings.
func NewDevicesMessage(snapshot gamepad.Snapshot) *WSMessage {
	return &WSMessage{
		Type:      TypeDevices,
		Timestamp: time.Now().UnixMilli(),
		Devices:   &snapshot,
	}
}

func NewErrorMessage(err error) *WSMessage {
	return &WSMessage{
		Type:      TypeError,
		Timestamp: time.Now().UnixMilli(),
		Error:     err.Error(),
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type        string `json:"type"`
	PlayerIndex int    `json:"playerIndex,omitempty"`
	HardwareID  uint32 `json:"hardwareId,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
}
