package hub

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/playermap"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster listens for per-player state changes and broadcasts them to the
// clients watching that player.
type Broadcaster struct {
	hub        *Hub
	changes    <-chan gamepad.GamepadState
	mu         sync.Mutex
	lastStates map[int]gamepad.GamepadState
	seq        int64
	deltaCount int64
}

func NewBroadcaster(h *Hub, changes <-chan gamepad.GamepadState) *Broadcaster {
	b := &Broadcaster{
		hub:        h,
		changes:    changes,
		lastStates: make(map[int]gamepad.GamepadState),
	}
	for p := int(playermap.MinPlayer); p <= int(playermap.MaxPlayer); p++ {
		b.lastStates[p] = gamepad.GamepadState{PlayerIndex: p}
	}
	return b
}

// Run starts the broadcaster loop until the changes channel is closed.
// Should be run in a goroutine.
func (b *Broadcaster) Run() {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case state, ok := <-b.changes:
			if !ok {
				return
			}
			b.publish(state)

		case <-ticker.C:
			b.syncConnected()
		}
	}
}

func (b *Broadcaster) publish(state gamepad.GamepadState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delta := gamepad.ComputeDelta(b.lastStates[state.PlayerIndex], state)
	b.lastStates[state.PlayerIndex] = state
	if delta.IsEmpty() {
		return
	}

	b.seq++
	b.deltaCount++

	if delta.Connected != nil {
		event := "disconnected"
		if state.Connected {
			event = "connected"
		}
		b.send(NewEventMessage(b.seq, event, &state), state.PlayerIndex)
		b.seq++
	}

	// Send full sync periodically
	if b.deltaCount >= deltaCountSync {
		b.send(NewFullMessage(b.seq, &state), state.PlayerIndex)
		b.deltaCount = 0
		return
	}
	b.send(NewDeltaMessage(b.seq, state.PlayerIndex, delta), state.PlayerIndex)
}

func (b *Broadcaster) syncConnected() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for p := int(playermap.MinPlayer); p <= int(playermap.MaxPlayer); p++ {
		state := b.lastStates[p]
		if state.Connected {
			b.seq++
			b.send(NewFullMessage(b.seq, &state), p)
		}
	}
}

// SendInitialState sends the full state of the client's player to the client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	b.seq++
	state, ok := b.lastStates[c.PlayerIndex()]
	if !ok {
		state = gamepad.GamepadState{PlayerIndex: c.PlayerIndex()}
	}
	msg := NewFullMessage(b.seq, &state)
	b.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		b.hub.logger.Error("Error marshaling initial state", zap.Error(err))
		return
	}
	b.hub.deliver(c, data)
}

// PublishDevices sends the device and binding snapshot to every client.
func (b *Broadcaster) PublishDevices(snapshot gamepad.Snapshot) {
	data, err := json.Marshal(NewDevicesMessage(snapshot))
	if err != nil {
		b.hub.logger.Error("Error marshaling devices message", zap.Error(err))
		return
	}
	b.hub.BroadcastAll(data)
}

// SendDevices sends the device and binding snapshot to a single client.
func (b *Broadcaster) SendDevices(c *Client, snapshot gamepad.Snapshot) {
	c.reply(NewDevicesMessage(snapshot))
}

func (b *Broadcaster) send(msg *WSMessage, playerIndex int) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.hub.logger.Error("Error marshaling message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	b.hub.BroadcastToPlayer(data, playerIndex)
}
