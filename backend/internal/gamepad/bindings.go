package gamepad

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/playermap"
)

var (
	ErrInvalidPlayer = errors.New("player must be between 1 and 4")
	ErrUnknownDevice = errors.New("device is not connected")
)

// Persister stores the serialized bindings.
type Persister interface {
	SaveBindings(serialized string, enabled bool) error
}

// BindingsConfig is the persisted state Bindings starts from.
type BindingsConfig struct {
	Serialized     string
	Enabled        bool
	KeepRemembered bool
	Persister      Persister
}

// Bindings owns the connected device table and the player map, and routes
// device input to players. All methods are safe for concurrent use.
type Bindings struct {
	mu       sync.Mutex
	logger   *zap.Logger
	devices  deviceTable
	players  *playermap.PlayerMap
	saved    string
	loaded   bool
	persist  Persister
	listener func()
	states   [playermap.MaxPlayer + 1]GamepadState
}

func NewBindings(logger *zap.Logger, cfg BindingsConfig) *Bindings {
	if logger == nil {
		logger = zap.NewNop()
	}
	devices := make(deviceTable)
	players := playermap.New(devices,
		playermap.WithLogger(logger.Named("playermap")),
		playermap.WithKeepRemembered(cfg.KeepRemembered),
	)
	players.SetEnabled(cfg.Enabled)

	b := &Bindings{
		logger:  logger,
		devices: devices,
		players: players,
		saved:   cfg.Serialized,
		persist: cfg.Persister,
	}
	for p := playermap.MinPlayer; p <= playermap.MaxPlayer; p++ {
		b.states[p].PlayerIndex = int(p)
	}
	return b
}

// SetListener registers fn to be called after devices or bindings change.
func (b *Bindings) SetListener(fn func()) {
	b.mu.Lock()
	b.listener = fn
	b.mu.Unlock()
}

// Restore loads the persisted bindings. It must be called once the devices
// present at startup have been attached, so bindings saved by raw id can be
// matched to them.
func (b *Bindings) Restore() {
	b.mu.Lock()
	b.players.Deserialize(b.saved)
	b.loaded = true
	n := len(b.players.Bindings())
	b.mu.Unlock()

	b.logger.Info("Player bindings restored",
		zap.Int("bindings", n),
		zap.Bool("enabled", b.Enabled()),
	)
	b.notify()
}

// Attach records a newly connected device and tries to hand it the binding it
// had under a previous id. A device sharing its unique name with one already
// attached is registered under a disambiguated name. It reports whether a
// binding was restored.
func (b *Bindings) Attach(dev Device) bool {
	b.mu.Lock()
	dev.UniqueName = b.devices.identify(dev)
	b.devices[dev.ID] = dev
	reconnected := b.loaded && b.players.ReconnectDevice(dev.ID)
	player := b.players.PlayerOf(dev.ID)
	b.mu.Unlock()

	if reconnected {
		b.logger.Info("Device reconnected to player",
			zap.Uint32("hardware_id", uint32(dev.ID)),
			zap.String("unique_name", dev.UniqueName),
			zap.Int("player", int(player)),
		)
		b.save()
	}
	b.notify()
	return reconnected
}

// Detach forgets a disconnected device. Its binding stays so it can be
// reclaimed when the device comes back.
func (b *Bindings) Detach(id playermap.HardwareID) {
	b.mu.Lock()
	delete(b.devices, id)
	b.mu.Unlock()
	b.notify()
}

// MapDevice binds a connected device to player.
func (b *Bindings) MapDevice(id playermap.HardwareID, player playermap.Player) error {
	if !player.Valid() {
		return fmt.Errorf("map device %d: %w", id, ErrInvalidPlayer)
	}
	return b.update(func(m *playermap.PlayerMap) error {
		if !b.devices.IsConnected(id) {
			return fmt.Errorf("map device %d: %w", id, ErrUnknownDevice)
		}
		m.Map(id, player)
		return nil
	})
}

func (b *Bindings) UnmapDevice(id playermap.HardwareID) error {
	return b.update(func(m *playermap.PlayerMap) error {
		m.Unmap(id)
		return nil
	})
}

func (b *Bindings) UnmapPlayer(player playermap.Player) error {
	if !player.Valid() {
		return fmt.Errorf("unmap player %d: %w", player, ErrInvalidPlayer)
	}
	return b.update(func(m *playermap.PlayerMap) error {
		m.UnmapPlayer(player)
		return nil
	})
}

func (b *Bindings) UnmapAll() {
	_ = b.update(func(m *playermap.PlayerMap) error {
		m.UnmapAll()
		return nil
	})
}

// Prune drops bindings of devices that are not connected.
func (b *Bindings) Prune() {
	_ = b.update(func(m *playermap.PlayerMap) error {
		m.RemoveUnavailableMappings()
		return nil
	})
}

// SetEnabled switches between per-player routing and pass-through mode.
func (b *Bindings) SetEnabled(enabled bool) {
	_ = b.update(func(m *playermap.PlayerMap) error {
		m.SetEnabled(enabled)
		return nil
	})
}

func (b *Bindings) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.players.IsEnabled()
}

// ValidPlayer reports whether index names a player slot.
func (b *Bindings) ValidPlayer(index int) bool {
	return playermap.Player(index).Valid()
}

// Serialized returns the persisted form of the current bindings.
func (b *Bindings) Serialized() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.players.Serialize()
}

// DeviceSummary describes the devices bound to player.
func (b *Bindings) DeviceSummary(player playermap.Player) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.players.DeviceSummary(player)
}

// Save persists the current bindings. It is a no-op before Restore.
func (b *Bindings) Save() error {
	b.mu.Lock()
	serialized, enabled, loaded := b.players.Serialize(), b.players.IsEnabled(), b.loaded
	b.mu.Unlock()

	if !loaded || b.persist == nil {
		return nil
	}
	if err := b.persist.SaveBindings(serialized, enabled); err != nil {
		return fmt.Errorf("save bindings: %w", err)
	}
	return nil
}

// Route combines per-device input into per-player state. Every device that
// passes the player's hardware test contributes. It returns the player states
// that changed since the previous call.
func (b *Bindings) Route(input map[playermap.HardwareID]GamepadState) []GamepadState {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]playermap.HardwareID, 0, len(input))
	for id := range input {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var changed []GamepadState
	for p := playermap.MinPlayer; p <= playermap.MaxPlayer; p++ {
		next := GamepadState{PlayerIndex: int(p)}
		for _, id := range ids {
			if b.players.TestHardware(id, p) {
				next = next.Merge(input[id])
			}
		}
		if !ComputeDelta(b.states[p], next).IsEmpty() {
			b.states[p] = next
			changed = append(changed, next)
		}
	}
	return changed
}

// State returns the last routed state of player.
func (b *Bindings) State(player int) GamepadState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !playermap.Player(player).Valid() {
		return GamepadState{PlayerIndex: player}
	}
	return b.states[player]
}

func (b *Bindings) update(fn func(m *playermap.PlayerMap) error) error {
	b.mu.Lock()
	err := fn(b.players)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.save()
	b.notify()
	return nil
}

func (b *Bindings) save() {
	if err := b.Save(); err != nil {
		b.logger.Warn("Failed to persist player bindings", zap.Error(err))
	}
}

func (b *Bindings) notify() {
	b.mu.Lock()
	fn := b.listener
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}
