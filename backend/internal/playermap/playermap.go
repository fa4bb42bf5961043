package playermap

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// NotConnectedLabel is shown in device summaries for bound devices that are absent.
const NotConnectedLabel = "device not connected"

// HardwareID is the id the input backend assigns to a connected device.
// It is not stable across a disconnect/reconnect cycle. Zero is never valid.
type HardwareID uint32

// Player is a logical controller slot. Zero means unmapped.
type Player int

const (
	NoPlayer  Player = 0
	MinPlayer Player = 1
	MaxPlayer Player = 4
)

// Valid reports whether p is a bindable player slot.
func (p Player) Valid() bool {
	return p >= MinPlayer && p <= MaxPlayer
}

type refKind uint8

const (
	refConnected refKind = iota
	refRemembered
)

// HardwareRef is a mapping-table key: either a connected hardware id or a
// placeholder for a device that was restored from a serialization while absent.
type HardwareRef struct {
	kind refKind
	id   HardwareID
	slot uint32
}

// Connected returns the reference for a live hardware id.
func Connected(id HardwareID) HardwareRef {
	return HardwareRef{kind: refConnected, id: id}
}

func remembered(slot uint32) HardwareRef {
	return HardwareRef{kind: refRemembered, slot: slot}
}

// ID returns the hardware id and true for connected references.
func (r HardwareRef) ID() (HardwareID, bool) {
	return r.id, r.kind == refConnected
}

// IsRemembered reports whether r is a placeholder for an absent device.
func (r HardwareRef) IsRemembered() bool {
	return r.kind == refRemembered
}

func (r HardwareRef) String() string {
	if r.kind == refRemembered {
		return "remembered-" + strconv.FormatUint(uint64(r.slot), 10)
	}
	return strconv.FormatUint(uint64(r.id), 10)
}

func (r HardwareRef) compare(o HardwareRef) int {
	if r.kind != o.kind {
		return int(r.kind) - int(o.kind)
	}
	if r.kind == refRemembered {
		return cmp.Compare(r.slot, o.slot)
	}
	return cmp.Compare(r.id, o.id)
}

// Registry is the view of the input backend the map queries. It is never owned
// by the map and must reflect a consistent snapshot for the duration of a call.
type Registry interface {
	IsConnected(id HardwareID) bool
	DisplayName(id HardwareID) (string, bool)
	UniqueName(id HardwareID) string
	// ResolveID returns the connected device a persisted token refers to, or 0.
	ResolveID(token string) HardwareID
}

// Binding is one row of the mapping table.
type Binding struct {
	Ref        HardwareRef
	Player     Player
	UniqueName string
}

type entry struct {
	ref    HardwareRef
	player Player
}

// Option configures a PlayerMap.
type Option func(*PlayerMap)

// WithLogger sets the logger used for rejected calls and reconnect events.
func WithLogger(l *zap.Logger) Option {
	return func(m *PlayerMap) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithKeepRemembered makes RemoveUnavailableMappings leave remembered
// placeholders alone so they can still be reclaimed by ReconnectDevice.
func WithKeepRemembered(keep bool) Option {
	return func(m *PlayerMap) {
		m.keepRemembered = keep
	}
}

// PlayerMap binds hardware to player slots and remembers which physical device
// each binding belongs to. It is not safe for concurrent use.
type PlayerMap struct {
	registry       Registry
	logger         *zap.Logger
	disabled       bool
	keepRemembered bool

	// entries is kept sorted by ref.
	entries  []entry
	names    map[string]HardwareRef
	nextSlot uint32
}

// New returns an empty, disabled map.
func New(registry Registry, opts ...Option) *PlayerMap {
	m := &PlayerMap{
		registry: registry,
		logger:   zap.NewNop(),
		disabled: true,
		names:    make(map[string]HardwareRef),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Parse returns a disabled map restored from a serialization.
func Parse(registry Registry, serialized string, opts ...Option) *PlayerMap {
	m := New(registry, opts...)
	m.Deserialize(serialized)
	return m
}

// TestHardware reports whether input from id should reach player.
func (m *PlayerMap) TestHardware(id HardwareID, player Player) bool {
	return m.disabled || m.lookup(Connected(id)) == player
}

func (m *PlayerMap) IsEnabled() bool {
	return !m.disabled
}

func (m *PlayerMap) SetEnabled(enabled bool) {
	m.disabled = !enabled
}

// DeviceSummary lists the devices bound to player, one per line.
func (m *PlayerMap) DeviceSummary(player Player) string {
	var b strings.Builder
	for _, e := range m.entries {
		if e.player != player {
			continue
		}
		label := e.ref.String()
		name, hasName := NotConnectedLabel, true
		if id, ok := e.ref.ID(); ok {
			if m.registry.IsConnected(id) {
				name, hasName = m.registry.DisplayName(id)
			}
		} else if unique, ok := m.nameOf(e.ref); ok {
			label = unique
		}
		if hasName && name != "" {
			b.WriteString(label + ": " + name)
		} else {
			b.WriteString(label)
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// ReconnectDevice moves an existing binding onto id when id is a device that was
// bound under another id that has since gone away. It returns true when a
// binding was moved.
func (m *PlayerMap) ReconnectDevice(id HardwareID) bool {
	ref := Connected(id)
	if m.lookup(ref).Valid() || !m.registry.IsConnected(id) {
		return false
	}

	name := m.registry.UniqueName(id)
	oldRef, ok := m.names[name]
	if !ok {
		return false
	}
	if oldID, live := oldRef.ID(); live && m.registry.IsConnected(oldID) {
		return false
	}
	player := m.lookup(oldRef)
	if !player.Valid() {
		return false
	}

	m.logger.Debug("Reconnecting device",
		zap.Stringer("old", oldRef),
		zap.Uint32("hardware_id", uint32(id)),
		zap.Int("player", int(player)),
	)
	m.remove(oldRef)
	m.put(ref, player)
	m.names[name] = ref
	return true
}

// IsMapped reports whether any device is bound to player.
func (m *PlayerMap) IsMapped(player Player) bool {
	return slices.ContainsFunc(m.entries, func(e entry) bool {
		return e.player == player
	})
}

// Map binds id to player, replacing any previous binding of id and any
// remembered placeholder for the same device. Players outside 1..4 are
// rejected and leave the map unchanged.
func (m *PlayerMap) Map(id HardwareID, player Player) {
	if !player.Valid() {
		m.logger.Warn("Invalid player specified in map",
			zap.Uint32("hardware_id", uint32(id)),
			zap.Int("player", int(player)),
		)
		return
	}
	m.Unmap(id)
	ref := Connected(id)
	name := m.registry.UniqueName(id)
	// A placeholder left under this name would lose its only name entry.
	if old, ok := m.names[name]; ok && old.IsRemembered() {
		m.remove(old)
	}
	m.put(ref, player)
	m.names[name] = ref
}

// Unmap removes the binding of id and forgets its device name.
func (m *PlayerMap) Unmap(id HardwareID) {
	m.unmapRef(Connected(id))
}

// UnmapPlayer removes every binding to player.
func (m *PlayerMap) UnmapPlayer(player Player) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].player == player {
			m.unmapRef(m.entries[i].ref)
		}
	}
}

func (m *PlayerMap) UnmapAll() {
	m.entries = nil
	clear(m.names)
}

// RemoveUnavailableMappings drops bindings for devices that are not connected.
func (m *PlayerMap) RemoveUnavailableMappings() {
	for i := len(m.entries) - 1; i >= 0; i-- {
		ref := m.entries[i].ref
		if id, ok := ref.ID(); ok && m.registry.IsConnected(id) {
			continue
		}
		if ref.IsRemembered() && m.keepRemembered {
			continue
		}
		m.logger.Debug("Removing device from map", zap.Stringer("device", ref))
		m.unmapRef(ref)
	}
}

// Bindings returns a snapshot of the mapping table.
func (m *PlayerMap) Bindings() []Binding {
	out := make([]Binding, 0, len(m.entries))
	for _, e := range m.entries {
		name, _ := m.nameOf(e.ref)
		out = append(out, Binding{Ref: e.ref, Player: e.player, UniqueName: name})
	}
	return out
}

// PlayerOf returns the player id is bound to, or NoPlayer.
func (m *PlayerMap) PlayerOf(id HardwareID) Player {
	return m.lookup(Connected(id))
}

func (m *PlayerMap) unmapRef(ref HardwareRef) {
	m.remove(ref)
	if name, ok := m.nameOf(ref); ok {
		delete(m.names, name)
	}
}

func (m *PlayerMap) nameOf(ref HardwareRef) (string, bool) {
	for _, name := range m.sortedNames() {
		if m.names[name] == ref {
			return name, true
		}
	}
	return "", false
}

func (m *PlayerMap) sortedNames() []string {
	names := make([]string, 0, len(m.names))
	for name := range m.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *PlayerMap) find(ref HardwareRef) (int, bool) {
	return slices.BinarySearchFunc(m.entries, ref, func(e entry, r HardwareRef) int {
		return e.ref.compare(r)
	})
}

func (m *PlayerMap) lookup(ref HardwareRef) Player {
	if i, ok := m.find(ref); ok {
		return m.entries[i].player
	}
	return NoPlayer
}

func (m *PlayerMap) put(ref HardwareRef, player Player) {
	i, ok := m.find(ref)
	if ok {
		m.entries[i].player = player
		return
	}
	m.entries = slices.Insert(m.entries, i, entry{ref: ref, player: player})
}

func (m *PlayerMap) remove(ref HardwareRef) {
	if i, ok := m.find(ref); ok {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
}
