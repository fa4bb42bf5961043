package gamepad

import "github.com/soar/padbind/backend/internal/playermap"

// DeviceView is a connected device together with the player it is bound to.
type DeviceView struct {
	Device
	Player int `json:"player"`
}

// BindingView is one persisted binding as shown to clients.
type BindingView struct {
	Device     string `json:"device"`
	UniqueName string `json:"uniqueName"`
	Player     int    `json:"player"`
	Connected  bool   `json:"connected"`
}

// Snapshot is a consistent view of devices and bindings.
type Snapshot struct {
	Enabled   bool           `json:"enabled"`
	Devices   []DeviceView   `json:"devices"`
	Bindings  []BindingView  `json:"bindings"`
	Summaries map[int]string `json:"summaries"`
}

// Snapshot returns the current devices, bindings and per-player summaries.
func (b *Bindings) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := Snapshot{
		Enabled:   b.players.IsEnabled(),
		Devices:   make([]DeviceView, 0, len(b.devices)),
		Summaries: make(map[int]string, int(playermap.MaxPlayer)),
	}
	for _, id := range b.devices.ids() {
		s.Devices = append(s.Devices, DeviceView{
			Device: b.devices[id],
			Player: int(b.players.PlayerOf(id)),
		})
	}
	for _, bind := range b.players.Bindings() {
		id, live := bind.Ref.ID()
		s.Bindings = append(s.Bindings, BindingView{
			Device:     bind.Ref.String(),
			UniqueName: bind.UniqueName,
			Player:     int(bind.Player),
			Connected:  live && b.devices.IsConnected(id),
		})
	}
	for p := playermap.MinPlayer; p <= playermap.MaxPlayer; p++ {
		s.Summaries[int(p)] = b.players.DeviceSummary(p)
	}
	return s
}
