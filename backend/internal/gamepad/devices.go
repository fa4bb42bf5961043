package gamepad

import (
	"slices"
	"strconv"
	"strings"

	"github.com/soar/padbind/backend/internal/playermap"
)

// Device describes a connected joystick as reported by the input backend.
type Device struct {
	ID             playermap.HardwareID `json:"id"`
	Name           string               `json:"name"`
	UniqueName     string               `json:"uniqueName"`
	ControllerType string               `json:"controllerType"`
	VendorID       uint16               `json:"vendorId"`
	ProductID      uint16               `json:"productId"`
	// Serial is the hardware serial number, empty when the device reports none.
	Serial string `json:"serial,omitempty"`
}

// deviceTable is the set of currently connected devices. It answers the
// player map's hardware queries.
type deviceTable map[playermap.HardwareID]Device

var _ playermap.Registry = deviceTable(nil)

func (t deviceTable) IsConnected(id playermap.HardwareID) bool {
	_, ok := t[id]
	return ok
}

func (t deviceTable) DisplayName(id playermap.HardwareID) (string, bool) {
	d, ok := t[id]
	if !ok || d.Name == "" {
		return "", false
	}
	return d.Name, true
}

func (t deviceTable) UniqueName(id playermap.HardwareID) string {
	return t[id].UniqueName
}

// ResolveID accepts either a numeric instance id or a unique name. When several
// connected devices share a unique name the lowest id wins.
func (t deviceTable) ResolveID(token string) playermap.HardwareID {
	if n, err := strconv.ParseUint(token, 10, 32); err == nil {
		if id := playermap.HardwareID(n); t.IsConnected(id) {
			return id
		}
		return 0
	}
	for _, id := range t.ids() {
		if t[id].UniqueName == token {
			return id
		}
	}
	return 0
}

// identify returns the unique name dev is registered under. The serial, when
// present, is appended to the model name. Devices that still collide with a
// connected device get the lowest free ordinal suffix ("#2", "#3", ...), so
// identical pads keep distinct names for as long as they stay attached.
func (t deviceTable) identify(dev Device) string {
	base := dev.UniqueName
	if serial := strings.TrimSpace(tokenReplacer.Replace(dev.Serial)); serial != "" {
		base += "-" + serial
	}

	used := make(map[string]bool, len(t))
	for id, d := range t {
		if id != dev.ID {
			used[d.UniqueName] = true
		}
	}
	name := base
	for n := 2; used[name]; n++ {
		name = base + "#" + strconv.Itoa(n)
	}
	return name
}

func (t deviceTable) ids() []playermap.HardwareID {
	ids := make([]playermap.HardwareID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
