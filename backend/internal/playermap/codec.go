package playermap

import (
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	pairSeparator  = ","
	fieldSeparator = ":"
)

// Pair is one persisted "player:token" binding. The token is either a bare
// hardware id or a device unique name.
type Pair struct {
	Player Player
	Token  string
}

// IsDeviceID reports whether token is a bare nonzero integer, which is how raw
// hardware ids were persisted before devices were keyed by unique name.
func IsDeviceID(token string) bool {
	n, err := strconv.Atoi(token)
	return err == nil && n != 0
}

// ParsePairs splits a serialized map into pairs. Pairs without exactly two
// fields, with a non-integer player or with an empty token are skipped.
func ParsePairs(s string) []Pair {
	var pairs []Pair
	for _, raw := range strings.Split(s, pairSeparator) {
		fields := strings.Split(raw, fieldSeparator)
		if len(fields) != 2 || fields[1] == "" {
			continue
		}
		player, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		pairs = append(pairs, Pair{Player: Player(player), Token: fields[1]})
	}
	return pairs
}

// Serialize encodes the bindings as comma-terminated "player:token" pairs.
// Devices are persisted by unique name so they can be recognized after their
// hardware id changes.
func (m *PlayerMap) Serialize() string {
	var b strings.Builder
	for _, name := range m.sortedNames() {
		ref := m.names[name]
		player := m.lookup(ref)
		if !player.Valid() {
			continue
		}

		token := name
		if IsDeviceID(name) {
			id, ok := ref.ID()
			if !ok {
				continue
			}
			token = strconv.FormatUint(uint64(id), 10)
		}
		if token == "" {
			continue
		}

		b.WriteString(strconv.Itoa(int(player)))
		b.WriteString(fieldSeparator)
		b.WriteString(token)
		b.WriteString(pairSeparator)
	}

	s := b.String()
	m.logger.Debug("Serializing player map", zap.String("map", s))
	return s
}

// Deserialize replaces the bindings with the ones encoded in s. Devices that are
// connected are bound by their current id. Absent devices persisted by unique
// name get a remembered placeholder so ReconnectDevice can restore them later;
// absent devices persisted by raw id are dropped.
func (m *PlayerMap) Deserialize(s string) {
	m.UnmapAll()
	m.nextSlot = 0
	if s == "" {
		return
	}

	m.logger.Debug("Deserializing player map", zap.String("map", s))
	for _, p := range ParsePairs(s) {
		if !p.Player.Valid() {
			m.logger.Debug("Skipping binding with invalid player",
				zap.Int("player", int(p.Player)),
				zap.String("token", p.Token),
			)
			continue
		}

		var ref HardwareRef
		name := p.Token
		if id := m.registry.ResolveID(p.Token); id != 0 {
			ref = Connected(id)
			name = m.registry.UniqueName(id)
		} else if IsDeviceID(p.Token) {
			continue
		} else {
			m.nextSlot++
			ref = remembered(m.nextSlot)
		}

		m.names[name] = ref
		m.put(ref, p.Player)
	}
}
