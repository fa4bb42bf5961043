package playermap

import (
	"slices"
	"testing"
)

func TestIsDeviceID(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"9", true},
		{"-100", true},
		{"0", false},
		{"", false},
		{"padX", false},
		{"12abc", false},
	}

	for _, tt := range tests {
		if got := IsDeviceID(tt.token); got != tt.want {
			t.Errorf("IsDeviceID(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Pair
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "1:9,", want: []Pair{{1, "9"}}},
		{name: "no trailing separator", in: "1:padA,2:padB", want: []Pair{{1, "padA"}, {2, "padB"}}},
		{
			name: "malformed pairs skipped",
			in:   "x:padA,1,2:padB:extra,3:,:padC,4:padD,",
			want: []Pair{{4, "padD"}},
		},
		{name: "out of range players kept", in: "0:padA,7:padB,", want: []Pair{{0, "padA"}, {7, "padB"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePairs(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParsePairs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSerializeUsesUniqueName(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(9, "padX", "Pad X")
	reg.connect(4, "padA", "Pad A")
	m := newEnabledMap(reg)
	m.Map(9, 1)
	m.Map(4, 3)

	if got, want := m.Serialize(), "3:padA,1:padX,"; got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSerializeNumericNamePersistsCurrentID(t *testing.T) {
	tests := []struct {
		name   string
		unique string
		want   string
	}{
		{name: "name equals id", unique: "9", want: "1:9,"},
		{name: "stale numeric name", unique: "12", want: "1:9,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newFakeRegistry()
			reg.connect(9, tt.unique, "")
			m := newEnabledMap(reg)
			m.Map(9, 1)

			if got := m.Serialize(); got != tt.want {
				t.Errorf("Serialize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeserializeConnectedID(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(9, "padX", "Pad X")
	m := Parse(reg, "1:9,")

	want := []Binding{{Ref: Connected(9), Player: 1, UniqueName: "padX"}}
	if got := m.Bindings(); !slices.Equal(got, want) {
		t.Errorf("Bindings() = %v, want %v", got, want)
	}
	// The raw id token is upgraded to the device's unique name.
	if got := m.Serialize(); got != "1:padX," {
		t.Errorf("Serialize() = %q, want %q", got, "1:padX,")
	}
}

func TestDeserializeConnectedUniqueName(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(6, "padX", "Pad X")
	m := Parse(reg, "2:padX,")
	m.SetEnabled(true)

	if !m.TestHardware(6, 2) {
		t.Error("TestHardware(6, 2) = false, want true")
	}
}

func TestDeserializeAbsentDevices(t *testing.T) {
	m := Parse(newFakeRegistry(), "1:42,2:padA,3:padB,")

	bindings := m.Bindings()
	if len(bindings) != 2 {
		t.Fatalf("len(Bindings()) = %d, want 2: %v", len(bindings), bindings)
	}
	if bindings[0].Ref == bindings[1].Ref {
		t.Errorf("remembered refs are not unique: %v", bindings[0].Ref)
	}
	for _, b := range bindings {
		if !b.Ref.IsRemembered() {
			t.Errorf("binding %v is not remembered", b)
		}
	}
	if m.IsMapped(1) {
		t.Error("IsMapped(1) = true for an absent raw id")
	}
	if got, want := m.Serialize(), "2:padA,3:padB,"; got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestDeserializeSkipsInvalidPairs(t *testing.T) {
	m := Parse(newFakeRegistry(), "x:padA,0:padB,5:padC,2:padD:extra,4:padE,")

	if got, want := m.Serialize(), "4:padE,"; got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestDeserializeResetsState(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(1, "pad1", "")
	m := newEnabledMap(reg)
	m.Map(1, 1)

	m.Deserialize("2:padZ,")

	if m.IsMapped(1) {
		t.Error("IsMapped(1) = true after Deserialize replaced the map")
	}
	if !m.IsEnabled() {
		t.Error("Deserialize changed the enabled flag")
	}
}

func TestRoundTrip(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(1, "pad1", "")
	reg.connect(2, "pad2", "")
	reg.connect(3, "9", "")
	m := newEnabledMap(reg)
	m.Map(1, 4)
	m.Map(2, 1)
	m.Map(3, 1)

	restored := Parse(reg, m.Serialize())

	for _, id := range []HardwareID{1, 2, 3} {
		if got, want := restored.PlayerOf(id), m.PlayerOf(id); got != want {
			t.Errorf("restored PlayerOf(%d) = %d, want %d", id, got, want)
		}
	}
}

func TestDeserializeIsIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	reg.connect(5, "padX", "")
	const s = "1:padX,2:padY,3:padZ,"

	m := Parse(reg, s)
	first := m.Bindings()
	m.Deserialize(s)

	if got := m.Bindings(); !slices.Equal(got, first) {
		t.Errorf("Bindings() after second Deserialize = %v, want %v", got, first)
	}
}
