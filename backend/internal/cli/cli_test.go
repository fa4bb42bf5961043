package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/config"
	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/playermap"
)

func run(t *testing.T, deps Deps, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(deps)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func loadConfig(t *testing.T, path string) config.Config {
	t.Helper()
	store, err := config.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestBindingsShow(t *testing.T) {
	path := writeConfig(t, "bindings:\n  enabled: true\n  map: \"1:045e-028e-Pad,2:7,\"\n")

	out, err := run(t, Deps{}, "bindings", "show", "--config", path)
	if err != nil {
		t.Fatalf("bindings show error = %v", err)
	}
	for _, want := range []string{"enabled", "045e-028e-Pad", "unique name", "device id"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBindingsShowEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := run(t, Deps{}, "bindings", "show", "--config", path)
	if err != nil {
		t.Fatalf("bindings show error = %v", err)
	}
	if !strings.Contains(out, "disabled") || !strings.Contains(out, "No bindings") {
		t.Errorf("output = %q, want disabled with no bindings", out)
	}
}

func TestBindingsToggleAndClear(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\nbindings:\n  map: \"1:7,\"\n")

	if _, err := run(t, Deps{}, "bindings", "enable", "--config", path); err != nil {
		t.Fatalf("bindings enable error = %v", err)
	}
	if cfg := loadConfig(t, path); !cfg.Bindings.Enabled || cfg.Bindings.Map != "1:7," {
		t.Errorf("after enable: %+v", cfg.Bindings)
	}

	if _, err := run(t, Deps{}, "bindings", "clear", "--config", path); err != nil {
		t.Fatalf("bindings clear error = %v", err)
	}
	if _, err := run(t, Deps{}, "bindings", "disable", "--config", path); err != nil {
		t.Fatalf("bindings disable error = %v", err)
	}

	cfg := loadConfig(t, path)
	if cfg.Bindings.Enabled || cfg.Bindings.Map != "" {
		t.Errorf("after clear and disable: %+v", cfg.Bindings)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("server.addr = %q, want untouched :9000", cfg.Server.Addr)
	}
}

func TestRenderPairs(t *testing.T) {
	out := renderPairs([]playermap.Pair{{Player: 1, Token: "9"}, {Player: 6, Token: "pad"}})
	if !strings.Contains(out, "device id") || !strings.Contains(out, "6 (invalid)") {
		t.Errorf("renderPairs() =\n%s", out)
	}
}

var errInputStopped = errors.New("input stopped")

type fakeInput struct {
	bindings *gamepad.Bindings
	changes  chan gamepad.GamepadState
}

func (f *fakeInput) Changes() <-chan gamepad.GamepadState { return f.changes }

// Run attaches one device, binds it and stops.
func (f *fakeInput) Run(ctx context.Context) error {
	defer close(f.changes)
	f.bindings.Attach(gamepad.Device{ID: 3, Name: "Pad", UniqueName: "045e-028e-Pad"})
	f.bindings.Restore()
	if err := f.bindings.MapDevice(3, 2); err != nil {
		return err
	}
	return errInputStopped
}

func TestServeSavesBindings(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \"127.0.0.1:0\"\n")
	deps := Deps{
		NewInput: func(_ *zap.Logger, b *gamepad.Bindings) Input {
			return &fakeInput{bindings: b, changes: make(chan gamepad.GamepadState)}
		},
		Frontend: fstest.MapFS{"index.html": {Data: []byte("<p>padbind</p>")}},
	}

	_, err := run(t, deps, "serve", "--config", path, "--log-level", "error")
	if !errors.Is(err, errInputStopped) {
		t.Fatalf("serve error = %v, want %v", err, errInputStopped)
	}

	if got := loadConfig(t, path).Bindings.Map; got != "2:045e-028e-Pad," {
		t.Errorf("persisted map = %q, want %q", got, "2:045e-028e-Pad,")
	}
}

func TestServeWithoutInput(t *testing.T) {
	if _, err := run(t, Deps{}, "serve"); err == nil {
		t.Error("serve without input error = nil")
	}
}
