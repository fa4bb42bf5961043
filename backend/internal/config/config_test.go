package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir() error = %v", err)
	}
	if !strings.Contains(dir, appName) {
		t.Errorf("DefaultDir() = %v, should contain %q", dir, appName)
	}

	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if filepath.Base(path) != configFile {
		t.Errorf("DefaultPath() should end with %q, got %v", configFile, path)
	}
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if !cfg.Frontend.Minify {
		t.Error("Frontend.Minify = false, want true")
	}
	if cfg.Bindings.Enabled || cfg.Bindings.Map != "" || cfg.Bindings.KeepRemembered {
		t.Errorf("Bindings = %+v, want zero value", cfg.Bindings)
	}
}

func TestOpenReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  addr: "127.0.0.1:9000"
bindings:
  enabled: true
  map: "1:padA,2:7,"
  keep_remembered: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if !cfg.Bindings.Enabled || cfg.Bindings.Map != "1:padA,2:7," || !cfg.Bindings.KeepRemembered {
		t.Errorf("Bindings = %+v", cfg.Bindings)
	}
}

func TestOpenRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path, nil); err == nil {
		t.Error("Open() error = nil for malformed YAML")
	}
}

func TestFlagAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("PADBIND_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	if err := flags.Parse([]string{"--addr", ":7070"}); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path, flags)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("Server.Addr = %q, want :7070", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestSaveBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	if err := flags.Parse([]string{"--addr", ":7070"}); err != nil {
		t.Fatal(err)
	}
	store, err := Open(path, flags)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := store.SaveBindings("3:padC,", true); err != nil {
		t.Fatalf("SaveBindings() error = %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bindings.Map != "3:padC," || !cfg.Bindings.Enabled {
		t.Errorf("in-memory Bindings = %+v", cfg.Bindings)
	}

	reopened, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() after save error = %v", err)
	}
	cfg, err = reopened.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Bindings.Map != "3:padC," || !cfg.Bindings.Enabled {
		t.Errorf("persisted Bindings = %+v", cfg.Bindings)
	}
	// The flag override must not leak into the file.
	if cfg.Server.Addr != ":8080" {
		t.Errorf("persisted Server.Addr = %q, want default :8080", cfg.Server.Addr)
	}
}
