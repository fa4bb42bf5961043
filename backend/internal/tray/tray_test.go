package tray

import "testing"

func TestBrowserURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{addr: ":8080", want: "http://localhost:8080"},
		{addr: "0.0.0.0:9000", want: "http://localhost:9000"},
		{addr: "[::]:9000", want: "http://localhost:9000"},
		{addr: "127.0.0.1:8080", want: "http://127.0.0.1:8080"},
		{addr: "pad.local", want: "http://pad.local"},
	}
	for _, tt := range tests {
		if got := BrowserURL(tt.addr); got != tt.want {
			t.Errorf("BrowserURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := map[string]string{
		"windows": "rundll32",
		"darwin":  "open",
		"linux":   "xdg-open",
	}
	for goos, want := range tests {
		cmd := browserCommand(goos, "http://localhost:8080")
		if cmd.Args[0] != want {
			t.Errorf("browserCommand(%q) runs %q, want %q", goos, cmd.Args[0], want)
		}
		if last := cmd.Args[len(cmd.Args)-1]; last != "http://localhost:8080" {
			t.Errorf("browserCommand(%q) last arg = %q", goos, last)
		}
	}
}

func TestIconEmbedded(t *testing.T) {
	icon := Icon()
	if len(icon) < 6 || icon[0] != 0 || icon[2] != 1 {
		t.Errorf("Icon() does not look like an .ico file (%d bytes)", len(icon))
	}
}
