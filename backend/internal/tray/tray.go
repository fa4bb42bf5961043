package tray

import (
	"net"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"go.uber.org/zap"
)

// Actions are the callbacks behind the tray menu.
type Actions struct {
	Shutdown   func()
	SetEnabled func(enabled bool)
	ClearAll   func()
}

// Tray manages the system tray icon and menu
type Tray struct {
	logger       *zap.Logger
	url          string
	actions      Actions
	enabled      bool
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuEnabled  *systray.MenuItem
	menuClear    *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a new Tray. url is opened by "Open Browser"; enabled is the
// initial state of the bindings checkbox.
func New(logger *zap.Logger, url string, enabled bool, actions Actions) *Tray {
	return &Tray{
		logger:  logger,
		url:     url,
		actions: actions,
		enabled: enabled,
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("padbind")
	systray.SetTooltip("padbind - " + t.url)

	t.menuOpen = systray.AddMenuItem("Open Browser", "Open web interface")
	t.menuEnabled = systray.AddMenuItemCheckbox("Player bindings", "Route devices by their player bindings", t.enabled)
	t.menuClear = systray.AddMenuItem("Clear bindings", "Forget every player binding")
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.logger.Info("System tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuEnabled.ClickedCh:
			t.toggleEnabled()
		case <-t.menuClear.ClickedCh:
			if t.actions.ClearAll != nil {
				t.actions.ClearAll()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				if t.actions.Shutdown != nil {
					t.once.Do(t.actions.Shutdown)
				}
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) toggleEnabled() {
	on := !t.menuEnabled.Checked()
	if on {
		t.menuEnabled.Check()
	} else {
		t.menuEnabled.Uncheck()
	}
	if t.actions.SetEnabled != nil {
		t.actions.SetEnabled(on)
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Info("System tray exiting")
}

func (t *Tray) openBrowser() {
	// Prevent multiple browser launches during shutdown
	if t.shuttingDown.Load() {
		return
	}

	cmd := browserCommand(runtime.GOOS, t.url)
	if err := cmd.Start(); err != nil {
		t.logger.Warn("Failed to open browser", zap.String("url", t.url), zap.Error(err))
	}
}

func browserCommand(goos, url string) *exec.Cmd {
	switch goos {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return exec.Command("xdg-open", url)
	}
}

// BrowserURL turns a listen address such as ":8080" into a local URL.
func BrowserURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
