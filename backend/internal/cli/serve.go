package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/config"
	"github.com/soar/padbind/backend/internal/gamepad"
	"github.com/soar/padbind/backend/internal/hub"
	"github.com/soar/padbind/backend/internal/logging"
	"github.com/soar/padbind/backend/internal/server"
	"github.com/soar/padbind/backend/internal/tray"
)

const shutdownTimeout = 5 * time.Second

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func newServeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Read controllers and serve the web interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
	addServeFlags(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, cc *commandContext) error {
	if cc.deps.NewInput == nil {
		return errors.New("no controller input available")
	}

	store, err := cc.openConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}
	if err := logging.Initialize(cfg.Log.Level); err != nil {
		return err
	}
	defer logging.Sync()
	logger := logging.GetLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer cancel()

	bindings := gamepad.NewBindings(logging.Named("bindings"), gamepad.BindingsConfig{
		Serialized:     cfg.Bindings.Map,
		Enabled:        cfg.Bindings.Enabled,
		KeepRemembered: cfg.Bindings.KeepRemembered,
		Persister:      store,
	})
	input := cc.deps.NewInput(logging.Named("input"), bindings)

	h := hub.NewHub(logging.Named("hub"))
	go h.Run()
	defer h.Stop()

	broadcaster := hub.NewBroadcaster(h, input.Changes())
	go broadcaster.Run()
	bindings.SetListener(func() {
		broadcaster.PublishDevices(bindings.Snapshot())
	})

	srv := server.New(logging.Named("server"), h, broadcaster, bindings, cc.deps.Frontend, server.Options{
		Addr:   cfg.Server.Addr,
		Minify: cfg.Frontend.Minify,
	})
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	url := tray.BrowserURL(cfg.Server.Addr)
	logger.Info("padbind started", zap.String("url", url), zap.String("config", store.Path()))

	shutdownRequested := make(chan struct{})
	if runtime.GOOS == "windows" {
		go func() {
			t := tray.New(logging.Named("tray"), url, bindings.Enabled(), tray.Actions{
				Shutdown:   func() { close(shutdownRequested) },
				SetEnabled: bindings.SetEnabled,
				ClearAll:   bindings.UnmapAll,
			})
			t.Run(cc.deps.Icon)
		}()
	} else {
		logger.Info("Press Ctrl+C to exit")
	}

	// The reader keeps its OS thread locked for SDL.
	inputErr := make(chan error, 1)
	go func() {
		inputErr <- input.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case <-shutdownRequested:
		logger.Info("Shutdown requested from tray")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case err := <-inputErr:
		runErr = err
		inputErr = nil
	}
	cancel()
	logger.Debug("Stopping", zap.Int("clients", h.ClientCount()))

	if inputErr != nil {
		if err := <-inputErr; err != nil && runErr == nil {
			runErr = err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := bindings.Save(); err != nil {
		logger.Error("Failed to save bindings", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("padbind stopped", zap.Error(runErr))
		return runErr
	}
	logger.Info("padbind stopped")
	return nil
}

var _ gamepad.Persister = (*config.Store)(nil)
