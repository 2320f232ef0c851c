package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"zanalytics/pkg/logging"
)

// stopTimeout bounds the graceful shutdown after the run context ends.
const stopTimeout = 10 * time.Second

// runService starts the gateway and the credential watcher, reports
// readiness to the service manager, and blocks until ctx is canceled.
// Shutdown stops the gateway first so in-flight requests drain against a
// still-working client, then the watcher and the auth server.
func runService(ctx context.Context, services *Services) error {
	if err := services.Gateway.Start(ctx); err != nil {
		logging.Error("Service", err, "Failed to start gateway")
		return err
	}

	if services.Watcher != nil {
		if err := services.Watcher.Start(); err != nil {
			logging.Warn("Service", "Credential watcher failed to start: %v", err)
		}
	}

	// SdNotify is a no-op outside systemd.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Debug("Service", "sd_notify not available: %v", err)
	}

	logging.Info("Service", "Gateway listening on %s", services.Gateway.Addr())

	<-ctx.Done()

	logging.Info("Service", "Shutdown signal received, stopping services")
	if _, err := daemon.SdNotify(false, daemon.SdNotifyStopping); err != nil {
		logging.Debug("Service", "sd_notify not available: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	var firstErr error
	if err := services.Gateway.Stop(stopCtx); err != nil {
		logging.Error("Service", err, "Failed to stop gateway cleanly")
		firstErr = err
	}
	if services.Watcher != nil {
		if err := services.Watcher.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	services.Auth.Stop()

	return firstErr
}
