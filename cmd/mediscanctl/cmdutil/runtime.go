package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yammahtea/mediscan/internal/logger"
	"github.com/yammahtea/mediscan/internal/telemetry"
	"github.com/yammahtea/mediscan/pkg/config"
	"github.com/yammahtea/mediscan/pkg/metrics"

	// Registers the Prometheus implementations used by pkg/metrics.
	_ "github.com/yammahtea/mediscan/pkg/metrics/prometheus"
)

var (
	runtimeMu sync.Mutex
	active    *Runtime
)

// Runtime is the process-wide state set up before a command runs.
type Runtime struct {
	Config  *config.Config
	Version string

	shutdownTelemetry func(context.Context) error
}

// Setup loads the configuration and initializes logging, tracing and
// metrics. Flags override configured values.
func Setup(ctx context.Context, version string) error {
	cfg, err := config.Load(Flags.ConfigFile)
	if err != nil {
		return err
	}

	if Flags.Verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "mediscanctl",
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	} else {
		metrics.Reset()
	}

	runtimeMu.Lock()
	active = &Runtime{Config: cfg, Version: version, shutdownTelemetry: shutdown}
	runtimeMu.Unlock()

	logger.Debug("configuration loaded",
		"config", Flags.ConfigFile,
		"telemetry", cfg.Telemetry.Enabled,
		"metrics", cfg.Metrics.Enabled)
	return nil
}

// Config returns the loaded configuration, or the defaults when Setup has
// not run (e.g. for commands that skip it).
func Config() *config.Config {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	if active == nil {
		return config.GetDefaultConfig()
	}
	return active.Config
}

// Shutdown flushes traces and writes the metrics textfile. It is safe to
// call when Setup did not run or failed.
func Shutdown() error {
	runtimeMu.Lock()
	rt := active
	active = nil
	runtimeMu.Unlock()

	if rt == nil {
		return nil
	}

	var errs []error
	if rt.Config.Metrics.Enabled {
		if err := metrics.WriteTextfile(rt.Config.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.shutdownTelemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}
