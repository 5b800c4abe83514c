package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Expected default URL %q, got %q", DefaultServerURL, cfg.Server.URL)
	}
	if cfg.Server.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Server.Timeout)
	}
	if cfg.Server.UserAgent != "mediscanctl" {
		t.Errorf("Expected default user agent 'mediscanctl', got %q", cfg.Server.UserAgent)
	}
}

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected default log level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default log output 'stderr', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Enabled {
		t.Error("Expected telemetry to be disabled by default")
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default endpoint 'localhost:4317', got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Textfile != "" {
		t.Errorf("Expected no textfile while metrics are disabled, got %q", cfg.Metrics.Textfile)
	}

	cfg = &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg)
	if filepath.Base(cfg.Metrics.Textfile) != "mediscanctl.prom" {
		t.Errorf("Expected default textfile 'mediscanctl.prom', got %q", cfg.Metrics.Textfile)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			URL:       "https://api.example.com",
			Timeout:   5 * time.Second,
			UserAgent: "custom",
		},
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Format: "json",
			Output: "/var/log/mediscan.log",
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Textfile: "/tmp/custom.prom",
		},
	}

	ApplyDefaults(cfg)

	if cfg.Server.URL != "https://api.example.com" {
		t.Errorf("Expected explicit URL preserved, got %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Expected explicit timeout 5s preserved, got %v", cfg.Server.Timeout)
	}
	if cfg.Server.UserAgent != "custom" {
		t.Errorf("Expected explicit user agent preserved, got %q", cfg.Server.UserAgent)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected explicit level 'DEBUG' preserved, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected explicit format 'json' preserved, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "/var/log/mediscan.log" {
		t.Errorf("Expected explicit output preserved, got %q", cfg.Logging.Output)
	}
	if cfg.Metrics.Textfile != "/tmp/custom.prom" {
		t.Errorf("Expected explicit textfile preserved, got %q", cfg.Metrics.Textfile)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config should be valid, got: %v", err)
	}
}
