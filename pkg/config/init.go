package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# MediScan client configuration
#
# Every value can be overridden with a MEDISCAN_ environment variable,
# e.g. MEDISCAN_SERVER_URL or MEDISCAN_LOGGING_LEVEL.

server:
  # Base URL of the API. Fixed for the lifetime of a command.
  url: %q
  # Upper bound for a single HTTP exchange, refresh included.
  timeout: %s
  user_agent: %q

logging:
  # DEBUG, INFO, WARN or ERROR
  level: %q
  # text or json
  format: %q
  # stdout, stderr or a file path
  output: %q

telemetry:
  enabled: false
  endpoint: %q
  insecure: true
  sample_rate: 1.0

metrics:
  # Write Prometheus metrics to a node_exporter textfile after each command.
  enabled: false
  # textfile: /var/lib/node_exporter/textfile/mediscanctl.prom
`

// InitConfig writes a commented default configuration to the default
// location and returns its path. An existing file is only replaced when
// force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a commented default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := GetDefaultConfig()
	content := fmt.Sprintf(configTemplate,
		d.Server.URL,
		d.Server.Timeout,
		d.Server.UserAgent,
		d.Logging.Level,
		d.Logging.Format,
		d.Logging.Output,
		d.Telemetry.Endpoint,
	)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
