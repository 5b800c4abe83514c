package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its struct tags and the rules
// that tags cannot express.
//
// Validation does not normalize values; normalization happens in ApplyDefaults.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return formatValidationErrors(verrs)
		}
		return err
	}

	u, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url: unsupported scheme %q (want http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.url: missing host")
	}

	return nil
}

// formatValidationErrors turns validator errors into a single readable error,
// one line per field, e.g. "Logging.Level: failed 'oneof' (DEBUG INFO ...)".
func formatValidationErrors(verrs validator.ValidationErrors) error {
	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		line := fmt.Sprintf("%s: failed '%s'", field, fe.Tag())
		if fe.Param() != "" {
			line += fmt.Sprintf(" (%s)", fe.Param())
		}
		lines = append(lines, line)
	}
	return errors.New(strings.Join(lines, "; "))
}
