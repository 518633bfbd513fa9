package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a configuration issue.
type ValidationError struct {
	Field   string
	Message string
}

// Validate checks settings that would make vmctl misbehave.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Home == "" {
		errs = append(errs, ValidationError{Field: "home", Message: "must not be empty"})
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "stop_timeout", Message: "must be positive"})
	}
	if c.StopPollAttempts <= 0 {
		errs = append(errs, ValidationError{Field: "stop_poll_attempts", Message: "must be positive"})
	}
	if c.StopPollInterval <= 0 {
		errs = append(errs, ValidationError{Field: "stop_poll_interval", Message: "must be positive"})
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, ValidationError{Field: "log_level", Message: err.Error()})
	}
	if c.DefaultDiskSizeGB == 0 {
		errs = append(errs, ValidationError{Field: "default_disk_size_gb", Message: "must be at least 1"})
	}

	return errs
}

// FormatValidationErrors returns human-readable error summary.
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("invalid configuration:")
	for _, e := range errs {
		fmt.Fprintf(&b, "\n  [%s]: %s", e.Field, e.Message)
	}
	return b.String()
}
