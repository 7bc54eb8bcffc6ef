package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	validLayers     = []string{"driver", "toolkit", "frame"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks that all required fields are set and values are valid.
func (c *ProbeConfig) Validate() error {
	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Probe.Timeout <= 0 {
		return errors.New("probe.timeout must be > 0")
	}
	if !slices.Contains(validLayers, c.Probe.DefaultLayer) {
		return fmt.Errorf("probe.default_layer must be one of %s, got %q",
			strings.Join(validLayers, ", "), c.Probe.DefaultLayer)
	}

	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("log.level must be one of %s, got %q",
			strings.Join(validLogLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("log.format must be one of %s, got %q",
			strings.Join(validLogFormats, ", "), c.Log.Format)
	}

	seen := make(map[string]bool, len(c.Queries))
	for i, q := range c.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d].name is required", i)
		}
		if strings.TrimSpace(q.SQL) == "" {
			return fmt.Errorf("queries[%d].sql is required", i)
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d].name %q is duplicated", i, q.Name)
		}
		seen[q.Name] = true
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, db.Port)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
