package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBHost     = "localhost"
	DefaultDBPort     = 5432
	DefaultDBName     = "test"
	DefaultDBUser     = "test"
	DefaultDBPassword = "test"
	DefaultDBSSLMode  = "disable"
	DefaultMaxConns   = 4
	DefaultTimeout    = 30 * time.Second
	DefaultQuery      = "juxt_bird"
	DefaultLayer      = "frame"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

func (c *ProbeConfig) applyDefaults() {
	// Database defaults
	if c.Database.Host == "" {
		c.Database.Host = DefaultDBHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.Name == "" {
		c.Database.Name = DefaultDBName
	}
	if c.Database.User == "" {
		c.Database.User = DefaultDBUser
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}

	// Probe defaults
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = DefaultTimeout
	}
	if c.Probe.DefaultQuery == "" {
		c.Probe.DefaultQuery = DefaultQuery
	}
	if c.Probe.DefaultLayer == "" {
		c.Probe.DefaultLayer = DefaultLayer
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
