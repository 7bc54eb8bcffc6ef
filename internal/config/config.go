package config

import "time"

// ProbeConfig is the root configuration for a sqlprobe run.
type ProbeConfig struct {
	Database DBConfig      `yaml:"database"`
	Probe    RunConfig     `yaml:"probe"`
	Log      LogConfig     `yaml:"log"`
	Queries  []QueryConfig `yaml:"queries"`
}

// DBConfig holds the PostgreSQL connection shared by all access layers.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`

	// NativeHstore registers the hstore type on driver connections so values
	// decode to maps instead of their text form.
	NativeHstore bool `yaml:"native_hstore"`
}

// RunConfig controls how probes are executed.
type RunConfig struct {
	Timeout      time.Duration `yaml:"timeout"` // per query
	Echo         bool          `yaml:"echo"`    // log SQL issued by the toolkit layer
	DefaultQuery string        `yaml:"default_query"`
	DefaultLayer string        `yaml:"default_layer"`
}

// LogConfig holds slog settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// QueryConfig declares an extra named query.
type QueryConfig struct {
	Name          string `yaml:"name"`
	SQL           string `yaml:"sql"`
	Field         string `yaml:"field"`
	Description   string `yaml:"description"`
	ExpectFailure bool   `yaml:"expect_failure"`
}
