package config

import "errors"

// Config is the top-level configuration struct for icepack.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	SearchPaths   []string            `mapstructure:"search_paths"`
	Excludes      []string            `mapstructure:"excludes"`
	HiddenImports []string            `mapstructure:"hidden_imports"`
	Trace         TraceConfig         `mapstructure:"trace"`
	Hooks         HooksConfig         `mapstructure:"hooks"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Output        OutputConfig        `mapstructure:"output"`
	Log           LogConfig           `mapstructure:"log"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// TraceConfig holds import walk resource knobs.
type TraceConfig struct {
	Workers           int   `mapstructure:"workers"`
	MaxFileSize       int64 `mapstructure:"max_file_size"`
	DedupeOccurrences bool  `mapstructure:"dedupe_occurrences"`
}

// HooksConfig holds hook discovery settings.
type HooksConfig struct {
	Dir string `mapstructure:"dir"`
}

// CacheConfig holds scan cache settings.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	DiagnosticsAddr string  `mapstructure:"diagnostics_addr"`
}

// Default configuration values.
const (
	// DefaultTraceWorkers is the default parallel parse width.
	DefaultTraceWorkers = 4
	// DefaultTraceMaxFileSize is the default per-file size cap in bytes.
	DefaultTraceMaxFileSize = 1 << 20
	// DefaultCachePath is the default scan cache location.
	DefaultCachePath = ".icepack-cache.lz4"
	// DefaultHooksDir is the default hook directory.
	DefaultHooksDir = "hooks"
	// DefaultOutputFormat is the default report format.
	DefaultOutputFormat = "text"
	// DefaultLogLevel is the default slog severity.
	DefaultLogLevel = "info"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("trace.workers must be non-negative")
	// ErrInvalidMaxFileSize indicates the file size cap is negative.
	ErrInvalidMaxFileSize = errors.New("trace.max_file_size must be non-negative")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of: text, json, yaml")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("log.level must be one of: debug, info, warn, error")
	// ErrInvalidSampleRatio indicates the trace sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
)

var validFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Trace.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Trace.MaxFileSize < 0 {
		return ErrInvalidMaxFileSize
	}

	if c.Output.Format != "" && !validFormats[c.Output.Format] {
		return ErrInvalidFormat
	}

	if c.Log.Level != "" && !validLogLevels[c.Log.Level] {
		return ErrInvalidLogLevel
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}
