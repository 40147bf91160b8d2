package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/nearlight/nearlight/libs/log"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultNearlightDir = ".nearlight"
	defaultConfigDir    = "config"
	defaultDataDir      = "data"

	defaultConfigFileName     = "config.toml"
	defaultCheckpointFileName = "checkpoint.json"

	defaultConfigFilePath     = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultCheckpointFilePath = filepath.Join(defaultConfigDir, defaultCheckpointFileName)
)

// Config defines the top level configuration for a nearlight client.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Light           *LightConfig           `mapstructure:"light"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration for a nearlight client.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Light:           DefaultLightConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Light:           TestLightConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	cfg.Light.RootDir = root
	cfg.Instrumentation.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Light.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [light] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for a nearlight client.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Database backend: goleveldb | memdb
	// * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
	//   - pure go
	//   - stable
	// * memdb
	//   - nothing is persisted, useful for one-shot verification
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (text) or 'json'
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration for a nearlight
// client.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  DefaultLogLevel,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing a nearlight
// client.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log_format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}
	if cfg.DBBackend == "" {
		return errors.New("db_backend can't be empty")
	}
	return nil
}

// DefaultLogLevel is "info".
const DefaultLogLevel = log.LogLevelInfo

//-----------------------------------------------------------------------------
// LightConfig

// LightConfig defines the configuration of the light client.
type LightConfig struct {
	RootDir string `mapstructure:"home"`

	// Name of the chain the client follows. Used as a label only.
	ChainID string `mapstructure:"chain_id"`

	// Path to the JSON checkpoint the client is bootstrapped from.
	TrustedCheckpoint string `mapstructure:"trusted_checkpoint_file"`

	// Number of checkpoints kept in the store. 0 keeps all of them.
	PruningSize uint16 `mapstructure:"pruning_size"`

	// Number of inclusion proofs verified at once.
	MaxParallelProofs int `mapstructure:"max_parallel_proofs"`
}

// DefaultLightConfig returns a default configuration for the light client.
func DefaultLightConfig() *LightConfig {
	return &LightConfig{
		ChainID:           "mainnet",
		TrustedCheckpoint: defaultCheckpointFilePath,
		PruningSize:       1000,
		MaxParallelProofs: 8,
	}
}

// TestLightConfig returns a configuration for testing the light client.
func TestLightConfig() *LightConfig {
	cfg := DefaultLightConfig()
	cfg.ChainID = "localnet"
	cfg.PruningSize = 10
	cfg.MaxParallelProofs = 2
	return cfg
}

// TrustedCheckpointFile returns the full path to the trusted checkpoint.
func (cfg *LightConfig) TrustedCheckpointFile() string {
	return rootify(cfg.TrustedCheckpoint, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *LightConfig) ValidateBasic() error {
	if cfg.TrustedCheckpoint == "" {
		return errors.New("trusted_checkpoint_file can't be empty")
	}
	if cfg.MaxParallelProofs < 1 {
		return errors.New("max_parallel_proofs must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	RootDir string `mapstructure:"home"`

	// When true, Prometheus metrics are written to PrometheusTextfile after
	// every command, in the format read by the node exporter's textfile
	// collector.
	Prometheus bool `mapstructure:"prometheus"`

	// File the metrics are written to.
	PrometheusTextfile string `mapstructure:"prometheus_textfile"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:         false,
		PrometheusTextfile: filepath.Join(defaultDataDir, "nearlight.prom"),
		Namespace:          "nearlight",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// PrometheusTextfilePath returns the full path to the metrics file.
func (cfg *InstrumentationConfig) PrometheusTextfilePath() string {
	return rootify(cfg.PrometheusTextfile, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusTextfile == "" {
		return errors.New("prometheus_textfile can't be empty when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
