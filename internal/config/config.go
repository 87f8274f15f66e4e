// Package config handles loading the tablevet project configuration.
// A project keeps everything under a single configuration directory
// (./tablevet by default): tablevet.yaml, expectation suites, checkpoint
// definitions, and the uncommitted/ scratch area for generated artifacts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultDir is the fixed relative path of the project configuration
// directory, checked by CheckPrerequisites before anything else runs.
const DefaultDir = "tablevet"

// ConfigFileName is the name of the main project configuration file
// inside the configuration directory.
const ConfigFileName = "tablevet.yaml"

// Config holds the project-level configuration loaded from tablevet.yaml.
type Config struct {
	// Datasources maps datasource names to their connection settings.
	Datasources map[string]DatasourceConfig `mapstructure:"datasources"`
	// DefaultCheckpoint is the checkpoint run when none is named on the
	// command line. Optional when the project defines exactly one.
	DefaultCheckpoint string `mapstructure:"default_checkpoint"`
	// DataDocs holds report generation settings.
	DataDocs DataDocsConfig `mapstructure:"data_docs"`
}

// DatasourceConfig holds connection settings for a single datasource.
type DatasourceConfig struct {
	// Driver selects the database driver: postgres, mysql, or sqlite.
	Driver string `mapstructure:"driver"`
	// DSN is the driver-specific connection string. ${VAR} references
	// are expanded from the environment at load time.
	DSN string `mapstructure:"dsn"`
}

// DataDocsConfig holds Data Docs site settings.
type DataDocsConfig struct {
	// SiteDir overrides the generated site location. Relative paths are
	// resolved against the configuration directory. Defaults to
	// uncommitted/data_docs/local_site.
	SiteDir string `mapstructure:"site_dir"`
}

// CheckPrerequisites verifies that the configuration directory exists.
// It fails fast with a descriptive error when the directory is absent;
// no retries, no fallbacks.
func CheckPrerequisites(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("configuration directory %q not found: run 'tablevet init' to create it", dir)
	}
	if err != nil {
		return fmt.Errorf("checking configuration directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("configuration path %q is not a directory", dir)
	}
	return nil
}

// Load reads tablevet.yaml from the given configuration directory.
// Environment variables prefixed with TABLEVET_ override file values,
// and ${VAR} references inside DSNs are expanded.
func Load(dir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(filepath.Join(dir, ConfigFileName))
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading project config: %w", err)
	}

	v.SetEnvPrefix("TABLEVET")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling project config: %w", err)
	}

	for name, ds := range cfg.Datasources {
		ds.DSN = expandEnv(ds.DSN)
		cfg.Datasources[name] = ds
	}

	return cfg, nil
}

// Datasource returns the named datasource configuration.
func (c *Config) Datasource(name string) (DatasourceConfig, error) {
	ds, ok := c.Datasources[name]
	if !ok {
		return DatasourceConfig{}, fmt.Errorf("datasource %q not defined in %s", name, ConfigFileName)
	}
	if ds.Driver == "" {
		return DatasourceConfig{}, fmt.Errorf("datasource %q has no driver configured", name)
	}
	return ds, nil
}

// SiteDir returns the Data Docs site directory for the given
// configuration directory.
func (c *Config) SiteDir(configDir string) string {
	dir := c.DataDocs.SiteDir
	if dir == "" {
		dir = filepath.Join("uncommitted", "data_docs", "local_site")
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(configDir, dir)
}

// HistoryDBPath returns the path of the validation run history database
// for the given configuration directory.
func HistoryDBPath(configDir string) string {
	return filepath.Join(configDir, "uncommitted", "validations.db")
}

// RunLogPath returns the path of the run log file for the given
// configuration directory.
func RunLogPath(configDir string) string {
	return filepath.Join(configDir, "uncommitted", "logs", "run.log")
}

// SuitesDir returns the expectation suites directory.
func SuitesDir(configDir string) string {
	return filepath.Join(configDir, "suites")
}

// CheckpointsDir returns the checkpoint definitions directory.
func CheckpointsDir(configDir string) string {
	return filepath.Join(configDir, "checkpoints")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("default_checkpoint", "")
	v.SetDefault("data_docs.site_dir", "")
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
