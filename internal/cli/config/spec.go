package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the ccm tool configuration.
type Config struct {
	// Root is the directory holding one subdirectory per cluster.
	Root string `koanf:"root" validate:"required"`
	// InstallDir is the default database install used by create.
	InstallDir string `koanf:"install_dir"`
	// Version is the database version assumed when create is not told.
	Version string `koanf:"version"`

	Log     LogConfig     `koanf:"log"`
	Start   StartConfig   `koanf:"start"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LogConfig configures the tool's own logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// StartConfig holds start-up wait defaults.
type StartConfig struct {
	ReadyTimeout time.Duration `koanf:"ready_timeout" validate:"gt=0"`
	AliveTimeout time.Duration `koanf:"alive_timeout" validate:"gt=0"`
	NoWaitDelay  time.Duration `koanf:"no_wait_delay" validate:"gte=0"`
	SettleDelay  time.Duration `koanf:"settle_delay" validate:"gte=0"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile, when set, receives the metrics after every command.
	Textfile string `koanf:"textfile"`
}

// Keys lists every dotted configuration key.
var Keys = []string{
	"root",
	"install_dir",
	"version",
	"log.level",
	"log.format",
	"start.ready_timeout",
	"start.alive_timeout",
	"start.no_wait_delay",
	"start.settle_delay",
	"metrics.textfile",
}

// DefaultRoot returns ~/.ccm, or .ccm when the home directory is unknown.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ccm"
	}
	return filepath.Join(home, ".ccm")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultRoot(), "config.yaml")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Root: DefaultRoot(),
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Start: StartConfig{
			ReadyTimeout: 10 * time.Minute,
			AliveTimeout: 2 * time.Minute,
			NoWaitDelay:  2 * time.Second,
			SettleDelay:  200 * time.Millisecond,
		},
	}
}

var validate = validator.New()

// Verify checks the configuration for invalid values.
func (c *Config) Verify() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s=%v (%s)", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
