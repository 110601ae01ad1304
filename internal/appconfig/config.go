package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/traycon/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Console       ConsoleConfig `mapstructure:"console" yaml:"console"`
	SSH           SSHConfig     `mapstructure:"ssh" yaml:"ssh"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Tray          TrayConfig    `mapstructure:"tray" yaml:"tray"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ConsoleConfig controls the core console behavior.
type ConsoleConfig struct {
	TranscriptCapacity     int    `mapstructure:"transcript_capacity" yaml:"transcript_capacity"`
	LineEnding             string `mapstructure:"line_ending" yaml:"line_ending"`
	StatusText             string `mapstructure:"status_text" yaml:"status_text"`
	ProducerIntervalMillis int    `mapstructure:"producer_interval_ms" yaml:"producer_interval_ms"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	QueueSize              int    `mapstructure:"queue_size" yaml:"queue_size"`
}

// SSHConfig configures the SSH console surface.
type SSHConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr           string `mapstructure:"addr" yaml:"addr"`
	HostKeyPath    string `mapstructure:"host_key_path" yaml:"host_key_path"`
	KeyStorePath   string `mapstructure:"key_store_path" yaml:"key_store_path"`
	AuthorizedKeys string `mapstructure:"authorized_keys" yaml:"authorized_keys"`
}

// HTTPConfig configures the HTTP control surface.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// TrayConfig configures the system tray affordance.
type TrayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Tooltip string `mapstructure:"tooltip" yaml:"tooltip"`
}

// DefaultTrayTooltip labels the tray icon.
const DefaultTrayTooltip = "Console App"

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".traycon", "state"),
		Console: ConsoleConfig{
			TranscriptCapacity:     schema.DefaultTranscriptCapacity,
			LineEnding:             "crlf",
			StatusText:             schema.DefaultStatusText,
			ProducerIntervalMillis: 1000,
			ShutdownTimeoutSeconds: 5,
			QueueSize:              schema.DefaultQueueSize,
		},
		SSH: SSHConfig{
			Enabled:        true,
			Addr:           ":27422",
			HostKeyPath:    filepath.Join(home, ".traycon", "ssh_host_key"),
			KeyStorePath:   filepath.Join(home, ".traycon", "state", "ssh", "keys.bundle"),
			AuthorizedKeys: "",
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Addr:    ":27480",
		},
		Tray: TrayConfig{
			Enabled: false,
			Tooltip: DefaultTrayTooltip,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".traycon", "config.yaml"), nil
}

// ParseLineEnding maps the config selector to a schema line ending.
func ParseLineEnding(value string) (schema.LineEnding, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "crlf":
		return schema.LineEndingCRLF, nil
	case "lf":
		return schema.LineEndingLF, nil
	default:
		return "", fmt.Errorf("console.line_ending must be crlf or lf, got %q", value)
	}
}
