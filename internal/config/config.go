// Package config handles configuration management using Viper.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	Socket    SocketConfig    `mapstructure:"socket"`
	Watchdog  WatchdogConfig  `mapstructure:"watchdog"`
	Keyboard  KeyboardConfig  `mapstructure:"keyboard"`
	Log       LogConfig       `mapstructure:"log"`
	Readiness ReadinessConfig `mapstructure:"readiness"`
}

// SocketConfig names the Unix socket the engine listens on.
type SocketConfig struct {
	Name       string `mapstructure:"name"`
	RuntimeDir string `mapstructure:"runtime_dir"`
}

// WatchdogConfig controls the event-loop watchdog timer (§9).
type WatchdogConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Period  time.Duration `mapstructure:"period"`
}

// KeyboardConfig names the default xkb keymap and repeat timings
// handed to every wl_seat on bind.
type KeyboardConfig struct {
	XkbRules   string `mapstructure:"xkb_rules"`
	XkbModel   string `mapstructure:"xkb_model"`
	XkbLayout  string `mapstructure:"xkb_layout"`
	RepeatRate int32  `mapstructure:"repeat_rate"`
	RepeatDelay int32 `mapstructure:"repeat_delay"`
}

// LogConfig controls charmbracelet/log's level and report format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReadinessConfig gates the optional sd_notify-style readiness ping.
type ReadinessConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the configuration used when no flag, environment
// variable or config file overrides a value.
func Default() Config {
	return Config{
		Socket: SocketConfig{
			Name:       "wayland-0",
			RuntimeDir: runtimeDirDefault(),
		},
		Watchdog: WatchdogConfig{
			Enabled: false,
			Period:  60 * time.Millisecond,
		},
		Keyboard: KeyboardConfig{
			XkbRules:    "evdev",
			XkbModel:    "evdev",
			XkbLayout:   "us",
			RepeatRate:  25,
			RepeatDelay: 600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Readiness: ReadinessConfig{
			Enabled: true,
		},
	}
}

// runtimeDirDefault mirrors XDG_RUNTIME_DIR with an XDG_DATA_HOME,
// then /tmp, fallback for environments that set neither.
func runtimeDirDefault() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return "/tmp"
}

// Load binds viper to defaults, environment variables (NOIAD_ prefix,
// nested keys joined with "_") and whatever flags the caller already
// registered on v, then unmarshals into a Config.
func Load(v *viper.Viper) (Config, error) {
	def := Default()

	v.SetDefault("socket.name", def.Socket.Name)
	v.SetDefault("socket.runtime_dir", def.Socket.RuntimeDir)
	v.SetDefault("watchdog.enabled", def.Watchdog.Enabled)
	v.SetDefault("watchdog.period", def.Watchdog.Period)
	v.SetDefault("keyboard.xkb_rules", def.Keyboard.XkbRules)
	v.SetDefault("keyboard.xkb_model", def.Keyboard.XkbModel)
	v.SetDefault("keyboard.xkb_layout", def.Keyboard.XkbLayout)
	v.SetDefault("keyboard.repeat_rate", def.Keyboard.RepeatRate)
	v.SetDefault("keyboard.repeat_delay", def.Keyboard.RepeatDelay)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("readiness.enabled", def.Readiness.Enabled)

	v.SetEnvPrefix("noiad")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Socket.RuntimeDir == "" {
		cfg.Socket.RuntimeDir = runtimeDirDefault()
	}
	return cfg, nil
}
