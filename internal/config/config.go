package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Story   StoryConfig
	UI      UIConfig
	Player  PlayerConfig
	Log     LogConfig
	History HistoryConfig
}

// StoryConfig selects the story document. An empty path uses the bundled story.
type StoryConfig struct {
	Path string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Mode        string        `mapstructure:"mode"` // "console" or "tui"
	ClearScreen bool          `mapstructure:"clear_screen"`
	TitleDelay  time.Duration `mapstructure:"title_delay"`
	BodyDelay   time.Duration `mapstructure:"body_delay"`
	ChoiceDelay time.Duration `mapstructure:"choice_delay"`
	IntroDelay  time.Duration `mapstructure:"intro_delay"`
}

// PlayerConfig holds player defaults.
type PlayerConfig struct {
	DefaultName string `mapstructure:"default_name"`
}

// LogConfig holds the debug log settings. An empty path disables logging.
type LogConfig struct {
	Path  string
	Level string
}

// HistoryConfig holds the play history database settings.
type HistoryConfig struct {
	Enabled bool
	Path    string
}

const (
	ModeConsole = "console"
	ModeTUI     = "tui"
)

// Path returns the config file location: $ECHOES_CONFIG, else
// ~/.config/echoes/config.toml.
func Path() string {
	if p := os.Getenv("ECHOES_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "echoes", "config.toml")
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("story.path", "")
	v.SetDefault("ui.mode", ModeConsole)
	v.SetDefault("ui.clear_screen", true)
	v.SetDefault("ui.title_delay", "10ms")
	v.SetDefault("ui.body_delay", "20ms")
	v.SetDefault("ui.choice_delay", "10ms")
	v.SetDefault("ui.intro_delay", "20ms")
	v.SetDefault("player.default_name", "Dr. Alex Riven")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "echoes", "echoes.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(home, ".local", "share", "echoes", "history.db"))
}

// Defaults returns the built-in settings, ignoring file and env.
func Defaults() (Config, error) {
	v := viper.New()
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal defaults: %w", err)
	}
	return c, nil
}

// EnsureFile writes the defaults to Path when no config file exists yet. It
// reports whether a file was created.
func EnsureFile() (bool, error) {
	if _, err := os.Stat(Path()); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	c, err := Defaults()
	if err != nil {
		return false, err
	}
	if err := Save(c); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads configuration from file and env. Env var overrides use prefix ECHOES_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("ECHOES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing config file is fine, a broken one is not
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	if c.UI.Mode != ModeConsole && c.UI.Mode != ModeTUI {
		return Config{}, fmt.Errorf("ui.mode %q: want %q or %q", c.UI.Mode, ModeConsole, ModeTUI)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("story.path", cfg.Story.Path)
	v.Set("ui.mode", cfg.UI.Mode)
	v.Set("ui.clear_screen", cfg.UI.ClearScreen)
	v.Set("ui.title_delay", cfg.UI.TitleDelay.String())
	v.Set("ui.body_delay", cfg.UI.BodyDelay.String())
	v.Set("ui.choice_delay", cfg.UI.ChoiceDelay.String())
	v.Set("ui.intro_delay", cfg.UI.IntroDelay.String())
	v.Set("player.default_name", cfg.Player.DefaultName)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("history.enabled", cfg.History.Enabled)
	v.Set("history.path", cfg.History.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
