package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

type API struct {
	BaseURL string `yaml:"base_url" env:"BRIO_API_URL" env-default:"http://localhost:8080/api/v1"`
}

type Logging struct {
	Level string `yaml:"level" env:"BRIO_LOG_LEVEL" env-default:"info"`
	// File overrides the default log location under the state directory.
	// The TUI owns the terminal, so logs never go to stdout.
	File string `yaml:"file" env:"BRIO_LOG_FILE"`
}

type Audio struct {
	SampleRate uint32 `yaml:"sample_rate" env:"BRIO_AUDIO_SAMPLE_RATE" env-default:"16000"`
	Channels   uint32 `yaml:"channels" env:"BRIO_AUDIO_CHANNELS" env-default:"1"`
}

type Config struct {
	API      API     `yaml:"api"`
	Logging  Logging `yaml:"logging"`
	Audio    Audio   `yaml:"audio"`
	StateDir string  `yaml:"state_dir" env:"BRIO_STATE_DIR"`
}

// Load reads the optional yaml config file, then applies environment
// overrides. StateDir defaults to the user config directory.
func Load(cfgPath string) (*Config, error) {
	var cfg Config
	if cfgPath != "" {
		if err := cleanenv.ReadConfig(cfgPath, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		cfg.StateDir = filepath.Join(base, "briochat")
	}
	return &cfg, nil
}

// LogPath returns the effective log file location.
func (c *Config) LogPath() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.StateDir, "briochat.log")
}
