package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTickInterval = 16 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
	DefaultProviderURL  = "https://spclient.wg.spotify.com/color-lyrics/v2"
)

// tomlConfig mirrors the on-disk file. Durations are strings so the
// file can say "16ms" instead of nanosecond counts.
type tomlConfig struct {
	App struct {
		TickInterval string `toml:"tick_interval"`
		PollInterval string `toml:"poll_interval"`
	} `toml:"app"`

	Provider struct {
		BaseURL     string `toml:"base_url"`
		AccessToken string `toml:"access_token"`
	} `toml:"provider"`

	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

type AppConfig struct {
	// TickInterval is the playback clock's frame cadence.
	TickInterval time.Duration
	// PollInterval is how often the host adapter polls the player.
	PollInterval time.Duration
}

type ProviderConfig struct {
	BaseURL     string
	AccessToken string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type Config struct {
	App      AppConfig
	Provider ProviderConfig
	Redis    RedisConfig
}

func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricsync", "config.toml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warn().Err(err).Msg("Cannot determine home directory, reading config.toml from cwd")
		return "config.toml"
	}

	return filepath.Join(homeDir, ".config", "lyricsync", "config.toml")
}

func loadTomlConfig() (*tomlConfig, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Info().Str("path", configPath).Msg("Config file not found, using defaults")
		return &tomlConfig{}, nil
	}

	var config tomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}

	log.Info().Str("path", configPath).Msg("Loaded config")
	return &config, nil
}

// Load reads .env, the TOML file and the environment, in that order of
// increasing precedence, on top of built-in defaults.
func Load() *Config {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	fileConfig, err := loadTomlConfig()
	if err != nil {
		log.Error().Err(err).Msg("Failed to parse config file, using defaults")
		fileConfig = &tomlConfig{}
	}

	config := &Config{
		App: AppConfig{
			TickInterval: DefaultTickInterval,
			PollInterval: DefaultPollInterval,
		},
		Provider: ProviderConfig{
			BaseURL: DefaultProviderURL,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			DB:   0,
		},
	}

	if fileConfig.App.TickInterval != "" {
		if duration, err := time.ParseDuration(fileConfig.App.TickInterval); err == nil {
			config.App.TickInterval = duration
		} else {
			log.Warn().Str("value", fileConfig.App.TickInterval).Msg("Invalid tick_interval, using default")
		}
	}

	if fileConfig.App.PollInterval != "" {
		if duration, err := time.ParseDuration(fileConfig.App.PollInterval); err == nil {
			config.App.PollInterval = duration
		} else {
			log.Warn().Str("value", fileConfig.App.PollInterval).Msg("Invalid poll_interval, using default")
		}
	}

	if fileConfig.Provider.BaseURL != "" {
		config.Provider.BaseURL = fileConfig.Provider.BaseURL
	}

	if fileConfig.Provider.AccessToken != "" {
		config.Provider.AccessToken = fileConfig.Provider.AccessToken
	}

	if fileConfig.Redis.Addr != "" {
		config.Redis.Addr = fileConfig.Redis.Addr
	}

	if fileConfig.Redis.Password != "" {
		config.Redis.Password = fileConfig.Redis.Password
	}

	if fileConfig.Redis.DB != 0 {
		config.Redis.DB = fileConfig.Redis.DB
	}

	// Secrets may live in the environment instead of the file.
	if token := os.Getenv("LYRICSYNC_ACCESS_TOKEN"); token != "" {
		config.Provider.AccessToken = token
	}

	if password := os.Getenv("LYRICSYNC_REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}

	if config.Provider.AccessToken == "" {
		log.Warn().Str("path", getConfigPath()).
			Msg("No provider access token configured; lyrics requests will be rejected")
	}

	return config
}
