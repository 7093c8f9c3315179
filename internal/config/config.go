package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AIConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Model         string        `mapstructure:"model"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int64         `mapstructure:"max_concurrent"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Temperature   float64       `mapstructure:"temperature"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	// AdminPassword guards the admin REST surface. Empty makes every admin request fail with 500.
	AdminPassword string `mapstructure:"admin_password"`

	SendBuffer   int     `mapstructure:"send_buffer"`
	HistoryLimit int     `mapstructure:"history_limit"`
	MaxLog       int     `mapstructure:"max_log"`
	SendRate     float64 `mapstructure:"send_rate"`
	SendBurst    int     `mapstructure:"send_burst"`

	HTTPRatePerMinute  int `mapstructure:"http_rate_per_minute"`
	AdminRatePerMinute int `mapstructure:"admin_rate_per_minute"`

	AI AIConfig `mapstructure:"ai"`
}

var envBindings = map[string]string{
	"port":           "PORT",
	"admin_password": "GLOBAL_ADMIN_PASSWORD",
	"secret":         "SESSION_SECRET",
	"ai.api_key":     "GROQ_API_KEY",
	"log_level":      "LOG_LEVEL",
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 16384)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_password", "")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("history_limit", 100)
	v.SetDefault("max_log", 1000)
	v.SetDefault("send_rate", 5)
	v.SetDefault("send_burst", 10)
	v.SetDefault("http_rate_per_minute", 100)
	v.SetDefault("admin_rate_per_minute", 20)
	v.SetDefault("ai.endpoint", "https://api.groq.com/openai/v1/chat/completions")
	v.SetDefault("ai.model", "llama-3.1-8b-instant")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.timeout", "8s")
	v.SetDefault("ai.max_concurrent", 4)
	v.SetDefault("ai.max_tokens", 400)
	v.SetDefault("ai.temperature", 0.7)

	for key, name := range envBindings {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Secret == "" {
		cfg.Secret = uuid.NewString()
		log.Warn().Str("module", "config").Msg("secret not set, sessions will not survive a restart")
	}
	if cfg.AdminPassword == "" {
		log.Warn().Str("module", "config").Msg("admin_password not set, admin API will refuse every request")
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Bool("ai_key", cfg.AI.APIKey != "").Msg("config ready")
	return &cfg, nil
}
