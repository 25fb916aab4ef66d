package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide immutable configuration, loaded once at startup
// and passed explicitly into each component. Secrets may be supplied via
// environment variables which override the YAML values.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
		Mode string `yaml:"mode"` // "dev" or "prod", selects log encoder
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	OTP struct {
		TTL string `yaml:"ttl"` // default 5m, enforced by the store
	} `yaml:"otp"`
	Quiz struct {
		CacheTTL string `yaml:"cache_ttl"` // quiz read-cache TTL, default 10m
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret  string `yaml:"jwt_secret"`
		SessionTTL string `yaml:"session_ttl"` // default 168h
		ResetTTL   string `yaml:"reset_ttl"`   // default 15m
	} `yaml:"auth"`
	AI struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	GCS struct {
		Bucket string `yaml:"bucket"`
	} `yaml:"gcs"`
	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Auth.JWTSecret, "JWT_SECRET")
	override(&cfg.AI.APIKey, "OPENROUTER_API_KEY")
	override(&cfg.AI.Model, "OPENROUTER_MODEL")
	override(&cfg.SMTP.Password, "SMTP_PASSWORD")
	override(&cfg.Postgres.URL, "POSTGRES_URL")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.GCS.Bucket, "QUIZ_IMAGES_GCS_BUCKET")
}

func override(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty or
// unparseable.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
