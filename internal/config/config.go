package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Env       string `mapstructure:"env"`
	LogLevel  string `mapstructure:"log_level"`
	Mode      Mode   `mapstructure:"mode"`
	HTTPAddr  string `mapstructure:"http_addr"`
	PublicURL string `mapstructure:"public_url"`

	QuestionsDir string `mapstructure:"questions_dir"`
	BlobBasePath string `mapstructure:"blob_base_path"` // narration audio cache

	DB      DB      `mapstructure:"db"`
	Auth    Auth    `mapstructure:"auth"`
	TTS     TTS     `mapstructure:"tts"`
	Session Session `mapstructure:"session"`

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`
}

type DB struct {
	Driver string `mapstructure:"driver"` // sqlite|postgres
	DSN    string `mapstructure:"dsn"`
}

type Auth struct {
	HMACSecret    string        `mapstructure:"hmac_secret"`
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPassHash string        `mapstructure:"admin_pass_hash"` // bcrypt
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

type TTS struct {
	Enabled  bool          `mapstructure:"enabled"`
	Retries  int           `mapstructure:"retries"`
	Delay    time.Duration `mapstructure:"delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
	HFToken  string        `mapstructure:"hf_token"`
	Backends []Backend     `mapstructure:"backends"`
}

// Backend describes one Gradio text-to-speech space.
type Backend struct {
	Name     string  `mapstructure:"name"`
	BaseURL  string  `mapstructure:"base_url"`
	API      string  `mapstructure:"api"`
	Extended bool    `mapstructure:"extended"` // accepts language/voice/speed
	Language string  `mapstructure:"language"`
	Voice    string  `mapstructure:"voice"`
	Speaker  string  `mapstructure:"speaker"`
	Speed    float64 `mapstructure:"speed"`
}

type Session struct {
	IdleTTL    time.Duration `mapstructure:"idle_ttl"`
	SweepEvery time.Duration `mapstructure:"sweep_every"`
}

// DefaultBackends mirrors the three public narration spaces the simulator
// has always rotated through, fastest first.
func DefaultBackends() []Backend {
	return []Backend{
		{
			Name:     "text-to-speech-fast",
			BaseURL:  "https://ruslanmv-text-to-speech-fast.hf.space",
			API:      "process",
			Extended: true,
			Language: "English",
			Voice:    "csukuangfj/vits-piper-en_US-hfc_female-medium|1 speaker",
			Speaker:  "0",
			Speed:    0.8,
		},
		{Name: "text-to-speech", BaseURL: "https://ruslanmv-text-to-speech.hf.space", API: "predict"},
		{Name: "text-to-voice-transformers", BaseURL: "https://ruslanmv-text-to-voice-transformers.hf.space", API: "predict"},
	}
}

var envKeys = map[string][]string{
	"env":                  {"EXAMSIM_ENV", "APP_ENV"},
	"log_level":            {"EXAMSIM_LOG_LEVEL", "LOG_LEVEL"},
	"mode":                 {"EXAMSIM_MODE", "MODE"},
	"http_addr":            {"EXAMSIM_HTTP_ADDR", "HTTP_ADDR"},
	"public_url":           {"EXAMSIM_PUBLIC_URL", "PUBLIC_URL"},
	"questions_dir":        {"EXAMSIM_QUESTIONS_DIR", "QUESTIONS_DIR"},
	"blob_base_path":       {"EXAMSIM_BLOB_BASE_PATH", "BLOB_BASE_PATH"},
	"db.driver":            {"EXAMSIM_DB_DRIVER", "DB_DRIVER"},
	"db.dsn":               {"EXAMSIM_DB_DSN", "DB_DSN"},
	"auth.hmac_secret":     {"EXAMSIM_AUTH_HMAC_SECRET", "AUTH_HMAC_SECRET"},
	"auth.admin_user":      {"EXAMSIM_ADMIN_USER", "ADMIN_USER"},
	"auth.admin_pass_hash": {"EXAMSIM_ADMIN_PASS_HASH", "ADMIN_PASS_HASH"},
	"auth.token_ttl":       {"EXAMSIM_TOKEN_TTL"},
	"tts.enabled":          {"EXAMSIM_TTS_ENABLED"},
	"tts.retries":          {"EXAMSIM_TTS_RETRIES"},
	"tts.delay":            {"EXAMSIM_TTS_DELAY"},
	"tts.timeout":          {"EXAMSIM_TTS_TIMEOUT"},
	"tts.hf_token":         {"EXAMSIM_HF_TOKEN", "HF_TOKEN"},
	"session.idle_ttl":     {"EXAMSIM_SESSION_IDLE_TTL"},
	"session.sweep_every":  {"EXAMSIM_SESSION_SWEEP_EVERY"},
	"cors_origins_online":  {"EXAMSIM_CORS_ORIGINS_ONLINE", "CORS_ORIGINS_ONLINE"},
	"cors_origins_offline": {"EXAMSIM_CORS_ORIGINS_OFFLINE", "CORS_ORIGINS_OFFLINE"},
}

// Load reads .env (if any), then config/config.yaml (if any), then the
// environment. configFile overrides the search path when non-empty.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	for key, names := range envKeys {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.CORSOriginsOnline = splitCSV(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = splitCSV(cfg.CORSOriginsOffline)
	if len(cfg.TTS.Backends) == 0 {
		cfg.TTS.Backends = DefaultBackends()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "")
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("public_url", "")
	v.SetDefault("questions_dir", "questions")
	v.SetDefault("blob_base_path", "./data")
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "")
	v.SetDefault("auth.hmac_secret", "supersecret-dev-key")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_pass_hash", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji")
	v.SetDefault("auth.token_ttl", "8h")
	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.retries", 3)
	v.SetDefault("tts.delay", "5s")
	v.SetDefault("tts.timeout", "60s")
	v.SetDefault("tts.hf_token", "")
	v.SetDefault("session.idle_ttl", "2h")
	v.SetDefault("session.sweep_every", "1m")
	v.SetDefault("cors_origins_online", "https://exams.mindengage.ai")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:7860")
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DB.Driver)
	}
	if c.TTS.Retries < 1 {
		return fmt.Errorf("config: tts.retries must be at least 1, got %d", c.TTS.Retries)
	}
	if c.Session.SweepEvery <= 0 {
		return fmt.Errorf("config: session.sweep_every must be positive")
	}
	if c.Mode == ModeOnline && c.Auth.HMACSecret == "supersecret-dev-key" {
		return errors.New("config: auth.hmac_secret must be set in online mode")
	}
	return nil
}

// CORSOrigins returns the allow-list for the configured mode.
func (c *Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func splitCSV(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
