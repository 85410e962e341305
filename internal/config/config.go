package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultListenAddr    = "127.0.0.1:8080"
	DefaultDBPath        = "coachdesk.db"
	DefaultStaticDir     = "static"
	DefaultProbeInterval = 30 * time.Second
	DefaultDrainInterval = 5 * time.Minute
	DefaultActorRole     = "trainer"
)

// Config holds everything the dashboard needs to start. All of it comes from
// the environment, optionally seeded from a .env file.
type Config struct {
	CRMBaseURL string
	CRMToken   string

	ListenAddr     string
	StaticDir      string
	DBPath         string
	CSRFKey        []byte
	TrustedOrigins []string

	ProbeInterval time.Duration
	DrainInterval time.Duration

	ActorRole     string
	NotifyGranted bool
	Passcode      string
	Location      *time.Location
	Env           string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
// PRE: COACHDESK_CRM_URL and COACHDESK_CRM_TOKEN are set
// POST: Returns a fully populated config or an error naming what is missing
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("config_event", "event", "dotenv_loaded")
	}

	cfg := Config{
		CRMBaseURL:    os.Getenv("COACHDESK_CRM_URL"),
		CRMToken:      os.Getenv("COACHDESK_CRM_TOKEN"),
		ListenAddr:    envOr("COACHDESK_LISTEN_ADDR", DefaultListenAddr),
		StaticDir:     envOr("COACHDESK_STATIC_DIR", DefaultStaticDir),
		DBPath:        envOr("COACHDESK_DB_PATH", DefaultDBPath),
		ActorRole:     envOr("COACHDESK_ROLE", DefaultActorRole),
		Passcode:      os.Getenv("COACHDESK_PASSCODE"),
		Env:           envOr("COACHDESK_ENV", "development"),
		ProbeInterval: DefaultProbeInterval,
		DrainInterval: DefaultDrainInterval,
		Location:      time.Local,
	}

	if cfg.CRMBaseURL == "" {
		return Config{}, fmt.Errorf("COACHDESK_CRM_URL is required")
	}
	if cfg.CRMToken == "" {
		return Config{}, fmt.Errorf("COACHDESK_CRM_TOKEN is required")
	}

	if v := os.Getenv("COACHDESK_PROBE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("COACHDESK_PROBE_INTERVAL must be a positive duration: %q", v)
		}
		cfg.ProbeInterval = d
	}
	if v := os.Getenv("COACHDESK_DRAIN_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("COACHDESK_DRAIN_INTERVAL must be a positive duration: %q", v)
		}
		cfg.DrainInterval = d
	}
	if v := os.Getenv("COACHDESK_NOTIFY"); v != "" {
		granted, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("COACHDESK_NOTIFY must be a boolean: %q", v)
		}
		cfg.NotifyGranted = granted
	}
	if v := os.Getenv("COACHDESK_TZ"); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return Config{}, fmt.Errorf("COACHDESK_TZ is not a valid timezone: %q", v)
		}
		cfg.Location = loc
	}

	key, err := loadCSRFKey(cfg.Env)
	if err != nil {
		return Config{}, err
	}
	cfg.CSRFKey = key

	host := cfg.ListenAddr
	cfg.TrustedOrigins = []string{host, "localhost:8080", "127.0.0.1:8080"}

	return cfg, nil
}

// loadCSRFKey reads the CSRF secret from COACHDESK_CSRF_KEY (hex-encoded, 32
// bytes). In production the key MUST be set; in development a random key is
// generated per startup.
func loadCSRFKey(env string) ([]byte, error) {
	if keyHex := os.Getenv("COACHDESK_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, fmt.Errorf("COACHDESK_CSRF_KEY must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if env == "production" {
		return nil, fmt.Errorf("COACHDESK_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("config_event", "event", "random_csrf_key", "detail", "unlock sessions will not survive restart")
	return key, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
