// Package config loads process settings from the environment, grounded
// on the teacher's pkg/config (typed sub-configs, a dedicated errors.go
// with Load/Validation error types, and a Validator) but re-pointed at
// env vars instead of YAML, since this service is a single deployable
// rather than a multi-component registry.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gioe/aiq-assessment/internal/calibration"
	"github.com/gioe/aiq-assessment/internal/cat"
	"github.com/gioe/aiq-assessment/internal/ratelimit"
	"github.com/gioe/aiq-assessment/internal/store/postgres"
)

// RateLimitSettings configures the admission layer (spec.md §4.E).
type RateLimitSettings struct {
	Enabled       bool
	Strategy      string // "token_bucket" | "sliding_window" | "fixed_window"
	DefaultLimit  int
	DefaultWindow time.Duration
	Storage       string // "memory" (only supported backend today)
}

// Settings is the complete process configuration, the env-var analogue
// of original_source/backend/app/core/config.py's pydantic Settings.
type Settings struct {
	SecretKey    string
	JWTSecretKey string

	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration

	RateLimit RateLimitSettings

	AdminToken    string
	ServiceAPIKey string

	CAT         cat.Tunables
	Calibration calibration.Tunables

	DB          postgres.Config
	DatabaseURL string // overrides DB.* discrete fields when set
}

// Load reads environment variables (after loading a .env file if one is
// present — a missing .env is not an error) into a Settings value,
// applying the defaults from spec.md §6 and failing only for the two
// secrets that have none.
func Load() (*Settings, error) {
	_ = godotenv.Load() // optional; real deployments inject env directly

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return nil, &LoadError{Key: "SECRET_KEY", Err: fmt.Errorf("required, no default")}
	}
	jwtSecretKey := os.Getenv("JWT_SECRET_KEY")
	if jwtSecretKey == "" {
		return nil, &LoadError{Key: "JWT_SECRET_KEY", Err: fmt.Errorf("required, no default")}
	}

	accessMinutes, err := envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}
	refreshDays, err := envInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)
	if err != nil {
		return nil, err
	}

	rateLimitEnabled, err := envBool("RATE_LIMIT_ENABLED", true)
	if err != nil {
		return nil, err
	}
	defaultLimit, err := envInt("RATE_LIMIT_DEFAULT_LIMIT", 100)
	if err != nil {
		return nil, err
	}
	defaultWindowSeconds, err := envInt("RATE_LIMIT_DEFAULT_WINDOW", 60)
	if err != nil {
		return nil, err
	}

	minItems, err := envInt("MIN_ITEMS", cat.DefaultTunables.MinItems)
	if err != nil {
		return nil, err
	}
	maxItems, err := envInt("MAX_ITEMS", cat.DefaultTunables.MaxItems)
	if err != nil {
		return nil, err
	}
	seThreshold, err := envFloat("SE_THRESHOLD", cat.DefaultTunables.SEThreshold)
	if err != nil {
		return nil, err
	}

	minResponsesForCalibration, err := envInt("MIN_RESPONSES_FOR_CALIBRATION", calibration.DefaultTunables.MinResponsesForCalibration)
	if err != nil {
		return nil, err
	}
	minExamineesForCalibration, err := envInt("MIN_EXAMINEES_FOR_CALIBRATION", calibration.DefaultTunables.MinExamineesForCalibration)
	if err != nil {
		return nil, err
	}
	maxSparsity, err := envFloat("MAX_SPARSITY_THRESHOLD", calibration.DefaultTunables.MaxSparsityThreshold)
	if err != nil {
		return nil, err
	}
	minResponsesPerItem, err := envInt("MIN_RESPONSES_PER_ITEM", calibration.DefaultTunables.MinResponsesPerItem)
	if err != nil {
		return nil, err
	}
	bootstrapIterations, err := envInt("BOOTSTRAP_ITERATIONS", calibration.DefaultTunables.BootstrapIterations)
	if err != nil {
		return nil, err
	}
	bootstrapSeed, err := envInt("BOOTSTRAP_SEED", int(calibration.DefaultTunables.BootstrapSeed))
	if err != nil {
		return nil, err
	}
	minExamineesForBootstrap, err := envInt("MIN_EXAMINEES_FOR_BOOTSTRAP", calibration.DefaultTunables.MinExamineesForBootstrap)
	if err != nil {
		return nil, err
	}

	dbPort, err := envInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxConns, err := envInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := envInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}

	s := &Settings{
		SecretKey:          secretKey,
		JWTSecretKey:       jwtSecretKey,
		AccessTokenExpire:  time.Duration(accessMinutes) * time.Minute,
		RefreshTokenExpire: time.Duration(refreshDays) * 24 * time.Hour,
		RateLimit: RateLimitSettings{
			Enabled:       rateLimitEnabled,
			Strategy:      envString("RATE_LIMIT_STRATEGY", "token_bucket"),
			DefaultLimit:  defaultLimit,
			DefaultWindow: time.Duration(defaultWindowSeconds) * time.Second,
			Storage:       envString("RATE_LIMIT_STORAGE", "memory"),
		},
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		ServiceAPIKey: os.Getenv("SERVICE_API_KEY"),
		CAT: cat.Tunables{
			MinItems:    minItems,
			MaxItems:    maxItems,
			SEThreshold: seThreshold,
		},
		Calibration: calibration.Tunables{
			MinResponsesForCalibration: minResponsesForCalibration,
			MinItemsFor2PL:             calibration.DefaultTunables.MinItemsFor2PL,
			MinExamineesForCalibration: minExamineesForCalibration,
			MaxSparsityThreshold:       maxSparsity,
			MinResponsesPerItem:        minResponsesPerItem,
			BootstrapIterations:        bootstrapIterations,
			BootstrapSeed:              uint64(bootstrapSeed),
			MinExamineesForBootstrap:   minExamineesForBootstrap,
			MinItemsForValidation:      calibration.DefaultTunables.MinItemsForValidation,
		},
		DB: postgres.Config{
			Host:     envString("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     envString("DB_USER", "aiq"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: envString("DB_NAME", "aiq"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
			MaxConns: int32(maxConns),
			MinConns: int32(minConns),
		},
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		s.DatabaseURL = url
		if err := applyDatabaseURL(&s.DB, url); err != nil {
			return nil, err
		}
	}

	if err := validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func validate(s *Settings) error {
	if s.AccessTokenExpire <= 0 {
		return &ValidationError{Key: "ACCESS_TOKEN_EXPIRE_MINUTES", Problem: "must be positive"}
	}
	if s.RefreshTokenExpire <= 0 {
		return &ValidationError{Key: "REFRESH_TOKEN_EXPIRE_DAYS", Problem: "must be positive"}
	}
	if s.CAT.MinItems <= 0 || s.CAT.MaxItems < s.CAT.MinItems {
		return &ValidationError{Key: "MIN_ITEMS/MAX_ITEMS", Problem: "MIN_ITEMS must be positive and <= MAX_ITEMS"}
	}
	switch s.RateLimit.Strategy {
	case "token_bucket", "sliding_window", "fixed_window":
	default:
		return &ValidationError{Key: "RATE_LIMIT_STRATEGY", Problem: "must be one of token_bucket, sliding_window, fixed_window"}
	}
	return nil
}

// applyDatabaseURL overlays a postgres:// connection URL onto the
// discrete DB_* fields, so callers may set either form.
func applyDatabaseURL(cfg *postgres.Config, dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return &LoadError{Key: "DATABASE_URL", Err: err}
	}
	cfg.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return &LoadError{Key: "DATABASE_URL", Err: err}
		}
		cfg.Port = port
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		}
	}
	cfg.Database = strings.TrimPrefix(u.Path, "/")
	if sslmode := u.Query().Get("sslmode"); sslmode != "" {
		cfg.SSLMode = sslmode
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &LoadError{Key: key, Err: err}
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, &LoadError{Key: key, Err: err}
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &LoadError{Key: key, Err: err}
	}
	return b, nil
}

// DefaultPolicyTable builds the rate-limit policy table for the
// dispatcher middleware from these settings (spec.md §4.E): every path
// shares DefaultLimit/DefaultWindow except the ones the dispatcher skips
// outright (health checks).
func (s *Settings) DefaultPolicyTable() ratelimit.Table {
	return ratelimit.Table{
		Default: ratelimit.Policy{Limit: s.RateLimit.DefaultLimit, Window: s.RateLimit.DefaultWindow},
		Skip:    map[string]bool{"/healthz": true},
	}
}
