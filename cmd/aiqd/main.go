// Command aiqd is the HTTP server entrypoint: it loads configuration,
// wires every collaborator the dispatcher needs, and serves the v1 API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/api"
	"github.com/gioe/aiq-assessment/internal/audit"
	"github.com/gioe/aiq-assessment/internal/auth"
	"github.com/gioe/aiq-assessment/internal/cat"
	"github.com/gioe/aiq-assessment/internal/config"
	"github.com/gioe/aiq-assessment/internal/ratelimit"
	"github.com/gioe/aiq-assessment/internal/store"
	"github.com/gioe/aiq-assessment/internal/store/memory"
	"github.com/gioe/aiq-assessment/internal/store/postgres"
)

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// newLimiter picks the admission strategy named by settings.RateLimit.Strategy.
func newLimiter(strategy string) ratelimit.Limiter {
	switch strategy {
	case "sliding_window":
		return ratelimit.NewSlidingWindow()
	case "fixed_window":
		return ratelimit.NewFixedWindow()
	default:
		return ratelimit.NewTokenBucket()
	}
}

// backend bundles every store.* interface implementation so main can
// build either one behind a single env var without the rest of the
// wiring caring which it got.
type backend struct {
	items       store.ItemBank
	responses   store.ResponseLog
	sessions    store.Sessions
	users       store.Users
	blacklist   store.Blacklist
	resets      store.PasswordResets
	reliability store.ReliabilityMetrics
	locker      store.SessionLocker
}

// newMemoryBackend wires the in-process store, useful for local
// development and demos where a Postgres instance isn't worth standing
// up. STORE_BACKEND=memory selects it; production deployments use
// Postgres.
func newMemoryBackend() *backend {
	return &backend{
		items:       memory.NewItemBank(),
		responses:   memory.NewResponseLog(),
		sessions:    memory.NewSessions(),
		users:       memory.NewUsers(),
		blacklist:   memory.NewBlacklist(),
		resets:      memory.NewPasswordResets(),
		reliability: memory.NewReliabilityMetrics(),
		locker:      memory.NewLocker(),
	}
}

func newPostgresBackend(ctx context.Context, cfg postgres.Config) (*backend, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &backend{
		items:       postgres.NewItemBank(pool),
		responses:   postgres.NewResponseLog(pool),
		sessions:    postgres.NewSessions(pool),
		users:       postgres.NewUsers(pool),
		blacklist:   postgres.NewBlacklist(pool),
		resets:      postgres.NewPasswordResets(pool),
		reliability: postgres.NewReliabilityMetrics(pool),
		// Postgres sessions serialize via optimistic version checks
		// (internal/store/postgres/sessions.go UpdateAdaptive retry loop);
		// an in-process lock still avoids wasted retries under the
		// common case of a single worker racing itself.
		locker: memory.NewLocker(),
	}, nil
}

func main() {
	ginMode := getEnv("GIN_MODE", "debug")
	gin.SetMode(ginMode)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var b *backend
	switch getEnv("STORE_BACKEND", "postgres") {
	case "memory":
		log.Println("Using in-memory store backend")
		b = newMemoryBackend()
	default:
		b, err = newPostgresBackend(ctx, cfg.DB)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Println("Connected to PostgreSQL database")
	}

	codec := auth.NewCodec(cfg.JWTSecretKey)
	validator := auth.NewValidator(codec, b.blacklist, b.users)
	auditLogger := audit.New(nil)
	authService := auth.NewService(codec, validator, b.users, b.blacklist, b.resets, auditLogger, auth.Tunables{
		AccessTokenTTL:  cfg.AccessTokenExpire,
		RefreshTokenTTL: cfg.RefreshTokenExpire,
	})

	policyTable := cfg.DefaultPolicyTable()
	if !cfg.RateLimit.Enabled {
		// A disabled limiter still runs the Guard (skip-listing every
		// path individually isn't practical); an effectively unbounded
		// default policy is indistinguishable from "off" for callers.
		policyTable.Default = ratelimit.Policy{Limit: 1 << 30, Window: cfg.RateLimit.DefaultWindow}
	}
	guard := ratelimit.NewGuard(newLimiter(cfg.RateLimit.Strategy), policyTable)

	srv := api.NewServer(api.Deps{
		Settings:    cfg,
		AuthService: authService,
		Validator:   validator,
		Guard:       guard,
		Audit:       auditLogger,
		Items:       b.items,
		Responses:   b.responses,
		Sessions:    b.sessions,
		Locker:      b.locker,
		Reliability: b.reliability,
		Resets:      b.resets,
		Engine:      cat.NewEngine(cfg.CAT),
		Forensics:   audit.NewTimeline(1000),
	})

	httpPort := getEnv("HTTP_PORT", "8080")
	log.Printf("Starting aiqd")
	log.Printf("HTTP Port: %s", httpPort)
	log.Printf("HTTP server listening on :%s", httpPort)
	if err := srv.Router().Run(":" + httpPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
