// Package api is the HTTP dispatcher: Gin routing, middleware
// (rate-limit, auth, admin-token), request/response DTOs, and the
// translation of internal/apperr into HTTP responses (spec.md §6–§7).
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gioe/aiq-assessment/internal/audit"
	"github.com/gioe/aiq-assessment/internal/auth"
	"github.com/gioe/aiq-assessment/internal/cat"
	"github.com/gioe/aiq-assessment/internal/config"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/ratelimit"
	"github.com/gioe/aiq-assessment/internal/store"
)

// Server holds every collaborator the dispatcher needs; handlers are
// methods on *Server so they share this state without package globals.
type Server struct {
	settings *config.Settings

	authService *auth.Service
	validator   *auth.Validator
	guard       *ratelimit.Guard
	audit       *audit.Logger

	items       store.ItemBank
	responses   store.ResponseLog
	sessions    store.Sessions
	locker      store.SessionLocker
	reliability store.ReliabilityMetrics
	resets      store.PasswordResets

	engine *cat.Engine

	forensics *audit.Timeline
}

// Deps bundles every collaborator NewServer needs, so wiring at the call
// site (cmd/aiqd) stays a single struct literal.
type Deps struct {
	Settings    *config.Settings
	AuthService *auth.Service
	Validator   *auth.Validator
	Guard       *ratelimit.Guard
	Audit       *audit.Logger
	Items       store.ItemBank
	Responses   store.ResponseLog
	Sessions    store.Sessions
	Locker      store.SessionLocker
	Reliability store.ReliabilityMetrics
	Resets      store.PasswordResets
	Engine      *cat.Engine
	Forensics   *audit.Timeline
}

func NewServer(d Deps) *Server {
	return &Server{
		settings:    d.Settings,
		authService: d.AuthService,
		validator:   d.Validator,
		guard:       d.Guard,
		audit:       d.Audit,
		items:       d.Items,
		responses:   d.Responses,
		sessions:    d.Sessions,
		locker:      d.Locker,
		reliability: d.Reliability,
		resets:      d.Resets,
		engine:      d.Engine,
		forensics:   d.Forensics,
	}
}

// Router builds the full Gin engine: security headers apply to every
// route and rate limiting to every /v1 route (/healthz is not limited);
// auth and admin-token middleware are scoped to the route groups that
// need them.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(securityHeaders())

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	v1 := r.Group("/v1")

	// rateLimit derives its key from claimsContextKey when present (spec.md
	// §4.E rule 1), so it must run AFTER any middleware that sets claims —
	// it cannot be registered once at the v1 group level, which Gin would
	// run before every per-route requireAuth. Each subgroup below puts
	// requireAuth (or requireAdminToken) ahead of rateLimit in its own
	// middleware chain instead.
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", s.rateLimit(), s.handleRegister)
	authGroup.POST("/login", s.rateLimit(), s.handleLogin)
	authGroup.POST("/refresh", s.rateLimit(), s.handleRefresh)
	authGroup.POST("/logout", s.requireAuth(model.TokenAccess), s.rateLimit(), s.handleLogout)
	authGroup.POST("/logout-all", s.requireAuth(model.TokenAccess), s.rateLimit(), s.handleLogoutAll)
	authGroup.POST("/request-password-reset", s.rateLimit(), s.handleRequestPasswordReset)
	authGroup.POST("/reset-password", s.rateLimit(), s.handleResetPassword)

	testGroup := v1.Group("/test")
	testGroup.Use(s.requireAuth(model.TokenAccess), s.rateLimit())
	testGroup.POST("/start", s.handleTestStart)
	testGroup.POST("/next", s.handleTestNext)
	testGroup.POST("/submit", s.handleTestSubmit)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(s.requireAdminToken(), s.rateLimit())
	adminGroup.GET("/reliability", s.handleAdminReliability)
	adminGroup.GET("/reliability/history", s.handleAdminReliabilityHistory)
	adminGroup.GET("/anchor-items", s.handleAdminListAnchorItems)
	adminGroup.POST("/anchor-items", s.handleAdminToggleAnchorItem)
	adminGroup.GET("/security/logout-all-events", s.handleAdminLogoutAllEvents)

	return r
}
