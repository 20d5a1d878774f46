// Package audit is the security audit logger (spec.md §4.F): login
// success/failure, token-validation failures, revocations, permission
// denials, rate-limit exceedances, and password-reset lifecycle events.
//
// It is a thin wrapper over log/slog — the same library the teacher uses
// for structured logging — with one added guarantee: a logging outage
// must never break authentication, so every event method (LoginSuccess,
// TokenRevoked, ...) goes through one helper that recovers from its own
// panics, and a nil base logger falls back to slog.Default().
package audit

import (
	"context"
	"log/slog"
	"strings"
)

// Logger emits security-relevant events at a fixed, predictable shape so
// they can be correlated later (e.g. the admin logout-all/reset
// forensic view in spec.md §6).
type Logger struct {
	base *slog.Logger
}

func New(base *slog.Logger) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{base: base}
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("audit logger panicked, falling back", "recovered", r, "event", msg)
		}
	}()
	l.base.Log(context.Background(), level, msg, args...)
}

// MaskEmail redacts all but the first character of the local part, for
// login-event logging that must not leak full addresses into logs.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// MaskJTI keeps a short, non-identifying prefix of a token id for
// correlating log lines without reproducing the full secret-bearing
// identifier.
func MaskJTI(jti string) string {
	if len(jti) <= 8 {
		return jti
	}
	return jti[:8] + "..."
}

func (l *Logger) LoginSuccess(email string, userID int64) {
	l.log(slog.LevelInfo, "auth.login.success", "email", MaskEmail(email), "user_id", userID)
}

func (l *Logger) LoginFailure(email, reason string) {
	l.log(slog.LevelWarn, "auth.login.failure", "email", MaskEmail(email), "reason", reason)
}

func (l *Logger) TokenValidationFailure(reason, jti string) {
	l.log(slog.LevelWarn, "auth.token.validation_failure", "reason", reason, "jti", MaskJTI(jti))
}

func (l *Logger) TokenRevoked(jti string, userID int64) {
	l.log(slog.LevelInfo, "auth.token.revoked", "jti", MaskJTI(jti), "user_id", userID)
}

func (l *Logger) LogoutAll(userID int64) {
	l.log(slog.LevelInfo, "auth.logout_all", "user_id", userID)
}

func (l *Logger) PermissionDenied(userID int64, resource string) {
	l.log(slog.LevelWarn, "auth.permission_denied", "user_id", userID, "resource", resource)
}

func (l *Logger) RateLimitExceeded(key, path string) {
	l.log(slog.LevelWarn, "ratelimit.exceeded", "key", key, "path", path)
}

func (l *Logger) PasswordResetInitiated(email string) {
	l.log(slog.LevelInfo, "auth.password_reset.initiated", "email", MaskEmail(email))
}

func (l *Logger) PasswordResetCompleted(userID int64) {
	l.log(slog.LevelInfo, "auth.password_reset.completed", "user_id", userID)
}

func (l *Logger) PasswordResetFailed(reason string) {
	l.log(slog.LevelWarn, "auth.password_reset.failed", "reason", reason)
}

func (l *Logger) AccountCreated(userID int64) {
	l.log(slog.LevelInfo, "auth.account.created", "user_id", userID)
}

func (l *Logger) AccountDeleted(userID int64) {
	l.log(slog.LevelInfo, "auth.account.deleted", "user_id", userID)
}
