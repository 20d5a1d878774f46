package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gioe/aiq-assessment/internal/apperr"
	"github.com/gioe/aiq-assessment/internal/audit"
	"github.com/gioe/aiq-assessment/internal/model"
	"github.com/gioe/aiq-assessment/internal/store"
)

// TokenPair is an issued access/refresh pair returned from register,
// login, and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// Tunables are the environment-configured token lifetimes (spec.md §6).
type Tunables struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Service implements the register/login/refresh/logout/password-reset
// flows of spec.md §4.F end to end, composing the Codec, Validator,
// store repositories, and the audit logger.
type Service struct {
	codec     *Codec
	validator *Validator
	users     store.Users
	blacklist store.Blacklist
	resets    store.PasswordResets
	audit     *audit.Logger
	tunables  Tunables
	now       func() time.Time
}

func NewService(codec *Codec, validator *Validator, users store.Users, blacklist store.Blacklist, resets store.PasswordResets, auditLogger *audit.Logger, tunables Tunables) *Service {
	return &Service{
		codec:     codec,
		validator: validator,
		users:     users,
		blacklist: blacklist,
		resets:    resets,
		audit:     auditLogger,
		tunables:  tunables,
		now:       time.Now,
	}
}

// RegisterInput carries the fields accepted by /auth/register.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthYear *int
	Education model.EducationLevel
	Country   string
	Region    string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if IsDisposableEmail(email) {
		return nil, TokenPair{}, apperr.Validation("disposable_email", "email provider is not accepted")
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		if errors.Is(err, ErrWeakPassword) {
			return nil, TokenPair{}, apperr.Validation("weak_password", "password does not meet strength requirements")
		}
		return nil, TokenPair{}, apperr.Server("password_hash_failed", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		BirthYear:    in.BirthYear,
		Education:    in.Education,
		Country:      in.Country,
		Region:       in.Region,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, TokenPair{}, apperr.Conflict("email_exists", "an account with this email already exists")
		}
		return nil, TokenPair{}, apperr.Server("user_create_failed", err)
	}

	s.audit.AccountCreated(user.ID)
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperr.Server("token_issue_failed", err)
	}
	return user, pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.User, TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		s.audit.LoginFailure(email, "no_such_user")
		return nil, TokenPair{}, apperr.Authentication("invalid_credentials", "invalid email or password")
	}
	if !VerifyPassword(user.PasswordHash, password) {
		s.audit.LoginFailure(email, "bad_password")
		return nil, TokenPair{}, apperr.Authentication("invalid_credentials", "invalid email or password")
	}

	s.audit.LoginSuccess(email, user.ID)
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperr.Server("token_issue_failed", err)
	}
	return user, pair, nil
}

// Refresh validates a refresh token and issues a fresh access/refresh
// pair; the presented refresh token is not itself revoked (spec.md
// leaves rotation-revocation unspecified — see DESIGN.md).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.User, TokenPair, error) {
	user, _, err := s.validator.Validate(ctx, refreshToken, model.TokenRefresh)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.issuePair(user)
	if err != nil {
		return nil, TokenPair{}, apperr.Server("token_issue_failed", err)
	}
	return user, pair, nil
}

// Logout revokes the current access token, and — if a refresh token is
// also presented and genuinely belongs to the same user and is of type
// refresh — revokes that too. A token presented as a refresh token that
// is actually an access token is logged and ignored rather than
// double-revoked under the wrong semantics (spec.md §4.F).
func (s *Service) Logout(ctx context.Context, accessClaims model.Claims, presentedRefreshToken string) error {
	if err := s.revoke(ctx, accessClaims); err != nil {
		return err
	}

	if presentedRefreshToken == "" {
		return nil
	}
	refreshClaims, err := s.codec.Decode(presentedRefreshToken)
	if err != nil {
		s.audit.TokenValidationFailure("malformed_refresh_token_on_logout", "")
		return nil
	}
	if refreshClaims.Type != model.TokenRefresh {
		s.audit.TokenValidationFailure("refresh_logout_presented_access_token", refreshClaims.JTI)
		return nil
	}
	if refreshClaims.UserID != accessClaims.UserID {
		s.audit.TokenValidationFailure("refresh_logout_user_mismatch", refreshClaims.JTI)
		return nil
	}
	return s.revoke(ctx, refreshClaims)
}

// LogoutAll revokes the current access token first, then advances the
// user's revocation epoch — in that order, so a token validated between
// the two writes is still accepted rather than rejected on a
// half-committed state (spec.md §4.F, §4 concurrency notes).
func (s *Service) LogoutAll(ctx context.Context, accessClaims model.Claims) error {
	if err := s.revoke(ctx, accessClaims); err != nil {
		return err
	}
	if err := s.users.AdvanceRevocation(ctx, accessClaims.UserID, s.now()); err != nil {
		return apperr.Server("advance_revocation_failed", err)
	}
	s.audit.LogoutAll(accessClaims.UserID)
	return nil
}

func (s *Service) revoke(ctx context.Context, claims model.Claims) error {
	if _, err := s.blacklist.Revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return apperr.Server("revoke_failed", err)
	}
	s.audit.TokenRevoked(claims.JTI, claims.UserID)
	return nil
}

// RequestPasswordReset has no error result: an unknown email and a failed
// token issue both come back as ("", false), so the caller can answer the
// same way either way, preserving the anti-enumeration property of
// spec.md §6. token is returned only for
// wiring to the email collaborator; it must never be logged or returned
// to the HTTP caller.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (token string, userFound bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.ByEmail(ctx, email)
	if err != nil {
		s.audit.PasswordResetInitiated(email)
		return "", false
	}

	now := s.now()
	if err := s.resets.InvalidateForUser(ctx, user.ID, now); err != nil {
		s.audit.PasswordResetFailed("invalidate_failed")
		return "", false
	}

	tok, err := GenerateResetToken()
	if err != nil {
		s.audit.PasswordResetFailed("token_generation_failed")
		return "", false
	}
	rt := &model.ResetToken{Token: tok, UserID: user.ID, ExpiresAt: now.Add(passwordResetTTL)}
	if err := s.resets.Create(ctx, rt); err != nil {
		s.audit.PasswordResetFailed("store_failed")
		return "", false
	}

	s.audit.PasswordResetInitiated(email)
	return tok, true
}

const passwordResetTTL = time.Hour

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (userID int64, err error) {
	now := s.now()
	rt, err := s.resets.Consume(ctx, token, now)
	if err != nil {
		s.audit.PasswordResetFailed("invalid_or_expired_token")
		return 0, apperr.Validation("invalid_reset_token", "reset token is invalid, expired, or already used")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, ErrWeakPassword) {
			return 0, apperr.Validation("weak_password", "password does not meet strength requirements")
		}
		return 0, apperr.Server("password_hash_failed", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, rt.UserID, hash); err != nil {
		return 0, apperr.Server("password_update_failed", err)
	}
	// Credential change advances the revocation epoch (spec.md §4.D),
	// invalidating every token issued before this reset.
	if err := s.users.AdvanceRevocation(ctx, rt.UserID, now); err != nil {
		return 0, apperr.Server("advance_revocation_failed", err)
	}

	s.audit.PasswordResetCompleted(rt.UserID)
	return rt.UserID, nil
}

func (s *Service) issuePair(user *model.User) (TokenPair, error) {
	now := s.now()
	access, _, err := s.codec.Issue(user.ID, user.Email, model.TokenAccess, now, s.tunables.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.codec.Issue(user.ID, user.Email, model.TokenRefresh, now, s.tunables.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}
