package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"catatuang/api/internal/config"
	"catatuang/api/internal/ids"
	"catatuang/api/internal/lockout"
	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
	"catatuang/api/internal/roles"
	"catatuang/api/internal/security"
	"catatuang/api/internal/session"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountStore is the persistence surface AuthService needs. Implemented
// by repository.AccountRepository.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	GetByID(ctx context.Context, id string) (models.Account, error)
	RecordLogin(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string, attempts int, lockUntil *time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	UpdateDisplayName(ctx context.Context, id string, displayName string) error
}

type AuthService struct {
	accounts AccountStore
	sessions *session.Manager
	tracker  *lockout.Tracker
	cache    *redis.Client // reset tokens; may be nil
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	accounts AccountStore,
	sessions *session.Manager,
	tracker *lockout.Tracker,
	cache *redis.Client,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		tracker:  tracker,
		cache:    cache,
		cfg:      cfg,
		log:      log,
	}
}

type LoginInput struct {
	Email         string
	Password      string
	RequestedRole models.Role
	IPAddress     string
	UserAgent     string
}

type LoginResult struct {
	AccessToken string
	Session     models.Session
	Account     models.Account
	LandingPage string
}

// Login runs the full authentication pipeline: input validation, the
// lockout fast path, credential verification, role grant, and session
// installation. The lock and the session generation are re-checked
// after the (slow) hash verification so state that moved while it ran
// wins over the in-flight attempt.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if err := s.validateLoginInput(email, input.Password); err != nil {
		return LoginResult{}, err
	}

	if s.tracker.IsLocked(ctx, email) {
		return LoginResult{}, &LockoutError{RetryAfter: s.tracker.RetryAfter(ctx, email)}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Unknown identifier counts as a failed attempt; the
			// response does not distinguish it from a bad password.
			return LoginResult{}, s.failAttempt(ctx, email, nil)
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	gen := s.sessions.Generation(account.ID)

	ok, err := security.VerifyPassword(input.Password, account.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, s.failAttempt(ctx, email, &account)
	}

	switch account.Status {
	case models.AccountStatusActive:
	case models.AccountStatusPending:
		return LoginResult{}, ErrAccountPending
	case models.AccountStatusRejected:
		return LoginResult{}, ErrAccountRejected
	default:
		return LoginResult{}, ErrAccountInactive
	}

	requested := input.RequestedRole
	if requested == "" {
		requested = account.Role
	}
	if requested != account.Role {
		return LoginResult{}, fmt.Errorf("%w: %q", ErrRoleNotPermitted, requested)
	}

	landing, err := roles.LandingPageFor(account.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}

	// The verify above is a suspension point; a lock applied while it
	// ran must still refuse this login.
	if s.tracker.IsLocked(ctx, email) {
		return LoginResult{}, &LockoutError{RetryAfter: s.tracker.RetryAfter(ctx, email)}
	}

	sess, err := s.sessions.Install(ctx, account.ID, account.Role, input.IPAddress, input.UserAgent, gen)
	if err != nil {
		if errors.Is(err, session.ErrSuperseded) {
			return LoginResult{}, ErrLoginSuperseded
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	s.tracker.RecordSuccess(ctx, email)
	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("record login failed")
	}

	token, err := security.GenerateAccessToken(
		s.cfg.Security.JWTSecret,
		account.ID,
		sess.ID,
		string(account.Role),
		s.cfg.Security.SessionTimeout,
	)
	if err != nil {
		return LoginResult{}, err
	}

	s.log.Info().
		Str("account_id", account.ID).
		Str("role", string(account.Role)).
		Msg("login succeeded")

	return LoginResult{
		AccessToken: token,
		Session:     sess,
		Account:     account,
		LandingPage: landing,
	}, nil
}

// failAttempt books a failed attempt and builds the error carrying the
// remaining budget and the advisory backoff.
func (s *AuthService) failAttempt(ctx context.Context, email string, account *models.Account) error {
	status := s.tracker.RecordFailure(ctx, email)

	if account != nil {
		var lockUntil *time.Time
		if status.Locked {
			t := status.LockUntil
			lockUntil = &t
		}
		if err := s.accounts.RecordFailure(ctx, account.ID, status.Count, lockUntil); err != nil {
			s.log.Warn().Err(err).Str("account_id", account.ID).Msg("persist failed attempt failed")
		}
	}

	if status.Locked {
		return &LockoutError{RetryAfter: time.Until(status.LockUntil)}
	}

	remaining := s.cfg.Security.MaxLoginAttempts - status.Count
	if remaining < 0 {
		remaining = 0
	}
	return &AuthenticationError{
		Remaining: remaining,
		RetryIn:   s.tracker.Delay(status.Count),
	}
}

type RegisterInput struct {
	Email         string
	Password      string
	DisplayName   string
	RequestedRole models.Role
}

// Register creates a pending account. Approval by an administrator
// activates it; until then login is refused.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Account, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if err := s.validateLoginInput(email, input.Password); err != nil {
		return models.Account{}, err
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		return models.Account{}, &ValidationError{Field: "displayName", Message: "required"}
	}

	requested := input.RequestedRole
	if requested == "" {
		requested = models.RoleUser
	}
	if _, err := roles.Resolve(requested); err != nil {
		return models.Account{}, &ValidationError{Field: "requestedRole", Message: "unknown role"}
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return models.Account{}, &ValidationError{Field: "email", Message: "already registered"}
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.Account{}, err
	}

	account := models.Account{
		ID:            ids.New(),
		Email:         email,
		PasswordHash:  passwordHash,
		DisplayName:   strings.TrimSpace(input.DisplayName),
		Role:          models.RoleUser,
		RequestedRole: requested,
		Status:        models.AccountStatusPending,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("account registered, awaiting approval")
	return account, nil
}

type UpdateProfileInput struct {
	DisplayName     string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile lets the actor change their own display name and,
// given the current credential, their password. The session survives a
// password change; only other state transitions end it.
func (s *AuthService) UpdateProfile(ctx context.Context, actor models.Session, input UpdateProfileInput) (models.Account, error) {
	if !roles.Can(actor.Role, roles.CapUpdateProfile) {
		return models.Account{}, fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapUpdateProfile)
	}

	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return models.Account{}, &ValidationError{Field: "displayName", Message: "required"}
	}

	account, err := s.accounts.GetByID(ctx, actor.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if name != account.DisplayName {
		if err := s.accounts.UpdateDisplayName(ctx, account.ID, name); err != nil {
			return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		account.DisplayName = name
	}

	if input.NewPassword != "" {
		if len(input.NewPassword) < s.cfg.Security.PasswordMinLength {
			return models.Account{}, &ValidationError{
				Field:   "newPassword",
				Message: fmt.Sprintf("must be at least %d characters", s.cfg.Security.PasswordMinLength),
			}
		}

		ok, err := security.VerifyPassword(input.CurrentPassword, account.PasswordHash)
		if err != nil || !ok {
			return models.Account{}, ErrInvalidCredentials
		}

		passwordHash, err := security.HashPassword(input.NewPassword)
		if err != nil {
			return models.Account{}, err
		}
		if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
			return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		account.PasswordHash = passwordHash
	}

	s.log.Info().Str("account_id", account.ID).Msg("profile updated")
	return account, nil
}

// Logout ends the account's session. Calling it without a session is
// not an error.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if err := s.sessions.End(ctx, accountID); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

// RequestPasswordReset issues a one-hour single-use reset token. The
// result is identical whether or not the email exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	if s.cache == nil {
		return ErrRemoteUnavailable
	}

	token, err := security.RandomToken(32)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, resetKey(token), account.ID, s.cfg.Security.ResetTokenTTL).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	// Delivery is the mail collaborator's job; until it is wired the
	// token is only surfaced in the log.
	s.log.Info().Str("account_id", account.ID).Str("reset_token", token).Msg("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and replaces the credential.
func (s *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < s.cfg.Security.PasswordMinLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", s.cfg.Security.PasswordMinLength),
		}
	}
	if s.cache == nil {
		return ErrRemoteUnavailable
	}

	accountID, err := s.cache.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, passwordHash); err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	// A credential change invalidates any live session.
	if err := s.sessions.End(ctx, accountID); err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("end session after reset failed")
	}

	s.log.Info().Str("account_id", accountID).Msg("password reset")
	return nil
}

func (s *AuthService) validateLoginInput(email, password string) error {
	if !emailPattern.MatchString(email) {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if len(password) < s.cfg.Security.PasswordMinLength {
		return &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", s.cfg.Security.PasswordMinLength),
		}
	}
	return nil
}

func resetKey(token string) string {
	return "reset:" + token
}
