package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
	"catatuang/api/internal/roles"
	"catatuang/api/internal/session"
)

// AccountAdminStore is the persistence surface of the lifecycle gate.
// Implemented by repository.AccountRepository.
type AccountAdminStore interface {
	GetByID(ctx context.Context, id string) (models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
	ListByStatus(ctx context.Context, status models.AccountStatus) ([]models.Account, error)
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus, role models.Role) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.AccountStatus) (int, error)
}

// AccountService is the admin-scoped account lifecycle gate. Every
// transition is authorized against the acting session's role before any
// mutation, and destructive transitions never apply to the actor's own
// account.
type AccountService struct {
	accounts AccountAdminStore
	sessions *session.Manager
	log      zerolog.Logger
}

func NewAccountService(accounts AccountAdminStore, sessions *session.Manager, log zerolog.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		sessions: sessions,
		log:      log,
	}
}

// Approve activates a pending or previously rejected account with the
// given role (the account's requested role when empty).
func (s *AccountService) Approve(ctx context.Context, actor models.Session, accountID string, role models.Role) (models.Account, error) {
	if err := s.authorize(actor); err != nil {
		return models.Account{}, err
	}

	account, err := s.get(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	if account.Status != models.AccountStatusPending && account.Status != models.AccountStatusRejected {
		return models.Account{}, fmt.Errorf("%w: approve from %q", ErrInvalidTransition, account.Status)
	}

	if role == "" {
		role = account.RequestedRole
	}
	if _, err := roles.Resolve(role); err != nil {
		return models.Account{}, &ValidationError{Field: "role", Message: "unknown role"}
	}

	if err := s.update(ctx, account.ID, models.AccountStatusActive, role); err != nil {
		return models.Account{}, err
	}

	s.log.Info().
		Str("actor_id", actor.AccountID).
		Str("account_id", account.ID).
		Str("role", string(role)).
		Msg("account approved")

	account.Status = models.AccountStatusActive
	account.Role = role
	return account, nil
}

// Reject declines a pending registration.
func (s *AccountService) Reject(ctx context.Context, actor models.Session, accountID string) (models.Account, error) {
	if err := s.authorize(actor); err != nil {
		return models.Account{}, err
	}
	if accountID == actor.AccountID {
		return models.Account{}, fmt.Errorf("%w: cannot reject own account", ErrNotAuthorized)
	}

	account, err := s.get(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	if account.Status != models.AccountStatusPending {
		return models.Account{}, fmt.Errorf("%w: reject from %q", ErrInvalidTransition, account.Status)
	}

	if err := s.update(ctx, account.ID, models.AccountStatusRejected, account.Role); err != nil {
		return models.Account{}, err
	}

	s.log.Info().
		Str("actor_id", actor.AccountID).
		Str("account_id", account.ID).
		Msg("account rejected")

	account.Status = models.AccountStatusRejected
	return account, nil
}

// ToggleStatus flips an account between active and inactive.
// Deactivation also ends the target's live session. Deletion does not
// exist at this gate; deactivation is the soft equivalent.
func (s *AccountService) ToggleStatus(ctx context.Context, actor models.Session, accountID string) (models.Account, error) {
	if err := s.authorize(actor); err != nil {
		return models.Account{}, err
	}
	if accountID == actor.AccountID {
		return models.Account{}, fmt.Errorf("%w: cannot deactivate own account", ErrNotAuthorized)
	}

	account, err := s.get(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	var next models.AccountStatus
	switch account.Status {
	case models.AccountStatusActive:
		next = models.AccountStatusInactive
	case models.AccountStatusInactive:
		next = models.AccountStatusActive
	default:
		return models.Account{}, fmt.Errorf("%w: toggle from %q", ErrInvalidTransition, account.Status)
	}

	if err := s.update(ctx, account.ID, next, account.Role); err != nil {
		return models.Account{}, err
	}

	if next == models.AccountStatusInactive {
		if err := s.sessions.End(ctx, account.ID); err != nil {
			s.log.Warn().Err(err).Str("account_id", account.ID).Msg("end session of deactivated account failed")
		}
	}

	s.log.Info().
		Str("actor_id", actor.AccountID).
		Str("account_id", account.ID).
		Str("status", string(next)).
		Msg("account status toggled")

	account.Status = next
	return account, nil
}

// ChangeRole reassigns an active account's role. The target's live
// session is ended because it carries a role snapshot; the new role
// takes effect on the next login. Changing one's own role is refused,
// a self-demotion would drop the actor's own gate access.
func (s *AccountService) ChangeRole(ctx context.Context, actor models.Session, accountID string, role models.Role) (models.Account, error) {
	if err := s.authorize(actor); err != nil {
		return models.Account{}, err
	}
	if accountID == actor.AccountID {
		return models.Account{}, fmt.Errorf("%w: cannot change own role", ErrNotAuthorized)
	}
	if _, err := roles.Resolve(role); err != nil {
		return models.Account{}, &ValidationError{Field: "role", Message: "unknown role"}
	}

	account, err := s.get(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	if account.Status != models.AccountStatusActive {
		return models.Account{}, fmt.Errorf("%w: change role from %q", ErrInvalidTransition, account.Status)
	}

	if err := s.update(ctx, account.ID, account.Status, role); err != nil {
		return models.Account{}, err
	}

	if err := s.sessions.End(ctx, account.ID); err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("end session after role change failed")
	}

	s.log.Info().
		Str("actor_id", actor.AccountID).
		Str("account_id", account.ID).
		Str("role", string(role)).
		Msg("account role changed")

	account.Role = role
	return account, nil
}

// UserListing groups accounts the way the admin screen presents them.
type UserListing struct {
	Pending  []models.Account
	Active   []models.Account
	Inactive []models.Account
	Rejected []models.Account
}

func (s *AccountService) ListUsers(ctx context.Context, actor models.Session) (UserListing, error) {
	if err := s.authorize(actor); err != nil {
		return UserListing{}, err
	}

	var listing UserListing
	for _, group := range []struct {
		status models.AccountStatus
		dest   *[]models.Account
	}{
		{models.AccountStatusPending, &listing.Pending},
		{models.AccountStatusActive, &listing.Active},
		{models.AccountStatusInactive, &listing.Inactive},
		{models.AccountStatusRejected, &listing.Rejected},
	} {
		accounts, err := s.accounts.ListByStatus(ctx, group.status)
		if err != nil {
			return UserListing{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		*group.dest = accounts
	}
	return listing, nil
}

func (s *AccountService) authorize(actor models.Session) error {
	if !roles.Can(actor.Role, roles.CapManageUsers) {
		return fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapManageUsers)
	}
	return nil
}

func (s *AccountService) get(ctx context.Context, accountID string) (models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, err
		}
		return models.Account{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return account, nil
}

func (s *AccountService) update(ctx context.Context, accountID string, status models.AccountStatus, role models.Role) error {
	if err := s.accounts.UpdateStatus(ctx, accountID, status, role); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}
