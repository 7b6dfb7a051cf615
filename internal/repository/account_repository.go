package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catatuang/api/internal/models"
)

var ErrAccountNotFound = errors.New("account not found")

const accountColumns = `
	id, email, password_hash, display_name, role, requested_role, status,
	failed_attempts, lock_until, last_login_at, created_at, updated_at
`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) Create(ctx context.Context, account models.Account) error {
	const query = `
		INSERT INTO accounts (
			id, email, password_hash, display_name, role, requested_role, status,
			failed_attempts, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, 0, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.DisplayName,
		account.Role,
		account.RequestedRole,
		account.Status,
	)
	return err
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *AccountRepository) ListByStatus(ctx context.Context, status models.AccountStatus) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE status = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus, role models.Role) error {
	const query = `
		UPDATE accounts SET status = $2, role = $3, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, role)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// RecordLogin stamps a successful authentication and clears the
// persisted failure bookkeeping.
func (r *AccountRepository) RecordLogin(ctx context.Context, id string) error {
	const query = `
		UPDATE accounts
		SET last_login_at = NOW(), failed_attempts = 0, lock_until = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

// RecordFailure persists the attempt counter and lock deadline mirrored
// from the lockout tracker.
func (r *AccountRepository) RecordFailure(ctx context.Context, id string, attempts int, lockUntil *time.Time) error {
	const query = `
		UPDATE accounts
		SET failed_attempts = $2, lock_until = $3, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, attempts, lockUntil)
	return err
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateDisplayName(ctx context.Context, id string, displayName string) error {
	const query = `
		UPDATE accounts SET display_name = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, displayName)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) CountByStatus(ctx context.Context, status models.AccountStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts WHERE status = $1`
	var count int
	if err := r.pool.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM accounts`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (models.Account, error) {
	var account models.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.DisplayName,
		&account.Role,
		&account.RequestedRole,
		&account.Status,
		&account.FailedAttempts,
		&account.LockUntil,
		&account.LastLoginAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrAccountNotFound
		}
		return models.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) scanAll(rows pgx.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		account, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
