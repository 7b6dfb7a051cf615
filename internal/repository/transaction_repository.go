package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"catatuang/api/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

const transactionColumns = `
	id, account_id, type, date, category, amount, description, created_at
`

type TransactionRepository struct {
	pool *pgxpool.Pool
}

func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) Create(ctx context.Context, tx models.Transaction) error {
	const query = `
		INSERT INTO transactions (
			id, account_id, type, date, category, amount, description, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.Type,
		tx.Date,
		tx.Category,
		tx.Amount,
		tx.Description,
	)
	return err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, txType models.TransactionType, limit, offset int) ([]models.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY date DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, accountID, string(txType), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *TransactionRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *TransactionRepository) Delete(ctx context.Context, id string, accountID string) error {
	const query = `DELETE FROM transactions WHERE id = $1 AND account_id = $2`
	cmd, err := r.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM transactions`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Summary sums amounts per type for one account, or for every account
// when accountID is empty.
func (r *TransactionRepository) Summary(ctx context.Context, accountID string) (income int64, expense int64, err error) {
	const query = `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE ($1 = '' OR account_id = $1)
	`
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&income, &expense); err != nil {
		return 0, 0, err
	}
	return income, expense, nil
}

func (r *TransactionRepository) scanOne(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	if err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Type,
		&tx.Date,
		&tx.Category,
		&tx.Amount,
		&tx.Description,
		&tx.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, ErrTransactionNotFound
		}
		return models.Transaction{}, err
	}
	return tx, nil
}

func (r *TransactionRepository) scanAll(rows pgx.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		tx, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
