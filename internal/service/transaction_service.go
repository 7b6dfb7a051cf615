package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"catatuang/api/internal/ids"
	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
	"catatuang/api/internal/roles"
)

// TransactionStore is implemented by repository.TransactionRepository.
type TransactionStore interface {
	Create(ctx context.Context, tx models.Transaction) error
	ListByAccount(ctx context.Context, accountID string, txType models.TransactionType, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context) ([]models.Transaction, error)
	Delete(ctx context.Context, id string, accountID string) error
	Count(ctx context.Context) (int, error)
	Summary(ctx context.Context, accountID string) (income int64, expense int64, err error)
}

type TransactionService struct {
	transactions TransactionStore
	accounts     AccountAdminStore
	log          zerolog.Logger
}

func NewTransactionService(transactions TransactionStore, accounts AccountAdminStore, log zerolog.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		accounts:     accounts,
		log:          log,
	}
}

type AddTransactionInput struct {
	Type        models.TransactionType
	Date        time.Time
	Category    string
	Amount      int64
	Description string
}

func (s *TransactionService) Add(ctx context.Context, actor models.Session, input AddTransactionInput) (models.Transaction, error) {
	if !roles.Can(actor.Role, roles.CapSubmitTransactions) {
		return models.Transaction{}, fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapSubmitTransactions)
	}

	if input.Type != models.TransactionTypeIncome && input.Type != models.TransactionTypeExpense {
		return models.Transaction{}, &ValidationError{Field: "type", Message: "must be income or expense"}
	}
	if input.Amount <= 0 {
		return models.Transaction{}, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if !models.ValidCategory(input.Type, input.Category) {
		return models.Transaction{}, &ValidationError{Field: "category", Message: "unknown category"}
	}
	if input.Date.IsZero() {
		return models.Transaction{}, &ValidationError{Field: "date", Message: "required"}
	}

	tx := models.Transaction{
		ID:          ids.New(),
		AccountID:   actor.AccountID,
		Type:        input.Type,
		Date:        input.Date,
		Category:    input.Category,
		Amount:      input.Amount,
		Description: input.Description,
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return models.Transaction{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, actor models.Session, txType models.TransactionType, limit, offset int) ([]models.Transaction, error) {
	if !roles.Can(actor.Role, roles.CapViewTransactions) {
		return nil, fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapViewTransactions)
	}
	if txType != "" && txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
		return nil, &ValidationError{Field: "type", Message: "must be income or expense"}
	}

	txs, err := s.transactions.ListByAccount(ctx, actor.AccountID, txType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return txs, nil
}

func (s *TransactionService) Remove(ctx context.Context, actor models.Session, id string) error {
	if !roles.Can(actor.Role, roles.CapSubmitTransactions) {
		return fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapSubmitTransactions)
	}

	// Ownership is part of the delete predicate; removing another
	// account's entry reads as not found.
	if err := s.transactions.Delete(ctx, id, actor.AccountID); err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return nil
}

type AccountSummary struct {
	TotalIncome  int64
	TotalExpense int64
	Balance      int64
}

func (s *TransactionService) Summarize(ctx context.Context, actor models.Session) (AccountSummary, error) {
	if !roles.Can(actor.Role, roles.CapViewSummary) {
		return AccountSummary{}, fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapViewSummary)
	}

	income, expense, err := s.transactions.Summary(ctx, actor.AccountID)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return AccountSummary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income - expense,
	}, nil
}

type AdminStats struct {
	TotalUsers        int
	PendingUsers      int
	TotalTransactions int
	TotalIncome       int64
	TotalExpense      int64
}

func (s *TransactionService) Stats(ctx context.Context, actor models.Session) (AdminStats, error) {
	if !roles.Can(actor.Role, roles.CapViewReports) {
		return AdminStats{}, fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapViewReports)
	}

	var stats AdminStats
	var err error
	if stats.TotalUsers, err = s.accounts.Count(ctx); err != nil {
		return AdminStats{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if stats.PendingUsers, err = s.accounts.CountByStatus(ctx, models.AccountStatusPending); err != nil {
		return AdminStats{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if stats.TotalTransactions, err = s.transactions.Count(ctx); err != nil {
		return AdminStats{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	if stats.TotalIncome, stats.TotalExpense, err = s.transactions.Summary(ctx, ""); err != nil {
		return AdminStats{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	return stats, nil
}
