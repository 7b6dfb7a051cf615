package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"catatuang/api/internal/models"
	"catatuang/api/internal/roles"
)

// SnapshotStore is implemented by storage.ArchiveStore.
type SnapshotStore interface {
	PutSnapshot(ctx context.Context, key string, data []byte) error
}

// ExportService writes full-ledger snapshots to the archive bucket,
// either on the nightly schedule or on admin request.
type ExportService struct {
	transactions TransactionStore
	archive      SnapshotStore
	log          zerolog.Logger
}

func NewExportService(transactions TransactionStore, archive SnapshotStore, log zerolog.Logger) *ExportService {
	return &ExportService{
		transactions: transactions,
		archive:      archive,
		log:          log,
	}
}

type exportEnvelope struct {
	ExportedAt   time.Time             `json:"exportedAt"`
	Count        int                   `json:"count"`
	Transactions []exportedTransaction `json:"transactions"`
}

type exportedTransaction struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"accountId"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
}

// Export authorizes the actor and writes the snapshot, returning the
// object key.
func (s *ExportService) Export(ctx context.Context, actor models.Session) (string, error) {
	if !roles.Can(actor.Role, roles.CapExportData) {
		return "", fmt.Errorf("%w: requires %s", ErrNotAuthorized, roles.CapExportData)
	}
	return s.Run(ctx)
}

// Run writes the snapshot without an actor; the scheduler calls it.
func (s *ExportService) Run(ctx context.Context) (string, error) {
	txs, err := s.transactions.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	now := time.Now().UTC()
	envelope := exportEnvelope{
		ExportedAt:   now,
		Count:        len(txs),
		Transactions: make([]exportedTransaction, 0, len(txs)),
	}
	for _, tx := range txs {
		envelope.Transactions = append(envelope.Transactions, exportedTransaction{
			ID:          tx.ID,
			AccountID:   tx.AccountID,
			Type:        string(tx.Type),
			Date:        tx.Date,
			Category:    tx.Category,
			Amount:      tx.Amount,
			Description: tx.Description,
		})
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("transactions/%s.json", now.Format("2006-01-02T15-04-05Z"))
	if err := s.archive.PutSnapshot(ctx, key, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}

	s.log.Info().Str("key", key).Int("count", envelope.Count).Msg("ledger snapshot archived")
	return key, nil
}
