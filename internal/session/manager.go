// Package session owns the runtime session state machine: at most one
// active session per account, replaced on re-login, torn down by
// explicit logout, by a failed validation, or by the expiry timer.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"catatuang/api/internal/ids"
	"catatuang/api/internal/models"
)

// ErrSuperseded means the session state moved on (logout or another
// login) while the caller's work was in flight; the caller's result
// must be discarded, not installed.
var ErrSuperseded = errors.New("session generation superseded")

// Store is the durable half of the session record. Implemented by
// repository.SessionRepository.
type Store interface {
	Create(ctx context.Context, session models.Session) error
	Delete(ctx context.Context, id string) error
	DeleteByAccount(ctx context.Context, accountID string) error
}

type active struct {
	session models.Session
	timer   *time.Timer
}

type Manager struct {
	mu     sync.Mutex
	active map[string]*active // by account id
	gens   map[string]uint64

	timeout time.Duration
	store   Store
	log     zerolog.Logger
	now     func() time.Time
}

func NewManager(timeout time.Duration, store Store, log zerolog.Logger) *Manager {
	return &Manager{
		active:  make(map[string]*active),
		gens:    make(map[string]uint64),
		timeout: timeout,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Generation returns the session generation for accountID. Capture it
// before a suspension point (the credential check) and pass it to
// Install; any logout or login in between bumps it.
func (m *Manager) Generation(accountID string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gens[accountID]
}

// Install creates and activates a session for the account, replacing
// any prior one. It fails with ErrSuperseded when gen no longer matches
// the account's current generation.
func (m *Manager) Install(ctx context.Context, accountID string, role models.Role, ip, userAgent string, gen uint64) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[accountID] != gen {
		return models.Session{}, ErrSuperseded
	}

	now := m.now()
	sess := models.Session{
		ID:        ids.New(),
		AccountID: accountID,
		Role:      role,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.timeout),
	}

	if err := m.store.Create(ctx, sess); err != nil {
		return models.Session{}, err
	}

	m.dropLocked(accountID)
	m.gens[accountID]++
	m.active[accountID] = &active{
		session: sess,
		timer:   time.AfterFunc(m.timeout, func() { m.expire(accountID, sess.ID) }),
	}

	return sess, nil
}

// Validate reports whether the session is still inside its timeout
// window. A stale session is torn down as a side effect.
func (m *Manager) Validate(ctx context.Context, sess models.Session) bool {
	if m.now().Sub(sess.CreatedAt) < m.timeout {
		return true
	}
	if err := m.End(ctx, sess.AccountID); err != nil {
		m.log.Warn().Err(err).Str("account_id", sess.AccountID).Msg("teardown of stale session failed")
	}
	return false
}

// End logs the account out. Idempotent: ending an account with no
// session is a no-op.
func (m *Manager) End(ctx context.Context, accountID string) error {
	m.mu.Lock()
	m.dropLocked(accountID)
	m.gens[accountID]++
	m.mu.Unlock()

	return m.store.DeleteByAccount(ctx, accountID)
}

// Close stops every outstanding expiry timer. Sessions stay in the
// store; the periodic sweep reclaims them.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for accountID := range m.active {
		m.dropLocked(accountID)
	}
}

// expire fires from the session's timer. The session id guard keeps a
// timer that lost the race with a replacement login from touching the
// successor session.
func (m *Manager) expire(accountID, sessionID string) {
	m.mu.Lock()
	a, ok := m.active[accountID]
	if !ok || a.session.ID != sessionID {
		m.mu.Unlock()
		return
	}
	delete(m.active, accountID)
	m.gens[accountID]++
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Delete(ctx, sessionID); err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Msg("expired session delete failed")
	}

	m.log.Info().
		Str("account_id", accountID).
		Str("session_id", sessionID).
		Msg("session expired")
}

// dropLocked cancels the timer and forgets the active session. Callers
// hold m.mu.
func (m *Manager) dropLocked(accountID string) {
	if a, ok := m.active[accountID]; ok {
		a.timer.Stop()
		delete(m.active, accountID)
	}
}
