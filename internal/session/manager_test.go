package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"catatuang/api/internal/models"
)

// fakeStore is an in-memory session.Store.
type fakeStore struct {
	mu      sync.Mutex
	byID    map[string]models.Session
	creates int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[string]models.Session)}
}

func (f *fakeStore) Create(_ context.Context, sess models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Replace-per-account, like the real table's unique constraint.
	for id, existing := range f.byID {
		if existing.AccountID == sess.AccountID {
			delete(f.byID, id)
		}
	}
	f.byID[sess.ID] = sess
	f.creates++
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	f.deletes++
	return nil
}

func (f *fakeStore) DeleteByAccount(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sess := range f.byID {
		if sess.AccountID == accountID {
			delete(f.byID, id)
			f.deletes++
		}
	}
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeStore) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok
}

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	m := NewManager(timeout, store, zerolog.Nop())
	t.Cleanup(m.Close)
	return m, store
}

func TestInstallReplacesPriorSession(t *testing.T) {
	m, store := newTestManager(t, 30*time.Minute)
	ctx := context.Background()

	first, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	second, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 1, store.count())
	require.True(t, store.has(second.ID))
}

func TestInstallRejectsSupersededGeneration(t *testing.T) {
	m, store := newTestManager(t, 30*time.Minute)
	ctx := context.Background()

	gen := m.Generation("acct-1")

	// A logout lands while the credential check is in flight.
	require.NoError(t, m.End(ctx, "acct-1"))

	_, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", gen)
	require.ErrorIs(t, err, ErrSuperseded)
	require.Equal(t, 0, store.count())
}

func TestValidateBoundaries(t *testing.T) {
	const timeout = 30 * time.Minute

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"just inside", timeout - time.Millisecond, true},
		{"exactly at timeout", timeout, false},
		{"just past", timeout + time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestManager(t, timeout)
			m.now = func() time.Time { return base.Add(tt.age) }

			sess := models.Session{ID: "s1", AccountID: "acct-1", CreatedAt: base}
			require.Equal(t, tt.want, m.Validate(context.Background(), sess))
		})
	}
}

func TestValidateTearsDownStaleSession(t *testing.T) {
	m, store := newTestManager(t, 30*time.Minute)
	ctx := context.Background()

	sess, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	m.now = func() time.Time { return sess.CreatedAt.Add(31 * time.Minute) }

	require.False(t, m.Validate(ctx, sess))
	require.Equal(t, 0, store.count())
}

func TestTimerExpiresSessionWithoutActivity(t *testing.T) {
	m, store := newTestManager(t, 30*time.Millisecond)
	ctx := context.Background()

	sess, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)
	require.True(t, store.has(sess.ID))

	require.Eventually(t, func() bool {
		return !store.has(sess.ID)
	}, time.Second, 5*time.Millisecond, "expiry timer should force logout on its own")
}

func TestReplacedSessionTimerDoesNotFire(t *testing.T) {
	m, store := newTestManager(t, 50*time.Millisecond)
	ctx := context.Background()

	_, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	// Replace before the first timer's deadline; the second session
	// must survive past it.
	second, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	require.True(t, store.has(second.ID))
}

func TestEndIsIdempotent(t *testing.T) {
	m, store := newTestManager(t, 30*time.Minute)
	ctx := context.Background()

	_, err := m.Install(ctx, "acct-1", models.RoleUser, "", "", m.Generation("acct-1"))
	require.NoError(t, err)

	require.NoError(t, m.End(ctx, "acct-1"))
	require.NoError(t, m.End(ctx, "acct-1"))
	require.Equal(t, 0, store.count())
}
