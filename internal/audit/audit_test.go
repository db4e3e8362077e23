package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
	err     error
}

func (s *memStore) Append(_ context.Context, e *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *e)
	return nil
}

func (s *memStore) all() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.entries...)
}

func TestDBRecorder_FillsClientFromContext(t *testing.T) {
	store := &memStore{}
	log, _ := test.NewNullLogger()
	rec := NewDBRecorder(store, "", log)

	ctx := WithClient(context.Background(), Client{IP: "10.0.0.1", UserAgent: "curl/8"})
	LoginAttempt(ctx, rec, "a@x.com", nil, models.OutcomeError, "Account not found")

	entries := store.all()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, ActionLogin, e.Action)
	assert.Equal(t, ResourceAccounts, e.Resource)
	assert.Equal(t, models.OutcomeError, e.Outcome)
	assert.Equal(t, "10.0.0.1", e.IP)
	assert.Equal(t, "curl/8", e.UserAgent)
	assert.Nil(t, e.AccountID)
	assert.Contains(t, e.Detail, "a@x.com")
	assert.Contains(t, e.Detail, "Account not found")
}

func TestDBRecorder_EncryptsDetail(t *testing.T) {
	store := &memStore{}
	log, _ := test.NewNullLogger()
	rec := NewDBRecorder(store, "k3y", log)

	Created(context.Background(), rec, nil, ResourceAccounts, 5, "Name: Ana")

	entries := store.all()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Detail)
	require.NotEmpty(t, entries[0].DetailEnc)
	assert.Equal(t, "Name: Ana", util.DecryptField("k3y", entries[0].DetailEnc))
	require.NotNil(t, entries[0].ResourceID)
	assert.Equal(t, uint(5), *entries[0].ResourceID)
}

func TestDBRecorder_StoreFailureIsSwallowed(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	log, hook := test.NewNullLogger()
	rec := NewDBRecorder(store, "", log)

	assert.NotPanics(t, func() {
		PasswordChanged(context.Background(), rec, 1, PasswordChangeRecovery)
	})

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, ActionPasswordChange, hook.LastEntry().Data["action"])
}

func TestDeleted_SoftTag(t *testing.T) {
	store := &memStore{}
	log, _ := test.NewNullLogger()
	rec := NewDBRecorder(store, "", log)
	actor := uint(1)

	Deleted(context.Background(), rec, &actor, ResourceAccounts, 9, true, "")
	Deleted(context.Background(), rec, &actor, ResourceAccounts, 9, false, "")

	entries := store.all()
	require.Len(t, entries, 2)
	assert.Equal(t, ActionSoftDelete, entries[0].Action)
	assert.Equal(t, ActionDelete, entries[1].Action)
}

func TestDispatcher_DeliversAndDrains(t *testing.T) {
	store := &memStore{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(NewDBRecorder(store, "", log), 16, log)

	ctx := WithClient(context.Background(), Client{IP: "1.2.3.4"})
	for i := 0; i < 10; i++ {
		d.Record(ctx, Event{Action: ActionLogin, Resource: ResourceAccounts, Outcome: models.OutcomeAttempt})
	}
	d.Close()

	entries := store.all()
	assert.Len(t, entries, 10)
	for _, e := range entries {
		assert.Equal(t, "1.2.3.4", e.IP, "client resolved before the request ends")
	}

	// recording after close is counted as a drop
	d.Record(ctx, Event{Action: ActionLogin})
	assert.Len(t, store.all(), 10)
	assert.Equal(t, uint64(1), d.Dropped())
}

func TestDispatcher_CloseDuringRecord(t *testing.T) {
	store := &memStore{}
	log, _ := test.NewNullLogger()
	d := NewDispatcher(NewDBRecorder(store, "", log), 4096, log)

	const workers, perWorker = 8, 200
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perWorker; j++ {
				d.Record(context.Background(), Event{Action: ActionLogin})
			}
		}()
	}
	close(start)
	d.Close()
	wg.Wait()

	assert.Equal(t, workers*perWorker, len(store.all())+int(d.Dropped()), "every event is stored or counted")
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	ua := strings.Repeat("a", 254) + "é"
	got := truncate(ua, 255)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", 254), got)

	assert.Equal(t, "short", truncate("short", 255))
	assert.Equal(t, "ab", truncate("abc", 2))
}

type blockingRecorder struct {
	release chan struct{}
	count   int
	mu      sync.Mutex
}

func (b *blockingRecorder) Record(context.Context, Event) {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	log, hook := test.NewNullLogger()
	next := &blockingRecorder{release: make(chan struct{})}
	d := NewDispatcher(next, 1, log)

	// worker may pick up one event and block on it; the buffer holds one more
	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		d.Record(context.Background(), Event{Action: ActionLogin})
	}
	assert.NotZero(t, d.Dropped())
	assert.NotEmpty(t, hook.AllEntries())

	close(next.release)
	d.Close()
}
