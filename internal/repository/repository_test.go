package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mateuscastro5/gym-api/internal/config"
	"github.com/mateuscastro5/gym-api/internal/database"
	"github.com/mateuscastro5/gym-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func strPtr(s string) *string { return &s }

func seedAccount(t *testing.T, repo *AccountRepository, email string) *models.Account {
	t.Helper()
	acc := &models.Account{
		Name:           "Test",
		Email:          email,
		PasswordHash:   "hash",
		AccessLevel:    models.LevelBasic,
		Status:         models.StatusInactive,
		ActivationCode: strPtr("code-" + email),
	}
	require.NoError(t, repo.Create(context.Background(), acc))
	require.NotZero(t, acc.ID)
	return acc
}

func TestAccountRepository_FindAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))
	acc := seedAccount(t, repo, "a@x.com")

	got, err := repo.FindByEmail(ctx, "a@x.com", false)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, models.StatusInactive, got.Status)

	_, err = repo.FindByEmail(ctx, "A@X.COM", false)
	assert.ErrorIs(t, err, ErrNotFound, "email lookup is case-sensitive")

	require.NoError(t, repo.SoftDelete(ctx, acc.ID, time.Now()))

	_, err = repo.FindByID(ctx, acc.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByEmail(ctx, "a@x.com", false)
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.FindByID(ctx, acc.ID, true)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	assert.NotNil(t, deleted.DeletedAt)

	assert.ErrorIs(t, repo.SoftDelete(ctx, acc.ID, time.Now()), ErrNotFound, "second delete finds nothing live")
}

func TestAccountRepository_EmailInUse(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))
	acc := seedAccount(t, repo, "dup@x.com")

	inUse, err := repo.EmailInUse(ctx, "dup@x.com")
	require.NoError(t, err)
	assert.True(t, inUse)

	require.NoError(t, repo.SoftDelete(ctx, acc.ID, time.Now()))

	inUse, err = repo.EmailInUse(ctx, "dup@x.com")
	require.NoError(t, err)
	assert.False(t, inUse, "soft-deleted rows release the email")

	// the released email can be registered again
	again := seedAccount(t, repo, "dup@x.com")
	got, err := repo.FindByEmail(ctx, "dup@x.com", false)
	require.NoError(t, err)
	assert.Equal(t, again.ID, got.ID)
}

func TestAccountRepository_ActivationLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))
	acc := seedAccount(t, repo, "act@x.com")

	got, err := repo.FindInactiveByActivationCode(ctx, "code-act@x.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	require.NoError(t, repo.Update(ctx, acc.ID, map[string]interface{}{
		"status":          models.StatusActive,
		"activation_code": nil,
	}))

	_, err = repo.FindInactiveByActivationCode(ctx, "code-act@x.com")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = repo.FindByID(ctx, acc.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Nil(t, got.ActivationCode)
}

func TestAccountRepository_UpdateMissing(t *testing.T) {
	repo := NewAccountRepository(newTestDB(t))
	err := repo.Update(context.Background(), 999, map[string]interface{}{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccountRepository_RecoveryCodes(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))
	now := time.Now()

	fresh := seedAccount(t, repo, "fresh@x.com")
	stale := seedAccount(t, repo, "stale@x.com")

	require.NoError(t, repo.Update(ctx, fresh.ID, map[string]interface{}{
		"recovery_code":            "1234",
		"recovery_code_expires_at": now.Add(10 * time.Minute),
	}))
	require.NoError(t, repo.Update(ctx, stale.ID, map[string]interface{}{
		"recovery_code":            "5678",
		"recovery_code_expires_at": now.Add(-time.Minute),
	}))

	got, err := repo.FindByRecoveryCode(ctx, "fresh@x.com", "1234")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)

	_, err = repo.FindByRecoveryCode(ctx, "fresh@x.com", "5678")
	assert.ErrorIs(t, err, ErrNotFound, "code must belong to the same email")

	n, err := repo.ClearExpiredRecoveryCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByRecoveryCode(ctx, "stale@x.com", "5678")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByRecoveryCode(ctx, "fresh@x.com", "1234")
	assert.NoError(t, err)
}

func TestAccountRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newTestDB(t))
	a := seedAccount(t, repo, "a@x.com")
	seedAccount(t, repo, "b@x.com")
	require.NoError(t, repo.SoftDelete(ctx, a.ID, time.Now()))

	live, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, "b@x.com", live[0].Email)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLogRepository_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(newTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uid := uint(7)

	entries := []models.AuditLog{
		{AccountID: &uid, Action: "LOGIN", Resource: "accounts", Outcome: models.OutcomeSuccess, CreatedAt: base},
		{AccountID: &uid, Action: "LOGIN", Resource: "accounts", Outcome: models.OutcomeError, CreatedAt: base.Add(time.Hour)},
		{Action: "LOGIN", Resource: "accounts", Outcome: models.OutcomeError, CreatedAt: base.Add(2 * time.Hour)},
		{Action: "CREATE", Resource: "accounts", Outcome: models.OutcomeSuccess, CreatedAt: base.Add(24 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, repo.Append(ctx, &entries[i]))
	}

	logs, total, err := repo.List(ctx, LogFilter{}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, logs, 2)
	assert.Equal(t, "CREATE", logs[0].Action, "newest first")

	logs, total, err = repo.List(ctx, LogFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, logs, 2)

	_, total, err = repo.List(ctx, LogFilter{AccountID: &uid}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, LogFilter{Action: "LOGIN", Outcome: string(models.OutcomeError)}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = repo.List(ctx, LogFilter{Start: base, End: base.Add(24 * time.Hour)}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "end is exclusive")

	all, err := repo.All(ctx, LogFilter{}, 3)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entries[0].ID, all[0].ID, "export is oldest first")
}
