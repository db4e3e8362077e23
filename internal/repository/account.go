package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mateuscastro5/gym-api/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("record not found")

// AccountRepository is the gorm backed credential store. Every read takes an
// explicit includeDeleted flag; nothing relies on an implicit scope.
type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) scoped(ctx context.Context, includeDeleted bool) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Account{})
	if !includeDeleted {
		q = q.Where("deleted = ?", false)
	}
	return q
}

func first(q *gorm.DB) (*models.Account, error) {
	var acc models.Account
	if err := q.First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}
	return &acc, nil
}

// Create inserts a new account and fills its ID.
func (r *AccountRepository) Create(ctx context.Context, acc *models.Account) error {
	if err := r.db.WithContext(ctx).Create(acc).Error; err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// FindByID looks an account up by primary key.
func (r *AccountRepository) FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Account, error) {
	return first(r.scoped(ctx, includeDeleted).Where("id = ?", id))
}

// FindByEmail looks an account up by exact (case-sensitive) email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.Account, error) {
	return first(r.scoped(ctx, includeDeleted).Where("email = ?", email).Order("id DESC"))
}

// FindInactiveByActivationCode returns the live INACTIVE account holding code.
func (r *AccountRepository) FindInactiveByActivationCode(ctx context.Context, code string) (*models.Account, error) {
	return first(r.scoped(ctx, false).
		Where("activation_code = ? AND status = ?", code, models.StatusInactive))
}

// FindByRecoveryCode returns the live account matching both email and code.
// Expiration is left to the caller.
func (r *AccountRepository) FindByRecoveryCode(ctx context.Context, email, code string) (*models.Account, error) {
	return first(r.scoped(ctx, false).
		Where("email = ? AND recovery_code = ?", email, code))
}

// EmailInUse reports whether a non-deleted account already owns email.
func (r *AccountRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.scoped(ctx, false).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return count > 0, nil
}

// Update writes the given columns of one account in a single statement.
// Nil values clear the column.
func (r *AccountRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns accounts newest first.
func (r *AccountRepository) List(ctx context.Context, includeDeleted bool) ([]models.Account, error) {
	var list []models.Account
	if err := r.scoped(ctx, includeDeleted).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return list, nil
}

// SoftDelete flags the account as deleted without removing the row.
func (r *AccountRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ? AND deleted = ?", id, false).
		Updates(map[string]interface{}{"deleted": true, "deleted_at": at})
	if res.Error != nil {
		return fmt.Errorf("soft delete account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearExpiredRecoveryCodes removes recovery codes that expired before now.
func (r *AccountRepository) ClearExpiredRecoveryCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("recovery_code IS NOT NULL AND recovery_code_expires_at < ?", now).
		Updates(map[string]interface{}{"recovery_code": nil, "recovery_code_expires_at": nil})
	if res.Error != nil {
		return 0, fmt.Errorf("clear recovery codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
