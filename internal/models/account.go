package models

import "time"

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusInactive AccountStatus = "INACTIVE"
	StatusActive   AccountStatus = "ACTIVE"
	StatusLocked   AccountStatus = "LOCKED"
)

// AccessLevel is the ordinal permission level of an account.
type AccessLevel int

const (
	LevelBasic     AccessLevel = 1
	LevelModerator AccessLevel = 2
	LevelAdmin     AccessLevel = 3
)

// Valid reports whether l is one of the known levels.
func (l AccessLevel) Valid() bool {
	return l >= LevelBasic && l <= LevelAdmin
}

// Account represents a user account of the fitness center.
type Account struct {
	ID           uint          `gorm:"primaryKey"`
	Name         string        `gorm:"size:100;not null"`
	Email        string        `gorm:"size:100;index;not null"` // unique among non-deleted rows, enforced by the store
	PasswordHash string        `gorm:"size:255;not null"`
	AccessLevel  AccessLevel   `gorm:"not null;default:1"`
	Status       AccountStatus `gorm:"size:16;index;not null;default:INACTIVE"`

	FailedLoginAttempts int        `gorm:"not null;default:0"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`

	ActivationCode *string `gorm:"size:32;index"`

	SecurityQuestion   *string `gorm:"size:255"`
	SecurityAnswerHash *string `gorm:"size:255"`

	RecoveryCode          *string    `gorm:"size:4"`
	RecoveryCodeExpiresAt *time.Time `gorm:"index"`

	Deleted   bool       `gorm:"index;not null;default:false"`
	DeletedAt *time.Time // soft delete time, nil while the account is live

	CreatedAt time.Time
	UpdatedAt time.Time
}
