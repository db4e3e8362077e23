package models

import "time"

// LogOutcome is the result recorded for an audited event.
type LogOutcome string

const (
	OutcomeSuccess LogOutcome = "SUCCESS"
	OutcomeError   LogOutcome = "ERROR"
	OutcomeAttempt LogOutcome = "ATTEMPT"
)

// AuditLog records security relevant operations. Rows are append-only.
type AuditLog struct {
	ID         uint       `gorm:"primaryKey"`
	AccountID  *uint      `gorm:"index"`
	Action     string     `gorm:"size:50;index;not null"`
	Resource   string     `gorm:"size:50;not null"`
	ResourceID *uint      `gorm:"index"`
	Outcome    LogOutcome `gorm:"size:16;index;not null"`
	IP         string     `gorm:"size:64"`
	UserAgent  string     `gorm:"size:255"`
	Detail     string     `gorm:"type:text"` // plain text, empty when DetailEnc is used
	DetailEnc  string     `gorm:"type:text"` // AES-GCM + base64
	CreatedAt  time.Time  `gorm:"index"`
}
