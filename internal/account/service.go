// Package account implements the account lifecycle: registration, activation,
// login with lockout, password recovery and password change.
//
// An account moves INACTIVE -> ACTIVE on activation and ACTIVE -> LOCKED after
// too many failed logins. There is no exit from LOCKED. Soft-deleted accounts
// are invisible to every operation.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mateuscastro5/gym-api/internal/audit"
	"github.com/mateuscastro5/gym-api/internal/metrics"
	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/repository"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLockoutThreshold = 3
	DefaultRecoveryTTL      = 15 * time.Minute
)

// RecoveryAck is the answer to every recovery request.
const RecoveryAck = "If the e-mail is registered you will receive recovery instructions."

// Store is the credential store. Lookups return repository.ErrNotFound on a
// miss and skip soft-deleted rows unless includeDeleted is set.
type Store interface {
	Create(ctx context.Context, acc *models.Account) error
	FindByID(ctx context.Context, id uint, includeDeleted bool) (*models.Account, error)
	FindByEmail(ctx context.Context, email string, includeDeleted bool) (*models.Account, error)
	FindInactiveByActivationCode(ctx context.Context, code string) (*models.Account, error)
	FindByRecoveryCode(ctx context.Context, email, code string) (*models.Account, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	List(ctx context.Context, includeDeleted bool) ([]models.Account, error)
	SoftDelete(ctx context.Context, id uint, at time.Time) error
}

// Notifier delivers account e-mails.
type Notifier interface {
	SendActivation(ctx context.Context, to, name, code string) error
	SendRecovery(ctx context.Context, to, name, code string, ttl time.Duration) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(accountID uint, email, name string, accessLevel int) (string, error)
	TTL() time.Duration
}

type Service struct {
	store    Store
	tokens   TokenIssuer
	notifier Notifier
	audit    audit.Recorder
	log      logrus.FieldLogger

	now              func() time.Time
	bcryptCost       int
	lockoutThreshold int
	recoveryTTL      time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}

func WithLockoutThreshold(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lockoutThreshold = n
		}
	}
}

func WithRecoveryTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.recoveryTTL = ttl
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(store Store, tokens TokenIssuer, notifier Notifier, rec audit.Recorder, opts ...Option) *Service {
	s := &Service{
		store:            store,
		tokens:           tokens,
		notifier:         notifier,
		audit:            rec,
		log:              logrus.StandardLogger(),
		now:              time.Now,
		bcryptCost:       util.BcryptCost,
		lockoutThreshold: DefaultLockoutThreshold,
		recoveryTTL:      DefaultRecoveryTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	return s
}

func (s *Service) record(ctx context.Context, accountID *uint, action string, outcome models.LogOutcome, detail string) {
	var resID *uint
	if accountID != nil {
		id := *accountID
		resID = &id
	}
	s.audit.Record(ctx, audit.Event{
		AccountID:  accountID,
		Action:     action,
		Resource:   audit.ResourceAccounts,
		ResourceID: resID,
		Outcome:    outcome,
		Detail:     detail,
	})
}

func lookup(acc *models.Account, err error) (*models.Account, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return acc, err
}

// Register creates an INACTIVE account and mails its activation code.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Summary, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	if v := util.ValidatePassword(req.Password); !v.Valid {
		s.record(ctx, nil, audit.ActionRegisterFailed, models.OutcomeError,
			fmt.Sprintf("Password rejected for email: %s. Errors: %s", req.Email, strings.Join(v.Errors, ", ")))
		metrics.AccountEvent("register", "invalid_password")
		return nil, newPolicyError(v.Errors)
	}

	inUse, err := s.store.EmailInUse(ctx, req.Email)
	if err != nil {
		return nil, s.registerError(ctx, err)
	}
	if inUse {
		s.record(ctx, nil, audit.ActionRegisterFailed, models.OutcomeError,
			fmt.Sprintf("Registration with existing email: %s", req.Email))
		metrics.AccountEvent("register", "duplicate")
		return nil, ErrDuplicateEmail
	}

	hash, err := util.HashPasswordCost(req.Password, s.bcryptCost)
	if err != nil {
		return nil, s.registerError(ctx, err)
	}

	level := req.AccessLevel
	if level == 0 {
		level = models.LevelBasic
	}
	code := util.NewActivationCode()
	acc := &models.Account{
		Name:           req.Name,
		Email:          req.Email,
		PasswordHash:   hash,
		AccessLevel:    level,
		Status:         models.StatusInactive,
		ActivationCode: &code,
	}
	if req.SecurityQuestion != "" {
		q := req.SecurityQuestion
		acc.SecurityQuestion = &q
	}
	if req.SecurityAnswer != "" {
		answer, err := util.HashPasswordCost(strings.ToLower(req.SecurityAnswer), s.bcryptCost)
		if err != nil {
			return nil, s.registerError(ctx, err)
		}
		acc.SecurityAnswerHash = &answer
	}

	if err := s.store.Create(ctx, acc); err != nil {
		return nil, s.registerError(ctx, err)
	}

	if err := s.notifier.SendActivation(ctx, acc.Email, acc.Name, code); err != nil {
		s.log.WithError(err).WithField("email", acc.Email).Warn("activation mail not sent")
	}

	audit.Created(ctx, s.audit, &acc.ID, audit.ResourceAccounts, acc.ID, "Account registered: "+acc.Email)
	metrics.AccountEvent("register", "success")

	sum := summarize(acc)
	return &sum, nil
}

func (s *Service) registerError(ctx context.Context, err error) error {
	s.record(ctx, nil, audit.ActionRegisterError, models.OutcomeError, "Internal error: "+err.Error())
	metrics.AccountEvent("register", "error")
	return fmt.Errorf("register account: %w", err)
}

// Activate consumes an activation code, moving its INACTIVE account to ACTIVE.
func (s *Service) Activate(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return &ValidationError{Message: "activation code is required"}
	}

	acc, err := lookup(s.store.FindInactiveByActivationCode(ctx, code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.AccountEvent("activate", "not_found")
		}
		return err
	}

	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
		"status":          models.StatusActive,
		"activation_code": nil,
	}); err != nil {
		return fmt.Errorf("activate account %d: %w", acc.ID, err)
	}

	s.record(ctx, &acc.ID, audit.ActionAccountActivated, models.OutcomeSuccess, "Account activated via e-mail link")
	metrics.AccountEvent("activate", "success")
	return nil
}

// Login checks credentials and issues a session token. Every rejection is
// audited with its precise cause while callers only see the generic error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, fromValidation(err)
	}

	acc, err := lookup(s.store.FindByEmail(ctx, req.Email, false))
	if errors.Is(err, ErrNotFound) {
		audit.LoginAttempt(ctx, s.audit, req.Email, nil, models.OutcomeError, "Account not found")
		metrics.AccountEvent("login", "unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	switch acc.Status {
	case models.StatusLocked:
		audit.LoginAttempt(ctx, s.audit, req.Email, &acc.ID, models.OutcomeError, "Account locked")
		metrics.AccountEvent("login", "locked")
		return nil, ErrAccountLocked
	case models.StatusInactive:
		audit.LoginAttempt(ctx, s.audit, req.Email, &acc.ID, models.OutcomeError, "Account inactive")
		metrics.AccountEvent("login", "inactive")
		return nil, ErrAccountInactive
	}

	if !util.CheckPassword(req.Password, acc.PasswordHash) {
		return nil, s.failedLogin(ctx, acc)
	}

	token, err := s.tokens.Issue(acc.ID, acc.Email, acc.Name, int(acc.AccessLevel))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	previous := acc.LastLoginAt
	now := s.now()
	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
		"failed_login_attempts": 0,
		"last_login_at":         now,
		"last_login_ip":         audit.ClientFrom(ctx).IP,
	}); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	acc.FailedLoginAttempts = 0
	acc.LastLoginAt = &now

	audit.LoginAttempt(ctx, s.audit, req.Email, &acc.ID, models.OutcomeSuccess, "Login succeeded")
	metrics.AccountEvent("login", "success")

	return &LoginResult{
		Token:           token,
		ExpiresIn:       s.tokens.TTL(),
		Account:         summarize(acc),
		PreviousLoginAt: previous,
		Welcome:         welcome(acc.Name, previous),
	}, nil
}

func (s *Service) failedLogin(ctx context.Context, acc *models.Account) error {
	attempts := acc.FailedLoginAttempts + 1

	if attempts >= s.lockoutThreshold {
		if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
			"failed_login_attempts": attempts,
			"status":                models.StatusLocked,
		}); err != nil {
			return fmt.Errorf("lock account %d: %w", acc.ID, err)
		}
		audit.LoginAttempt(ctx, s.audit, acc.Email, &acc.ID, models.OutcomeError,
			fmt.Sprintf("Account locked after %d attempts", attempts))
		metrics.AccountEvent("login", "lockout")
		return ErrAccountLocked
	}

	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
		"failed_login_attempts": attempts,
	}); err != nil {
		return fmt.Errorf("count failed login %d: %w", acc.ID, err)
	}
	audit.LoginAttempt(ctx, s.audit, acc.Email, &acc.ID, models.OutcomeError,
		fmt.Sprintf("Wrong password. Attempt %d/%d", attempts, s.lockoutThreshold))
	metrics.AccountEvent("login", "wrong_password")
	return &CredentialsError{Remaining: s.lockoutThreshold - attempts}
}

func welcome(name string, previous *time.Time) string {
	msg := fmt.Sprintf("Welcome, %s!", name)
	if previous == nil {
		return msg + " This is your first access."
	}
	return msg + " Your last access was at " + previous.Format("2006-01-02 15:04:05") + "."
}

// RequestRecovery stores a fresh recovery code for email and mails it. The
// result is RecoveryAck whether or not the e-mail exists.
func (s *Service) RequestRecovery(ctx context.Context, req RecoveryRequest) (string, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return "", fromValidation(err)
	}

	acc, err := lookup(s.store.FindByEmail(ctx, req.Email, false))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).Error("recovery lookup failed")
		}
		metrics.AccountEvent("recovery_request", "ack")
		return RecoveryAck, nil
	}

	code, err := util.NewRecoveryCode()
	if err != nil {
		s.log.WithError(err).Error("recovery code generation failed")
		return RecoveryAck, nil
	}
	expires := s.now().Add(s.recoveryTTL)

	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
		"recovery_code":            code,
		"recovery_code_expires_at": expires,
	}); err != nil {
		s.log.WithError(err).WithField("account_id", acc.ID).Error("recovery code not stored")
		return RecoveryAck, nil
	}

	if err := s.notifier.SendRecovery(ctx, acc.Email, acc.Name, code, s.recoveryTTL); err != nil {
		s.log.WithError(err).WithField("email", acc.Email).Warn("recovery mail not sent")
	}

	s.record(ctx, &acc.ID, audit.ActionRecoveryRequested, models.OutcomeSuccess, "Recovery code sent by e-mail")
	metrics.AccountEvent("recovery_request", "ack")
	return RecoveryAck, nil
}

// ConfirmRecovery replaces the password when email and code match an
// unexpired recovery code. The code is single use.
func (s *Service) ConfirmRecovery(ctx context.Context, req ConfirmRecoveryRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if err := req.Validate(); err != nil {
		return fromValidation(err)
	}
	if v := util.ValidatePassword(req.NewPassword); !v.Valid {
		metrics.AccountEvent("recovery_confirm", "invalid_password")
		return newPolicyError(v.Errors)
	}

	acc, err := lookup(s.store.FindByRecoveryCode(ctx, req.Email, req.Code))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("confirm recovery: %w", err)
	}
	now := s.now()
	if acc == nil || acc.RecoveryCodeExpiresAt == nil || !acc.RecoveryCodeExpiresAt.After(now) {
		var id *uint
		if acc != nil {
			id = &acc.ID
		}
		s.record(ctx, id, audit.ActionRecoveryFailed, models.OutcomeError,
			"Invalid or expired code for email: "+req.Email)
		metrics.AccountEvent("recovery_confirm", "invalid_code")
		return ErrInvalidOrExpiredCode
	}

	hash, err := util.HashPasswordCost(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("confirm recovery: %w", err)
	}
	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{
		"password_hash":            hash,
		"recovery_code":            nil,
		"recovery_code_expires_at": nil,
	}); err != nil {
		return fmt.Errorf("reset password %d: %w", acc.ID, err)
	}

	audit.PasswordChanged(ctx, s.audit, acc.ID, audit.PasswordChangeRecovery)
	metrics.AccountEvent("recovery_confirm", "success")
	return nil
}

// ChangePassword replaces the password of an authenticated account.
func (s *Service) ChangePassword(ctx context.Context, accountID uint, req ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fromValidation(err)
	}
	if v := util.ValidatePassword(req.NewPassword); !v.Valid {
		s.record(ctx, &accountID, audit.ActionPasswordChangeFailed, models.OutcomeError,
			"New password rejected: "+strings.Join(v.Errors, ", "))
		metrics.AccountEvent("password_change", "invalid_password")
		return newPolicyError(v.Errors)
	}

	acc, err := lookup(s.store.FindByID(ctx, accountID, false))
	if err != nil {
		return err
	}

	if !util.CheckPassword(req.CurrentPassword, acc.PasswordHash) {
		s.record(ctx, &acc.ID, audit.ActionPasswordChangeFailed, models.OutcomeError, "Current password incorrect")
		metrics.AccountEvent("password_change", "wrong_password")
		return ErrWrongPassword
	}

	hash, err := util.HashPasswordCost(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.store.Update(ctx, acc.ID, map[string]interface{}{"password_hash": hash}); err != nil {
		return fmt.Errorf("change password %d: %w", acc.ID, err)
	}

	audit.PasswordChanged(ctx, s.audit, acc.ID, audit.PasswordChangeVoluntary)
	metrics.AccountEvent("password_change", "success")
	return nil
}

// Current loads the account behind an authenticated session. Only ACTIVE,
// non-deleted accounts pass.
func (s *Service) Current(ctx context.Context, accountID uint) (*Summary, error) {
	acc, err := lookup(s.store.FindByID(ctx, accountID, false))
	if err != nil {
		return nil, err
	}
	switch acc.Status {
	case models.StatusLocked:
		return nil, ErrAccountLocked
	case models.StatusInactive:
		return nil, ErrAccountInactive
	}
	sum := summarize(acc)
	return &sum, nil
}

// List returns account summaries, newest first.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]Summary, error) {
	list, err := s.store.List(ctx, includeDeleted)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for i := range list {
		out = append(out, summarize(&list[i]))
	}
	return out, nil
}

// SoftDelete flags an account as deleted on behalf of actorID.
func (s *Service) SoftDelete(ctx context.Context, actorID, id uint) error {
	acc, err := lookup(s.store.FindByID(ctx, id, false))
	if err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, acc.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("soft delete account %d: %w", acc.ID, err)
	}

	audit.Deleted(ctx, s.audit, &actorID, audit.ResourceAccounts, acc.ID, true, "Account deleted: "+acc.Email)
	metrics.AccountEvent("soft_delete", "success")
	return nil
}
