// Package audit records security relevant events. Recording is best effort:
// a failed write is reported on the process logger and never surfaces to the
// operation being audited.
package audit

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/sirupsen/logrus"
)

// Canonical action tags.
const (
	ActionLogin                = "LOGIN"
	ActionCreate               = "CREATE"
	ActionDelete               = "DELETE"
	ActionSoftDelete           = "SOFT_DELETE"
	ActionRegisterFailed       = "REGISTER_FAILED"
	ActionRegisterError        = "REGISTER_ERROR"
	ActionAccountActivated     = "ACCOUNT_ACTIVATED"
	ActionPasswordChange       = "PASSWORD_CHANGE"
	ActionPasswordChangeFailed = "PASSWORD_CHANGE_FAILED"
	ActionRecoveryRequested    = "PASSWORD_RECOVERY_REQUESTED"
	ActionRecoveryFailed       = "PASSWORD_RECOVERY_FAILED"
	ActionAuthFailed           = "AUTH_FAILED"
	ActionAccessDenied         = "ACCESS_DENIED"
)

// ResourceAccounts is the resource type of account rows.
const ResourceAccounts = "accounts"

// PasswordChangeKind tells a voluntary change from a recovery reset.
type PasswordChangeKind string

const (
	PasswordChangeVoluntary PasswordChangeKind = "CHANGE"
	PasswordChangeRecovery  PasswordChangeKind = "RECOVERY"
)

// Event is one audit record before persistence.
type Event struct {
	AccountID  *uint
	Action     string
	Resource   string
	ResourceID *uint
	Outcome    models.LogOutcome
	IP         string
	UserAgent  string
	Detail     string
}

// Recorder accepts audit events. Implementations must not block the caller on
// failure and must not return errors.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// Store persists audit rows.
type Store interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// Client identifies the caller of the current request.
type Client struct {
	IP        string
	UserAgent string
}

type clientKey struct{}

// WithClient stores the request's client info for later audit records.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the client stored by WithClient, if any.
func ClientFrom(ctx context.Context) Client {
	if ctx == nil {
		return Client{}
	}
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// withClient fills empty IP/UserAgent from ctx.
func withClient(ctx context.Context, e Event) Event {
	c := ClientFrom(ctx)
	if e.IP == "" {
		e.IP = c.IP
	}
	if e.UserAgent == "" {
		e.UserAgent = c.UserAgent
	}
	return e
}

// DBRecorder writes events synchronously through a Store.
type DBRecorder struct {
	store      Store
	encryptKey string
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewDBRecorder builds a recorder. When encryptKey is set the free-text
// detail is stored encrypted.
func NewDBRecorder(store Store, encryptKey string, log logrus.FieldLogger) *DBRecorder {
	return &DBRecorder{
		store:      store,
		encryptKey: encryptKey,
		log:        log,
		now:        time.Now,
	}
}

func (r *DBRecorder) Record(ctx context.Context, e Event) {
	e = withClient(ctx, e)

	entry := models.AuditLog{
		AccountID:  e.AccountID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Outcome:    e.Outcome,
		IP:         e.IP,
		UserAgent:  truncate(e.UserAgent, 255),
		CreatedAt:  r.now(),
	}
	if r.encryptKey != "" && e.Detail != "" {
		enc, err := util.EncryptField(r.encryptKey, e.Detail)
		if err != nil {
			r.log.WithError(err).WithField("action", e.Action).Warn("audit detail encryption failed")
			entry.Detail = e.Detail
		} else {
			entry.DetailEnc = enc
		}
	} else {
		entry.Detail = e.Detail
	}

	if err := r.store.Append(ctx, &entry); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"action":  e.Action,
			"outcome": e.Outcome,
		}).Error("audit log write failed")
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ---------- convenience shapes ----------

// LoginAttempt records a login outcome for email.
func LoginAttempt(ctx context.Context, rec Recorder, email string, accountID *uint, outcome models.LogOutcome, detail string) {
	rec.Record(ctx, Event{
		AccountID: accountID,
		Action:    ActionLogin,
		Resource:  ResourceAccounts,
		Outcome:   outcome,
		Detail:    fmt.Sprintf("Email: %s. %s", email, detail),
	})
}

// Created records a successful create of resource/id by actor.
func Created(ctx context.Context, rec Recorder, actorID *uint, resource string, id uint, detail string) {
	rec.Record(ctx, Event{
		AccountID:  actorID,
		Action:     ActionCreate,
		Resource:   resource,
		ResourceID: &id,
		Outcome:    models.OutcomeSuccess,
		Detail:     detail,
	})
}

// Deleted records a delete; soft selects the SOFT_DELETE tag.
func Deleted(ctx context.Context, rec Recorder, actorID *uint, resource string, id uint, soft bool, detail string) {
	action := ActionDelete
	if soft {
		action = ActionSoftDelete
	}
	rec.Record(ctx, Event{
		AccountID:  actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &id,
		Outcome:    models.OutcomeSuccess,
		Detail:     detail,
	})
}

// PasswordChanged records a successful password replacement.
func PasswordChanged(ctx context.Context, rec Recorder, accountID uint, kind PasswordChangeKind) {
	rec.Record(ctx, Event{
		AccountID:  &accountID,
		Action:     ActionPasswordChange,
		Resource:   ResourceAccounts,
		ResourceID: &accountID,
		Outcome:    models.OutcomeSuccess,
		Detail:     fmt.Sprintf("Kind: %s", kind),
	})
}

// Nop drops every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
