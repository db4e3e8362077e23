package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/mateuscastro5/gym-api/internal/config"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	to, subject, body string
}

type fakeSender struct {
	sent []captured
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	f.sent = append(f.sent, captured{to, subject, body})
	return nil
}

func TestNotifier_Activation(t *testing.T) {
	fs := &fakeSender{}
	n := NewNotifier(fs, "http://gym.local/")

	require.NoError(t, n.SendActivation(context.Background(), "ana@x.com", "<Ana>", "abc123"))
	require.Len(t, fs.sent, 1)

	m := fs.sent[0]
	assert.Equal(t, "ana@x.com", m.to)
	assert.Equal(t, SubjectActivation, m.subject)
	assert.Contains(t, m.body, "http://gym.local/api/users/activate/abc123")
	assert.Contains(t, m.body, "&lt;Ana&gt;", "name is escaped")
}

func TestNotifier_Recovery(t *testing.T) {
	fs := &fakeSender{}
	n := NewNotifier(fs, "http://gym.local")

	require.NoError(t, n.SendRecovery(context.Background(), "ana@x.com", "Ana", "4821", 15*time.Minute))
	require.Len(t, fs.sent, 1)
	assert.Equal(t, SubjectRecovery, fs.sent[0].subject)
	assert.Contains(t, fs.sent[0].body, "4821")
	assert.Contains(t, fs.sent[0].body, "15 minutes")
}

func TestNew_FallsBackToLogSender(t *testing.T) {
	log, hook := test.NewNullLogger()

	s := New(config.MailConfig{}, log)
	ls, ok := s.(*LogSender)
	require.True(t, ok)

	require.NoError(t, ls.Send(context.Background(), "a@x.com", "subj", "<p>1234</p>"))
	assert.Equal(t, "mail delivery simulated", hook.LastEntry().Message)
	assert.Equal(t, "a@x.com", hook.LastEntry().Data["to"])
}

func TestNew_SMTPWhenConfigured(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(config.MailConfig{Host: "smtp.local", Port: 587, Username: "u", Password: "p"}, log)
	_, ok := s.(*SMTPSender)
	assert.True(t, ok)
}
