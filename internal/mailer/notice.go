package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const (
	SubjectActivation = "Activate your account - Gym"
	SubjectRecovery   = "Password recovery code - Gym"
)

var activationTmpl = template.Must(template.New("activation").Parse(`<h2>Welcome to the gym, {{.Name}}!</h2>
<p>Your account was created. Confirm your e-mail to activate it:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>Activation code: <strong>{{.Code}}</strong></p>
<p><em>This is an automatic message. Please do not reply.</em></p>
`))

var recoveryTmpl = template.Must(template.New("recovery").Parse(`<h2>Password recovery</h2>
<p>Hello {{.Name}},</p>
<p>Use the code below to reset your password. It expires in {{.Minutes}} minutes.</p>
<p style="font-size:24px"><strong>{{.Code}}</strong></p>
<p>If you did not ask for this, ignore this message.</p>
`))

// Notifier renders account notices and hands them to a Sender.
type Notifier struct {
	sender  Sender
	baseURL string
}

func NewNotifier(sender Sender, baseURL string) *Notifier {
	return &Notifier{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// ActivationLink is the URL that activates the account holding code.
func (n *Notifier) ActivationLink(code string) string {
	return n.baseURL + "/api/users/activate/" + code
}

// SendActivation mails the activation link for a new account.
func (n *Notifier) SendActivation(ctx context.Context, to, name, code string) error {
	body, err := render(activationTmpl, map[string]interface{}{
		"Name": name,
		"Code": code,
		"Link": n.ActivationLink(code),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, to, SubjectActivation, body)
}

// SendRecovery mails a password recovery code valid for ttl.
func (n *Notifier) SendRecovery(ctx context.Context, to, name, code string, ttl time.Duration) error {
	body, err := render(recoveryTmpl, map[string]interface{}{
		"Name":    name,
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, to, SubjectRecovery, body)
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", t.Name(), err)
	}
	return buf.String(), nil
}
