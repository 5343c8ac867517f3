// Package email はテンプレートからメールを組み立て、SMTPで送信する。
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/wneessen/go-mail"

	"natours/internal/domain/entity"
	"natours/internal/platform/apperr"
	"natours/internal/platform/sanitize"
)

// Template names.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "passwordReset"
)

// Subjects of the messages the Mailer sends.
const (
	SubjectWelcome       = "Welcome to the Natours Family!"
	SubjectPasswordReset = "Your password reset token (valid for 10 minutes)"
)

//go:embed templates/*.html
var templateFS embed.FS

// Transport はメッセージを配送する。*mail.Client がこれを満たす。
type Transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type sendRecorder interface {
	RecordEmailSent(template string, err error)
}

// Sender is what the auth usecase needs from the Mailer.
type Sender interface {
	SendWelcome(ctx context.Context, user *entity.User, url string) error
	SendPasswordReset(ctx context.Context, user *entity.User, url string) error
}

// Mailer renders the embedded templates and hands the messages to a Transport.
type Mailer struct {
	transport Transport
	fromName  string
	fromAddr  string
	pages     map[string]*template.Template
	metrics   sendRecorder
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithMetrics records every send attempt.
func WithMetrics(r sendRecorder) Option {
	return func(m *Mailer) { m.metrics = r }
}

// NewMailer parses the embedded templates and returns a Mailer.
func NewMailer(transport Transport, fromName, fromAddr string, opts ...Option) (*Mailer, error) {
	m := &Mailer{
		transport: transport,
		fromName:  fromName,
		fromAddr:  fromAddr,
		pages:     make(map[string]*template.Template, 2),
	}
	for _, name := range []string{TemplateWelcome, TemplatePasswordReset} {
		t, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse email template %s: %w", name, err)
		}
		m.pages[name] = t
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type templateData struct {
	Subject   string
	FirstName string
	URL       string
}

// SendWelcome sends the welcome message with a link to the account page.
func (m *Mailer) SendWelcome(ctx context.Context, user *entity.User, url string) error {
	return m.send(ctx, TemplateWelcome, SubjectWelcome, user, url)
}

// SendPasswordReset sends the reset link. The link embeds the plain reset token.
func (m *Mailer) SendPasswordReset(ctx context.Context, user *entity.User, url string) error {
	return m.send(ctx, TemplatePasswordReset, SubjectPasswordReset, user, url)
}

func (m *Mailer) send(ctx context.Context, name, subject string, user *entity.User, url string) error {
	msg, err := m.Build(name, subject, user, url)
	if err == nil {
		err = m.transport.DialAndSendWithContext(ctx, msg)
	}
	if m.metrics != nil {
		m.metrics.RecordEmailSent(name, err)
	}
	if err != nil {
		return apperr.Wrap(apperr.ErrTransport, "There was an error sending the email. Try again later!", err)
	}
	slog.Info("email sent", "template", name, "user_id", user.ID)
	return nil
}

// Build renders a message without sending it.
func (m *Mailer) Build(name, subject string, user *entity.User, url string) (*mail.Msg, error) {
	t, ok := m.pages[name]
	if !ok {
		return nil, fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	data := templateData{Subject: subject, FirstName: user.FirstName(), URL: url}
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return nil, fmt.Errorf("render email template %s: %w", name, err)
	}
	body := buf.String()

	msg := mail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromAddr); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(user.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, sanitize.PlainText(body))
	msg.AddAlternativeString(mail.TypeTextHTML, body)
	return msg, nil
}
