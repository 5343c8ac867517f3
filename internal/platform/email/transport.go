package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Production bool
}

// NewSMTPClient はSMTPリレー用のクライアントを生成する。
// 本番環境ではTLSを必須にし、それ以外では可能な場合のみ使う。
func NewSMTPClient(cfg SMTPConfig) (*mail.Client, error) {
	policy := mail.TLSOpportunistic
	if cfg.Production {
		policy = mail.TLSMandatory
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

// LogTransport writes messages to the log instead of sending them.
// It is used when no SMTP host is configured.
type LogTransport struct {
	Logger *slog.Logger
}

// DialAndSendWithContext logs the recipients and subject of every message.
func (t LogTransport) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range messages {
		rcpts, err := m.GetRecipients()
		if err != nil {
			return fmt.Errorf("message without recipients: %w", err)
		}
		logger.InfoContext(ctx, "email not sent: no smtp host configured",
			"to", rcpts,
			"subject", m.GetGenHeader(mail.HeaderSubject),
		)
	}
	return nil
}
