package di

import (
	"log/slog"

	"natours/internal/config"
	"natours/internal/platform/email"
)

// NewMailTransport returns an SMTP client, or a transport that only logs when
// no SMTP host is configured.
func NewMailTransport(cfg *config.Config) (email.Transport, error) {
	if cfg.EmailHost == "" {
		slog.Warn("EMAIL_HOST is not set. Emails are logged instead of sent.")
		return email.LogTransport{}, nil
	}
	client, err := email.NewSMTPClient(email.SMTPConfig{
		Host:       cfg.EmailHost,
		Port:       cfg.EmailPort,
		Username:   cfg.EmailUsername,
		Password:   cfg.EmailPassword,
		Production: cfg.IsProduction(),
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
