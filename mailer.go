package accounts

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/smtp"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

// SMTPMailer sends the account verification email over plain SMTP. The body
// comes from the embedded django template so deployments can restyle it
// without touching delivery code.
type SMTPMailer struct {
	cfg    *Config
	engine *django.Engine
	logger Logger
}

func NewSMTPMailer(cfg *Config) (*SMTPMailer, error) {
	templates, err := fs.Sub(GetTemplatesFS(), "data/templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to scope embedded templates")
	}

	engine := django.NewFileSystem(http.FS(templates), ".django")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to load mail templates")
	}

	return &SMTPMailer{
		cfg:    cfg,
		engine: engine,
		logger: defLogger{},
	}, nil
}

func (m *SMTPMailer) WithLogger(logger Logger) *SMTPMailer {
	m.logger = logger
	return m
}

// SendVerification delivers the activation link to a freshly registered
// account. Errors propagate to the caller; registration treats them as fatal.
func (m *SMTPMailer) SendVerification(ctx context.Context, username, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := m.renderBody(username, email, token)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTP.Host, m.cfg.SMTP.Port)

	var auth smtp.Auth
	if m.cfg.SMTP.Login != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTP.Login, m.cfg.SMTP.Password, m.cfg.SMTP.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.SMTP.From, []string{email}, body.Bytes()); err != nil {
		m.logger.Error("verification email delivery to %s failed: %s", email, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deliver verification email")
	}

	m.logger.Info("verification email sent to %s", email)
	return nil
}

func (m *SMTPMailer) renderBody(username, email, token string) (*bytes.Buffer, error) {
	body := &bytes.Buffer{}
	err := m.engine.Render(body, "verification_email", map[string]any{
		"username": username,
		"link":     m.cfg.VerificationURL(token),
		"from":     m.cfg.SMTP.From,
		"email":    email,
	})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render verification email")
	}

	return body, nil
}

var _ Mailer = (*SMTPMailer)(nil)
