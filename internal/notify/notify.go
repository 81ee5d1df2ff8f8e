package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"cartpod/internal/config"
	"cartpod/internal/logging"
)

// ErrMailDisabled is returned by Disabled for every send.
var ErrMailDisabled = errors.New("mail delivery is not configured")

// Notifier delivers password reset links.
type Notifier interface {
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

var resetTemplate = template.Must(template.New("reset").Parse(`<h1>Password Reset Request</h1>
<p>You have requested to reset your password. Click the link below to set a new password:</p>
<a href="{{.URL}}">Reset Password</a>
<p>This link will expire in {{.TTL}}.</p>
<p>If you did not request this password reset, please ignore this email.</p>
`))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends reset emails through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	addr      string
	auth      smtp.Auth
	from      string
	clientURL string
	ttl       string
	log       logrus.FieldLogger
	send      sendFunc
}

// NewSMTPMailer builds a mailer from the SMTP settings in cfg.
func NewSMTPMailer(cfg *config.Config, log logrus.FieldLogger) *SMTPMailer {
	from := cfg.MailFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &SMTPMailer{
		addr:      net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:      smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
		from:      from,
		clientURL: strings.TrimRight(cfg.ClientURL, "/"),
		ttl:       humanizeTTL(cfg.ResetTokenTTL.Hours()),
		log:       log,
		send:      smtp.SendMail,
	}
}

// SendPasswordResetEmail implements Notifier.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := m.message(email, token)
	if err != nil {
		return err
	}
	if err := m.send(m.addr, m.auth, m.from, []string{email}, msg); err != nil {
		m.log.WithError(err).WithField("email", logging.MaskEmail(email)).Error("send password reset email")
		return fmt.Errorf("send reset email: %w", err)
	}
	m.log.WithField("email", logging.MaskEmail(email)).Info("password reset email sent")
	return nil
}

// ResetURL returns the client link carrying token.
func (m *SMTPMailer) ResetURL(token string) string {
	return m.clientURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (m *SMTPMailer) message(email, token string) ([]byte, error) {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ URL, TTL string }{m.ResetURL(token), m.ttl}); err != nil {
		return nil, fmt.Errorf("render reset email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: \"CartPod\" <%s>\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	msg.WriteString("Subject: Password Reset Request\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func humanizeTTL(hours float64) string {
	switch {
	case hours == 1:
		return "1 hour"
	case hours >= 1 && hours == float64(int(hours)):
		return strconv.Itoa(int(hours)) + " hours"
	default:
		return strconv.Itoa(int(hours*60)) + " minutes"
	}
}

// Disabled is used when no SMTP credentials are configured. Every send fails,
// so reset requests are rolled back instead of silently dropped.
type Disabled struct {
	Log logrus.FieldLogger
}

// SendPasswordResetEmail implements Notifier.
func (d Disabled) SendPasswordResetEmail(_ context.Context, email, _ string) error {
	if d.Log != nil {
		d.Log.WithField("email", logging.MaskEmail(email)).Warn("password reset requested but mail is not configured")
	}
	return ErrMailDisabled
}
