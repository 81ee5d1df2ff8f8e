package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartpod/internal/config"
	"cartpod/internal/logging"
)

func testMailer() *SMTPMailer {
	return NewSMTPMailer(&config.Config{
		SMTPHost:      "smtp.test",
		SMTPPort:      587,
		SMTPUsername:  "mailer@cartpod.test",
		SMTPPassword:  "pw",
		ClientURL:     "http://localhost:3000/",
		ResetTokenTTL: time.Hour,
	}, logging.Discard())
}

func TestSMTPMailer_SendPasswordResetEmail(t *testing.T) {
	m := testMailer()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, m.SendPasswordResetEmail(context.Background(), "a@x.com", "tok+en"))

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, "mailer@cartpod.test", gotFrom)
	assert.Equal(t, []string{"a@x.com"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Password Reset Request\r\n")
	assert.Contains(t, body, `href="http://localhost:3000/reset-password?token=tok%2Ben"`)
	assert.Contains(t, body, "expire in 1 hour")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m := testMailer()
	relayErr := errors.New("535 authentication failed")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	err := m.SendPasswordResetEmail(context.Background(), "a@x.com", "tok")

	assert.ErrorIs(t, err, relayErr)
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	m := testMailer()
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil }
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.SendPasswordResetEmail(ctx, "a@x.com", "tok")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestHumanizeTTL(t *testing.T) {
	assert.Equal(t, "1 hour", humanizeTTL(1))
	assert.Equal(t, "2 hours", humanizeTTL(2))
	assert.Equal(t, "30 minutes", humanizeTTL(0.5))
}

func TestDisabled(t *testing.T) {
	err := Disabled{Log: logging.Discard()}.SendPasswordResetEmail(context.Background(), "a@x.com", "tok")
	assert.ErrorIs(t, err, ErrMailDisabled)
}
