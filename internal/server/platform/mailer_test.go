package platform

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type sendCall struct {
	ctx  context.Context
	host string
	opts int
	msg  *mail.Msg
}

func captureSend(m *SMTPMailer) *[]sendCall {
	calls := &[]sendCall{}
	m.send = func(ctx context.Context, host string, opts []mail.Option, msg *mail.Msg) error {
		*calls = append(*calls, sendCall{ctx: ctx, host: host, opts: len(opts), msg: msg})
		return nil
	}
	return calls
}

func render(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer("smtp.example:587", "user", "pass", "drive@example.com")
	calls := captureSend(m)

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Hi", "body"))
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, "smtp.example", c.host)
	assert.Equal(t, 6, c.opts, "tls, timeout, port and three auth options")

	require.Len(t, c.msg.GetFrom(), 1)
	assert.Equal(t, "drive@example.com", c.msg.GetFrom()[0].Address)
	require.Len(t, c.msg.GetTo(), 1)
	assert.Equal(t, "a@x.com", c.msg.GetTo()[0].Address)

	raw := render(t, c.msg)
	assert.Contains(t, raw, "Subject: Hi")
	assert.Contains(t, raw, "body")
}

func TestSMTPMailer_Anonymous(t *testing.T) {
	m := NewSMTPMailer("localhost", "", "", "x@y.com")
	calls := captureSend(m)

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Hi", "body"))
	require.Len(t, *calls, 1)
	assert.Equal(t, "localhost", (*calls)[0].host)
	assert.Equal(t, 2, (*calls)[0].opts, "no port and no auth")
}

func TestSMTPMailer_EncodesNonASCIISubject(t *testing.T) {
	m := NewSMTPMailer("smtp.example:587", "", "", "drive@example.com")
	calls := captureSend(m)

	require.NoError(t, m.Send(context.Background(), "a@x.com", "Código de verificação", "body"))
	raw := render(t, (*calls)[0].msg)
	assert.Contains(t, raw, "=?UTF-8?q?")
	assert.NotContains(t, raw, "Código")
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer("smtp.example:587", "", "", "drive@example.com")
	calls := captureSend(m)
	assert.Error(t, m.Send(context.Background(), "a@x.com\r\nBcc: evil@x.com", "Hi", "body"))

	bad := NewSMTPMailer("smtp.example:587", "", "", "drive@example.com\r\nBcc: evil@x.com")
	badCalls := captureSend(bad)
	assert.Error(t, bad.Send(context.Background(), "a@x.com", "Hi", "body"))

	assert.Empty(t, *calls)
	assert.Empty(t, *badCalls)
}

func TestSMTPMailer_PassesContextAndErrors(t *testing.T) {
	m := NewSMTPMailer("smtp.example:587", "", "", "drive@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got context.Context
	m.send = func(ctx context.Context, _ string, _ []mail.Option, _ *mail.Msg) error {
		got = ctx
		return ctx.Err()
	}

	err := m.Send(ctx, "a@x.com", "Hi", "body")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, got)
	assert.ErrorIs(t, got.Err(), context.Canceled)

	m.send = func(context.Context, string, []mail.Option, *mail.Msg) error { return errors.New("down") }
	assert.EqualError(t, m.Send(context.Background(), "a@x.com", "Hi", "body"), "error sending mail: down")
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, NewLogMailer(testLogger()).Send(context.Background(), "a@x.com", "s", "b"))
}
