package pkg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeHTMLEscapesName(t *testing.T) {
	body := WelcomeHTML("<b>Ada</b>")
	assert.Contains(t, body, "&lt;b&gt;Ada&lt;/b&gt;")
	assert.NotContains(t, body, "<b>Ada")
}

func TestNewEmailMessage(t *testing.T) {
	cfg := SMTPConfig{Host: "smtp.example.com", Port: 587, From: "hub@example.com"}
	assert.True(t, cfg.Enabled())
	assert.False(t, SMTPConfig{}.Enabled())

	m := NewEmailMessage(cfg, "ada@example.com", "Welcome", WelcomeHTML("Ada"))
	assert.Equal(t, []string{"ada@example.com"}, m.GetHeader("To"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Subject: Welcome")
}
