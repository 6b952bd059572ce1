package service

import (
	"context"

	"community_hub/internal/pkg"
)

type SendFunc func(cfg pkg.SMTPConfig, to, subject, htmlBody string) error

type WelcomeMailer struct {
	cfg  pkg.SMTPConfig
	send SendFunc
}

func NewWelcomeMailer(cfg pkg.SMTPConfig) *WelcomeMailer {
	return &WelcomeMailer{cfg: cfg, send: pkg.SendEmail}
}

func (m *WelcomeMailer) SendWelcome(_ context.Context, to, name string) error {
	return m.send(m.cfg, to, "Welcome to the community hub", pkg.WelcomeHTML(name))
}
