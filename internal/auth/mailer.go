package auth

import (
	"context"
	"sync"
)

// Mailer delivers magic sign-in and password reset links.
type Mailer interface {
	SendMagicLink(ctx context.Context, email, link string) error
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes links to the log instead of sending mail.
type LogMailer struct{}

func (LogMailer) SendMagicLink(_ context.Context, email, link string) error {
	authLogger.Info().Str("email", email).Str("link", link).Msg("Magic link issued")
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	authLogger.Info().Str("email", email).Str("link", link).Msg("Password reset link issued")
	return nil
}

// RecordingMailer keeps sent links in memory.
type RecordingMailer struct {
	mu   sync.Mutex
	Sent map[string]string
}

func (m *RecordingMailer) SendMagicLink(_ context.Context, email, link string) error {
	return m.record(email, link)
}

func (m *RecordingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	return m.record(email, link)
}

func (m *RecordingMailer) record(email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Sent == nil {
		m.Sent = make(map[string]string)
	}
	m.Sent[email] = link
	return nil
}

func (m *RecordingMailer) Last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Sent[email]
}
