package email

import (
	"context"
	"fmt"
)

// Mailer composes the application's transactional messages on top of a
// Provider.
type Mailer struct {
	provider Provider
}

func NewMailer(provider Provider) *Mailer {
	return &Mailer{provider: provider}
}

func (m *Mailer) SendPasswordResetLink(ctx context.Context, to, token string) error {
	body := fmt.Sprintf(`<p>We received a request to reset your password.</p>
<p>Your reset code is <strong>%s</strong>. It expires shortly.</p>
<p>If you did not request this, you can ignore this message.</p>`, token)
	return m.provider.Send(ctx, []string{to}, "Reset your Kover password", body)
}

func (m *Mailer) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Welcome to Kover. Your account is ready.</p>`, name)
	return m.provider.Send(ctx, []string{to}, "Welcome to Kover", body)
}
