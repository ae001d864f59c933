package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender mails drop points, which are not on LINE.
type EmailSender struct {
	dialer mailer
	from   string
}

func NewEmailSender(host string, port int, username, password, from string) *EmailSender {
	return &EmailSender{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

func (s *EmailSender) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To)
	subject := m.Subject
	if subject == "" {
		subject = "Contract update"
	}
	msg.SetHeader("Subject", subject)
	msg.SetHeader("X-Message-Id", m.ID)
	msg.SetBody("text/plain", m.Text)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", m.To, err)
	}
	return nil
}
