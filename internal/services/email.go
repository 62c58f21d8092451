package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Email is an outbound message.
type Email struct {
	To      string
	Subject string
	Content string
}

// EmailService delivers mail over SMTP.
type EmailService struct {
	addr     string
	from     string
	username string
	password string
}

// NewEmailService creates a new EmailService.
func NewEmailService(addr, from, username, password string) *EmailService {
	return &EmailService{addr: addr, from: from, username: username, password: password}
}

// Send delivers the email, retrying once on failure.
func (s *EmailService) Send(ctx context.Context, email Email) error {
	if s.addr == "" {
		log.Println("[Email] SMTP not configured, skipping delivery")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.from, email.To, email.Subject, email.Content)

	var auth smtp.Auth
	if s.username != "" {
		host := s.addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", s.username, s.password, host)
	}

	backoff := retry.WithMaxRetries(1, retry.NewConstant(time.Second))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := smtp.SendMail(s.addr, auth, s.from, []string{email.To}, []byte(msg)); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
