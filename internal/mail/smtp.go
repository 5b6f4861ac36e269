package mail

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
)

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender delivers over plain SMTP. Auth is optional: leave user empty
// for an unauthenticated relay (local dev, mailhog).
type SMTPSender struct {
	addr string // host:port
	from string
	auth smtp.Auth
}

func NewSMTPSender(addr, from, user, password string) *SMTPSender {
	s := &SMTPSender{addr: addr, from: from}
	if user != "" {
		host := addr
		if i := strings.IndexByte(addr, ':'); i >= 0 {
			host = addr[:i]
		}
		s.auth = smtp.PlainAuth("", user, password, host)
	}
	return s
}

func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	// The envelope sender must be a bare address even when the From
	// header carries a display name.
	sender := s.from
	if parsed, err := mail.ParseAddress(s.from); err == nil {
		sender = parsed.Address
	}

	if err := smtp.SendMail(s.addr, s.auth, sender, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
