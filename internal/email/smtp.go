package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

var _ Sender = (*SMTP)(nil)

// SMTP delivers mail through an SMTP relay using PLAIN auth when a user
// is configured. net/smtp upgrades to STARTTLS when the server offers it.
type SMTP struct {
	host string
	addr string
	user string
	pass string
	from string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(host, port, user, pass, from string) *SMTP {
	return &SMTP{
		host: host,
		addr: net.JoinHostPort(host, port),
		user: user,
		pass: pass,
		from: from,
		send: smtp.SendMail,
	}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}
	if err := s.send(s.addr, auth, s.from, []string{msg.To}, s.compose(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (s *SMTP) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: EcoFinds <%s>\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}
