package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer is the outbound mail transport boundary.
type Mailer interface {
	Send(recipient, subject, htmlBody string) error
}

// SMTPMailer delivers mail over a plain SMTP relay.
type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(recipient, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("%w: %v", ErrMailFailed, err)
	}
	return nil
}
