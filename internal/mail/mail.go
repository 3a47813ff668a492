// Package mail delivers sign-in codes and workspace invitations.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/existflow/taskboard/internal/config"
	"github.com/existflow/taskboard/internal/logger"
)

// Message is a plain text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when a host is configured, otherwise a mailer
// that only logs.
func New(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SMTPMailer sends through an SMTP relay with PLAIN auth
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Send delivers msg
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, from, []string{msg.To}, compose(from, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("Email sent", logger.F("to", msg.To), logger.F("subject", msg.Subject))
	return nil
}

func compose(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

// LogMailer writes messages to the log instead of sending them
type LogMailer struct{}

// Send logs msg
func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Info("Email not sent, SMTP disabled", logger.F("to", msg.To), logger.F("subject", msg.Subject))
	return nil
}

// Recorder keeps sent messages in memory
type Recorder struct {
	mu   sync.Mutex
	sent []Message
}

// Send records msg
func (r *Recorder) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

// CodeMessage builds the sign-in email
func CodeMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Your Taskboard sign-in code",
		Body: fmt.Sprintf("Your sign-in code is %s\n\nIt expires in 15 minutes. "+
			"If you didn't request this code, you can safely ignore this email.\n", code),
	}
}

// InvitationMessage builds the email sent to an invitee
func InvitationMessage(to, inviter, workspace string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s invited you to %s", inviter, workspace),
		Body: fmt.Sprintf("%s invited you to collaborate on the workspace %q.\n\n"+
			"Sign in with this email address and accept the invitation to join.\n", inviter, workspace),
	}
}
