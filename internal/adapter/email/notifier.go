// Package email delivers notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/Strob0t/seogov/internal/port/notifier"
)

const providerName = "email"

// SMTPConfig holds the configuration for SMTP connections.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
	To       []string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Notifier sends plain-text email notifications via SMTP.
type Notifier struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewNotifier creates a new email notifier.
func NewNotifier(cfg SMTPConfig) *Notifier {
	return &Notifier{cfg: cfg, send: smtp.SendMail}
}

func init() {
	notifier.Register(providerName, func(settings map[string]string) (notifier.Notifier, error) {
		cfg := SMTPConfig{
			Host:     settings["host"],
			From:     settings["from"],
			Password: settings["password"],
			To:       splitList(settings["to"]),
		}
		if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
			return nil, notifier.ErrNotConfigured
		}
		port, err := strconv.Atoi(settings["port"])
		if err != nil || port <= 0 {
			return nil, fmt.Errorf("email: invalid port %q", settings["port"])
		}
		cfg.Port = port
		return NewNotifier(cfg), nil
	})
}

func (n *Notifier) Name() string { return providerName }

func (n *Notifier) Capabilities() notifier.Capabilities {
	return notifier.Capabilities{}
}

// Send delivers the notification to every configured recipient in one message.
// net/smtp has no context support; ctx is only checked before dialing.
func (n *Notifier) Send(ctx context.Context, nt notifier.Notification) error {
	if n.cfg.Host == "" || len(n.cfg.To) == 0 {
		return notifier.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Password != "" {
		auth = smtp.PlainAuth("", n.cfg.From, n.cfg.Password, n.cfg.Host)
	}

	addr := n.cfg.Host + ":" + strconv.Itoa(n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, n.cfg.To, n.compose(&nt)); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}

func (n *Notifier) compose(nt *notifier.Notification) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: [seogov] %s\r\n", sanitizeHeader(nt.Title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")

	b.WriteString(nt.Message)
	b.WriteString("\r\n")
	if len(nt.Fields) > 0 {
		b.WriteString("\r\n")
		for _, f := range nt.Fields {
			fmt.Fprintf(&b, "%s: %s\r\n", f.Label, f.Value)
		}
	}
	if nt.Source != "" {
		fmt.Fprintf(&b, "\r\n-- \r\nSource: %s\r\n", nt.Source)
	}
	return []byte(b.String())
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
