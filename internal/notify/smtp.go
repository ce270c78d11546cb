package notify

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

const defaultSMTPTimeout = 10 * time.Second

// SMTPSettings capture the runtime configuration required by the SMTP notifier.
type SMTPSettings struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseSSL   bool
	Timeout  time.Duration
}

type smtpSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpNotifier struct {
	cfg    SMTPSettings
	sender smtpSender
}

// NewSMTPNotifier builds a Notifier that delivers through an SMTP relay.
func NewSMTPNotifier(cfg SMTPSettings) (Notifier, error) {
	if cfg.Enabled {
		if strings.TrimSpace(cfg.Host) == "" {
			return nil, errors.New("notify: smtp host is required when enabled")
		}
		if cfg.Port == 0 {
			return nil, errors.New("notify: smtp port is required when enabled")
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseSSL

	return &smtpNotifier{cfg: cfg, sender: dialer}, nil
}

func (n *smtpNotifier) Send(ctx context.Context, msg Message) error {
	if !n.cfg.Enabled {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Code: "cancelled", Message: "delivery cancelled", Err: err}
	}

	to := strings.TrimSpace(msg.To)
	if to == "" {
		return &DeliveryError{Code: "invalid_recipient", Message: "recipient address is required"}
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return &DeliveryError{Code: "invalid_recipient", Message: "invalid recipient address", Err: err}
	}

	from := strings.TrimSpace(msg.From)
	if from == "" {
		from = n.cfg.From
	}
	if from == "" {
		return &DeliveryError{Code: "invalid_sender", Message: "sender address is required"}
	}

	fromName := msg.FromName
	if fromName == "" {
		fromName = n.cfg.FromName
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	done := make(chan error, 1)
	go func() {
		done <- n.sender.DialAndSend(m)
	}()

	timeout := time.NewTimer(n.cfg.Timeout)
	defer timeout.Stop()

	select {
	case err := <-done:
		if err != nil {
			return &DeliveryError{Code: "smtp_error", Message: "smtp delivery failed", Err: err}
		}
		return nil
	case <-ctx.Done():
		return &DeliveryError{Code: "cancelled", Message: "delivery cancelled", Err: ctx.Err()}
	case <-timeout.C:
		return &DeliveryError{Code: "timeout", Message: "smtp delivery timed out"}
	}
}
