package app

import "github.com/trustreach/verifyd/internal/notify"

// SMTPSettings converts EmailConfig to the notify package representation.
func (c EmailConfig) SMTPSettings() notify.SMTPSettings {
	return notify.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		FromName: c.SMTP.FromName,
		UseSSL:   c.SMTP.UseSSL,
		Timeout:  c.SMTP.Timeout,
	}
}
