package mail

import (
	"gopkg.in/gomail.v2"

	"jobverse/internal/config"
)

// Mailer 通过 SMTP 发送 HTML 邮件，每次发送单独建立连接。
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewMailer 在 SMTP 未配置时返回 nil。
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if !cfg.Enabled() {
		return nil
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *Mailer) Send(to, subject, body string) error {
	return m.dialer.DialAndSend(m.compose(to, subject, body))
}

func (m *Mailer) compose(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg
}
