package utils

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends transactional mail. It satisfies payment.Mailer.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPMailer returns a mailer, or nil when SMTP is not configured so
// callers can skip mail side effects entirely.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	if host == "" || username == "" {
		return nil
	}
	if from == "" {
		from = username
	}
	return &SMTPMailer{Host: host, Port: port, Username: username, Password: password, From: from}
}

// SendPaymentConfirmation mails the user after an order transitions to paid.
func (m *SMTPMailer) SendPaymentConfirmation(to, orderNo string, amount float64) error {
	if to == "" {
		return fmt.Errorf("no recipient address for order %s", orderNo)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Payment received for order %s", orderNo))
	msg.SetBody("text/html", fmt.Sprintf(
		"<p>We have received your payment of <b>%.2f</b> for order <b>%s</b>.</p>"+
			"<p>Thank you for shopping with MallSphere.</p>", amount, orderNo))

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}
