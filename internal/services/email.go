package services

import (
	"fmt"
	"log"
	"net/smtp"
)

// EmailJob is the payload of a queued outbound email.
type EmailJob struct {
	ReceiverEmail string `bson:"receiverEmail"`
	Subject       string `bson:"subject"`
	HTML          string `bson:"html"`
}

// Mailer delivers outbound email. Implementations run inside queue workers,
// never on the request path.
type Mailer interface {
	Send(to, subject, html string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
	sender   string
}

func NewSMTPMailer(host, port, user, password, sender string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password, sender: sender}
}

func (m *SMTPMailer) Send(to, subject, html string) error {
	msg := []byte("From: " + m.sender + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + html)

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogMailer logs instead of sending. Used when SMTP is unconfigured so
// development environments still see what would have gone out.
type LogMailer struct{}

func (LogMailer) Send(to, subject, html string) error {
	log.Printf("mail (not sent, SMTP unconfigured): to=%s subject=%q", to, subject)
	return nil
}

// ResetPasswordTemplate renders the password-reset email body.
func ResetPasswordTemplate(username, resetLink string) string {
	return "<p>Hi " + username + ",</p>" +
		"<p>You requested a password reset. The link below is valid for one hour:</p>" +
		"<p><a href=\"" + resetLink + "\">Reset your password</a></p>" +
		"<p>If you did not request this, you can ignore this email.</p>"
}

// PasswordChangedTemplate renders the confirmation sent after a reset.
func PasswordChangedTemplate(username string) string {
	return "<p>Hi " + username + ",</p>" +
		"<p>Your password was just changed. If this wasn't you, reset it again immediately.</p>"
}
