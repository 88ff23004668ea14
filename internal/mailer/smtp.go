package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	mail "gopkg.in/mail.v2"
)

// SMTPSender delivers templated mail over plain SMTP. Templates live in the
// embedded FS and define "subject" and "body" blocks.
type SMTPSender struct {
	dialer    *mail.Dialer
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail string) (*SMTPSender, error) {
	if host == "" || fromEmail == "" {
		return nil, fmt.Errorf("smtp host and from address are required")
	}

	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second

	return &SMTPSender{
		dialer:    dialer,
		fromEmail: fromEmail,
	}, nil
}

func (s *SMTPSender) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, err
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", s.fromEmail, FromName)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = s.dialer.DialAndSend(msg); lastErr == nil {
			return http.StatusOK, nil
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}

	return -1, fmt.Errorf("failed to send email to %s after %d attempts: %w", email, maxRetries, lastErr)
}
