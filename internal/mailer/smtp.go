package mailer

import (
	"bytes"
	"fmt"
	"net/http"
	"text/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

type SMTPSender struct {
	fromEmail string
	dialer    *gomail.Dialer
}

func NewSMTPSender(host string, port int, username, password, fromEmail string) (*SMTPSender, error) {
	if host == "" || fromEmail == "" {
		return nil, fmt.Errorf("smtp host and from email are required")
	}

	return &SMTPSender{
		fromEmail: fromEmail,
		dialer:    gomail.NewDialer(host, port, username, password),
	}, nil
}

// Send renders the named template and delivers it, retrying a few times
// before giving up. Returns the equivalent HTTP status of the outcome.
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

	message := gomail.NewMessage()
	message.SetAddressHeader("From", s.fromEmail, FromName)
	message.SetAddressHeader("To", email, username)
	message.SetHeader("Subject", subject.String())
	message.SetBody("text/plain", body.String())

	var retryErr error
	for i := 0; i < maxRetries; i++ {
		retryErr = s.dialer.DialAndSend(message)
		if retryErr == nil {
			return http.StatusOK, nil
		}
		// back off a little longer before each retry
		time.Sleep(time.Second * time.Duration(i+1))
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, retryErr)
}
