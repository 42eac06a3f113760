// Package notification emails tenants about noteworthy call outcomes.
package notification

import (
	"context"
	"fmt"
	"net"
	"time"

	"dialer_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers notification emails over the configured SMTP server.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender from the SMTP configuration.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetSMTPFromName(),
		fromEmail: cfg.GetSMTPFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendHotLeadEmail notifies the tenant about a freshly qualified hot lead.
func (s *SMTPSender) SendHotLeadEmail(ctx context.Context, toEmail string, data HotLeadEmailData) error {
	content, err := renderEmailTemplate(hotLeadTemplate, data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectHotLead, content)
}

// SendMeetingBookedEmail notifies the tenant about a booked meeting.
func (s *SMTPSender) SendMeetingBookedEmail(ctx context.Context, toEmail string, data MeetingBookedEmailData) error {
	content, err := renderEmailTemplate(meetingBookedTemplate, data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectMeetingBooked, content)
}
