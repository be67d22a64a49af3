package email

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/resend/resend-go/v2"
	gomail "gopkg.in/gomail.v2"

	"github.com/markusthomas/wiremagnet/config"
)

// Attachment is a file shipped inline with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email. Attachment is nil for link-mode delivery.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs emails instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	attrs := []any{"to", msg.To, "subject", msg.Subject, "body", msg.Body}
	if msg.Attachment != nil {
		attrs = append(attrs, "attachment", msg.Attachment.Filename, "attachment_bytes", len(msg.Attachment.Content))
	}
	s.logger.Info("outbound email (local dev)", attrs...)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Body,
	}
	if msg.Attachment != nil {
		params.Attachments = []*resend.Attachment{{
			Filename:    msg.Attachment.Filename,
			Content:     msg.Attachment.Content,
			ContentType: msg.Attachment.ContentType,
		}}
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SMTPSender delivers through a plain SMTP relay via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if a := msg.Attachment; a != nil {
		m.Attach(a.Filename,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(a.Content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender picks the driver from config: log for local development,
// resend or smtp for real delivery.
func NewSender(cfg *config.Config, logger *slog.Logger) Sender {
	switch cfg.MailDriver {
	case "resend":
		return &ResendSender{
			client: resend.NewClient(cfg.ResendAPIKey),
			from:   cfg.SenderEmail,
		}
	case "smtp":
		return &SMTPSender{
			dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
			from:   cfg.SenderEmail,
		}
	default:
		return &LogSender{logger: logger}
	}
}
