// Package mailer implementa o transporte de e-mail sobre a API do SendGrid.
package mailer

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
)

type SendGridMailer struct {
	cfg    *config.Config
	client *sendgrid.Client
}

func New(cfg *config.Config) (*SendGridMailer, error) {
	if cfg.Email.SendGridAPIKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY não configurada")
	}

	return &SendGridMailer{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.Email.SendGridAPIKey),
	}, nil
}

func (m *SendGridMailer) Send(ctx context.Context, msg notifying.Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("mensagem sem destinatários")
	}

	message := m.buildMessage(msg)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("erro no envio via SendGrid: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("SendGrid retornou status %d: %s", response.StatusCode, response.Body)
	}

	logrus.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("E-mail entregue ao SendGrid")

	return nil
}

func (m *SendGridMailer) buildMessage(msg notifying.Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail("", m.cfg.Email.From))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(personalization)

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	message.AddContent(mail.NewContent(contentType, msg.Body))

	for _, att := range msg.Attachments {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		attachment.SetFilename(att.Filename)
		attachment.SetType(att.ContentType)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	return message
}
