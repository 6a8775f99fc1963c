package notifying

import "context"

// Attachment é um anexo opcional de uma mensagem.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message é uma mensagem pronta para envio.
type Message struct {
	To          []string
	Subject     string
	Body        string
	HTML        bool
	Attachments []Attachment
}

// Mailer abstrai o transporte de e-mail.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
