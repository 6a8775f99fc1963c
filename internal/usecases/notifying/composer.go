// Package notifying monta e distribui as notificações de relatório: uma
// mensagem consolidada para a mesa e uma mensagem por assessor, cada envio
// isolado em sua própria fronteira de falha.
package notifying

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

const footer = "\n\n--\nMensagem automática. Em caso de dúvida, responda ao time de operações."

// LineFormatter formata uma linha do relatório para o corpo do e-mail.
type LineFormatter func(domain.Record) string

// SendResult registra o desfecho do envio para um destinatário.
type SendResult struct {
	Recipient string
	Err       error
}

type Composer struct {
	cfg    *config.Config
	mailer Mailer
	now    func() time.Time
}

func NewComposer(cfg *config.Config, mailer Mailer) *Composer {
	return &Composer{
		cfg:    cfg,
		mailer: mailer,
		now:    time.Now,
	}
}

// Distribute envia a notificação consolidada para a mesa e uma mensagem por
// assessor. Conjunto vazio gera exatamente um aviso de "nada a reportar" para
// a mesa e nenhuma mensagem de assessor. Falha em um destinatário é logada e
// não impede os demais.
func (c *Composer) Distribute(ctx context.Context, reportName string, grouped *domain.GroupedReport, formatLine LineFormatter) []SendResult {
	today := c.now().Format("02/01/2006")
	subject := fmt.Sprintf("%s - %s", reportName, today)

	if grouped.Empty() {
		body := fmt.Sprintf("Prezada Mesa, não há itens de %s para a data de hoje.%s", reportName, footer)
		return []SendResult{c.send(ctx, Message{
			To:      c.deskRecipients(),
			Subject: subject,
			Body:    body,
		})}
	}

	var results []SendResult

	deskBody := "Prezada Mesa, abaixo encontram-se todos os itens do relatório com referência para a data de hoje:\n" +
		c.renderAccounts(sortedAccounts(grouped.Accounts), formatLine) + footer
	results = append(results, c.send(ctx, Message{
		To:      c.deskRecipients(),
		Subject: subject,
		Body:    deskBody,
	}))

	for _, email := range sortedAdvisorEmails(grouped.Advisors) {
		advisor := grouped.Advisors[email]
		body := "Prezado(a) Assessor(a), abaixo encontram-se itens de seus clientes com referência para a data de hoje:\n" +
			c.renderAccounts(sortByClientName(advisor.Accounts), formatLine) + footer
		results = append(results, c.send(ctx, Message{
			To:      []string{email},
			Subject: subject,
			Body:    body,
		}))
	}

	return results
}

// SendDeskNotice envia uma mensagem avulsa para a mesa.
func (c *Composer) SendDeskNotice(ctx context.Context, subject, body string, html bool) error {
	result := c.send(ctx, Message{
		To:      c.deskRecipients(),
		Subject: subject,
		Body:    body + footer,
		HTML:    html,
	})
	return result.Err
}

// SendDeskBundle envia para a mesa uma mensagem HTML com anexos, usada pelos
// relatórios distribuídos como planilhas por assessor.
func (c *Composer) SendDeskBundle(ctx context.Context, subject, htmlBody string, attachments []Attachment) error {
	result := c.send(ctx, Message{
		To:          c.deskRecipients(),
		Subject:     subject,
		Body:        htmlBody,
		HTML:        true,
		Attachments: attachments,
	})
	return result.Err
}

// send é a fronteira de falha por destinatário: loga e devolve o resultado
// sem propagar panic ou abortar o lote.
func (c *Composer) send(ctx context.Context, msg Message) (result SendResult) {
	result.Recipient = strings.Join(msg.To, ", ")

	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("panic no envio de e-mail: %v", r)
			logrus.WithField("recipient", result.Recipient).Error(result.Err)
		}
	}()

	if err := c.mailer.Send(ctx, msg); err != nil {
		result.Err = err
		logrus.WithError(err).WithField("recipient", result.Recipient).Error("Erro ao enviar e-mail")
		return result
	}

	logrus.WithField("recipient", result.Recipient).Info("E-mail enviado com sucesso")
	return result
}

func (c *Composer) deskRecipients() []string {
	var recipients []string
	for _, email := range strings.Split(c.cfg.Email.NotifyEmail, ",") {
		if email = strings.TrimSpace(email); email != "" {
			recipients = append(recipients, email)
		}
	}
	return recipients
}

func (c *Composer) renderAccounts(accounts []*domain.AccountGroup, formatLine LineFormatter) string {
	if formatLine == nil {
		formatLine = DefaultLineFormatter
	}

	var b strings.Builder
	for _, account := range accounts {
		clientName := account.ClientName
		if clientName == "" {
			clientName = "Cliente não identificado"
		}
		fmt.Fprintf(&b, "\nCliente: %s (Conta: %s)\n", clientName, account.AccountNumber)
		for _, record := range account.Records {
			b.WriteString(formatLine(record))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// DefaultLineFormatter cobre o esquema dos relatórios de produtos
// estruturados.
func DefaultLineFormatter(record domain.Record) string {
	return fmt.Sprintf("* Ativo: %s | Produto: %s", record["referenceAsset"], record["nomeDoProduto"])
}

func sortedAccounts(accounts map[string]*domain.AccountGroup) []*domain.AccountGroup {
	list := make([]*domain.AccountGroup, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, account)
	}
	return sortByClientName(list)
}

func sortByClientName(accounts []*domain.AccountGroup) []*domain.AccountGroup {
	sorted := append([]*domain.AccountGroup(nil), accounts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ClientName == sorted[j].ClientName {
			return sorted[i].AccountNumber < sorted[j].AccountNumber
		}
		return sorted[i].ClientName < sorted[j].ClientName
	})
	return sorted
}

func sortedAdvisorEmails(advisors map[string]*domain.AdvisorGroup) []string {
	emails := make([]string, 0, len(advisors))
	for email := range advisors {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	return emails
}
