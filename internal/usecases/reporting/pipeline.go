// Package reporting implementa o pipeline assíncrono de relatórios: disparo
// da geração no parceiro, processamento do webhook de conclusão, decodificação
// do artefato e distribuição das notificações.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkg/errors"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/directory"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
	"github.com/topinvgroup/partner-reports-api/pkg/log"
	"github.com/topinvgroup/partner-reports-api/pkg/tabular"
)

// ReportClient é o que o pipeline precisa do integrador do parceiro.
type ReportClient interface {
	RequestReport(ctx context.Context, method, endpoint string, body interface{}) error
	FetchArtifact(ctx context.Context, url string) ([]byte, error)
}

// OutcomeKind discrimina o desfecho do processamento de um webhook.
type OutcomeKind int

const (
	// OutcomeData indica que linhas sobreviveram ao processamento.
	OutcomeData OutcomeKind = iota
	// OutcomeEmpty indica que o filtro não deixou nenhuma linha.
	OutcomeEmpty
	// OutcomeTransportError indica falha ao baixar o artefato.
	OutcomeTransportError
)

// Outcome é o resultado etiquetado do processamento de um webhook.
type Outcome struct {
	Kind    OutcomeKind
	BatchID string
	// Records são as linhas sobreviventes, para relatórios sem distribuição.
	Records []domain.Record
	Grouped *domain.GroupedReport
	Sends   []notifying.SendResult
	Err     error
}

type Service struct {
	client   ReportClient
	composer *notifying.Composer
	resolver directory.Resolver
	now      func() time.Time
}

func NewService(client ReportClient, composer *notifying.Composer, resolver directory.Resolver) *Service {
	return &Service{
		client:   client,
		composer: composer,
		resolver: resolver,
		now:      time.Now,
	}
}

// Trigger dispara a geração assíncrona do relatório no parceiro. Sucesso
// significa apenas que o pedido foi aceito; o resultado chega via webhook.
func (s *Service) Trigger(ctx context.Context, desc Descriptor) error {
	var body interface{}
	if desc.BuildTriggerBody != nil {
		body = desc.BuildTriggerBody(s.now())
	}

	if err := s.client.RequestReport(ctx, desc.TriggerMethod, desc.TriggerEndpoint, body); err != nil {
		return errors.Wrapf(err, "erro ao disparar o relatório %s", desc.Slug)
	}

	log.ForContext(ctx).WithField("report", desc.Slug).Info("Disparo de relatório aceito pelo parceiro")
	return nil
}

// ProcessCallback baixa e processa o artefato apontado pelo webhook. O
// processamento não é idempotente: reprocessar o mesmo webhook reenvia as
// notificações (limitação documentada).
func (s *Service) ProcessCallback(ctx context.Context, desc Descriptor, url string) Outcome {
	batchID, err := gonanoid.New()
	if err != nil {
		batchID = "sem-id"
	}

	logger := log.ForContext(ctx).WithFields(log.Fields{
		"report":   desc.Slug,
		"batch_id": batchID,
	})

	raw, err := s.client.FetchArtifact(ctx, url)
	if err != nil {
		logger.WithError(err).Error("Erro ao baixar o artefato do relatório")
		return Outcome{
			Kind:    OutcomeTransportError,
			BatchID: batchID,
			Err:     errors.Wrap(err, "erro de transporte ao baixar o artefato"),
		}
	}

	records := s.decode(desc, raw)
	logger.WithField("linhas", len(records)).Info("Artefato decodificado")

	records = s.applyRules(desc, records)

	if len(records) == 0 {
		outcome := Outcome{Kind: OutcomeEmpty, BatchID: batchID}
		if desc.Distribution == DistributionFull {
			// Aviso único de "nada a reportar" para a mesa.
			outcome.Sends = s.composer.Distribute(ctx, desc.Name, domain.NewGroupedReport(), desc.FormatLine)
		}
		logger.Info("Nenhuma linha sobreviveu ao filtro do relatório")
		return outcome
	}

	outcome := Outcome{
		Kind:    OutcomeData,
		BatchID: batchID,
		Records: records,
	}

	switch desc.Distribution {
	case DistributionFull:
		outcome.Grouped = GroupByAccount(records, s.resolver)
		outcome.Sends = s.composer.Distribute(ctx, desc.Name, outcome.Grouped, desc.FormatLine)
	case DistributionBundle:
		outcome.Grouped = GroupByAccount(records, s.resolver)
		subject := fmt.Sprintf("%s - %s", desc.Name, s.now().Format(canonicalDateLayout))
		htmlBody, attachments := buildAdvisorBundle(desc, outcome.Grouped)
		if err := s.composer.SendDeskBundle(ctx, subject, htmlBody, attachments); err != nil {
			outcome.Sends = []notifying.SendResult{{Recipient: "mesa", Err: err}}
		}
	case DistributionDesk:
		subject := fmt.Sprintf("%s - %s", desc.Name, s.now().Format(canonicalDateLayout))
		if err := s.composer.SendDeskNotice(ctx, subject, renderDeskBody(desc, records), false); err != nil {
			outcome.Sends = []notifying.SendResult{{Recipient: "mesa", Err: err}}
		}
	}

	logger.WithField("linhas", len(records)).Info("Relatório processado com sucesso")
	return outcome
}

// decode transforma o artefato em linhas, unindo todos os arquivos contidos.
// Relatórios com coluna de data passam pelo Frame, que normaliza a coluna
// inteira de uma vez antes da materialização das linhas.
func (s *Service) decode(desc Descriptor, raw []byte) []domain.Record {
	var records []domain.Record

	if desc.DateColumn != "" {
		for _, frame := range tabular.DecodeFrames(raw) {
			frame.TransformColumn(desc.DateColumn, NormalizeDate)
			for _, row := range frame.Records() {
				records = append(records, domain.Record(row))
			}
		}
		return records
	}

	for _, reader := range tabular.Decode(raw) {
		for _, row := range reader.All() {
			records = append(records, domain.Record(row))
		}
	}
	return records
}

func (s *Service) applyRules(desc Descriptor, records []domain.Record) []domain.Record {
	if desc.RowFilter != nil {
		var kept []domain.Record
		for _, record := range records {
			if desc.RowFilter(record) {
				kept = append(kept, record)
			}
		}
		records = kept
	}

	if desc.FilterToday {
		records = FilterToday(records, desc.DateColumn, s.now())
	}

	return Dedup(records, desc.DedupKey)
}

func renderDeskBody(desc Descriptor, records []domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Foram encontrados os seguintes itens de %s:\n\n", desc.Name)
	for _, record := range records {
		account := record.AccountNumber()
		if account == "" {
			account = "?"
		}
		fmt.Fprintf(&b, "* Conta: %s | Ativo: %s | Quantidade: %s\n", account, record["symbol"], record["quantity"])
	}
	return b.String()
}
