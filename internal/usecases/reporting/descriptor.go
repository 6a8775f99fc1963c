package reporting

import (
	"fmt"
	"net/http"
	"time"

	"github.com/topinvgroup/partner-reports-api/internal/domain"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
)

// DistributionPolicy define o destino do resultado processado de um webhook.
type DistributionPolicy int

const (
	// DistributionNone devolve as linhas decodificadas no corpo da resposta.
	DistributionNone DistributionPolicy = iota
	// DistributionDesk envia uma notificação avulsa para a mesa quando há linhas.
	DistributionDesk
	// DistributionFull envia o consolidado para a mesa e uma mensagem por assessor.
	DistributionFull
	// DistributionBundle envia para a mesa um e-mail HTML com uma planilha
	// por assessor em anexo, mais a lista de contas não processadas.
	DistributionBundle
)

// Descriptor parametriza o pipeline genérico para um tipo de relatório: como
// disparar a geração no parceiro e como tratar o artefato recebido.
type Descriptor struct {
	Slug string
	Name string
	// Route é o caminho local que recebe tanto o disparo quanto o webhook.
	Route string

	TriggerMethod   string
	TriggerEndpoint string
	// BuildTriggerBody monta o corpo do disparo; nil para disparos sem corpo.
	BuildTriggerBody func(now time.Time) interface{}

	// DateColumn, quando presente, é normalizada para dd/mm/aaaa (aceitando
	// seriais de planilha) antes de qualquer filtro.
	DateColumn  string
	FilterToday bool
	DedupKey    []string
	// RowFilter mantém apenas as linhas de interesse; nil mantém todas.
	RowFilter func(domain.Record) bool

	Distribution DistributionPolicy
	FormatLine   notifying.LineFormatter
}

// refMonthYear aplica a regra de disponibilidade dos relatórios mensais: o
// consolidado do mês M só existe a partir do dia 7 de M+1. Antes disso,
// pede-se o mês retrasado.
func refMonthYear(now time.Time) (string, string) {
	months := -1
	if now.Day() <= 7 {
		months = -2
	}
	ref := now.AddDate(0, months, 0)
	return fmt.Sprintf("%02d", int(ref.Month())), fmt.Sprintf("%d", now.Year())
}

func monthlyPeriodBody(now time.Time) interface{} {
	month, year := refMonthYear(now)
	return map[string]string{"refMonth": month, "refYear": year}
}

func customerProfitPeriodBody(now time.Time) interface{} {
	month, year := refMonthYear(now)
	return map[string]string{"referenceMonth": month, "referenceYear": year}
}

func sameDayRangeBody(now time.Time) interface{} {
	day := now.Format("2006-01-02")
	return map[string]string{"startDate": day, "endDate": day}
}

// pendingOrder mantém apenas ordens ainda sem status (pendentes de aprovação).
func pendingOrder(record domain.Record) bool {
	return record["status"] == ""
}

var descriptors = []Descriptor{
	{
		Slug:            "custody",
		Name:            "Produtos Estruturados para Vencimento",
		Route:           "/api/v1/custody",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-partner-report-extractor/api/v1/report/custody",
		DateColumn:      "fixingDate",
		FilterToday:     true,
		DedupKey:        []string{"accountNumber", "referenceAsset", "nomeDoProduto", "qtdAtual"},
		Distribution:    DistributionFull,
		FormatLine:      notifying.DefaultLineFormatter,
	},
	{
		Slug:             "orders",
		Name:             "Ordens Pendentes de Aprovação",
		Route:            "/api/v1/orders",
		TriggerMethod:    http.MethodPost,
		TriggerEndpoint:  "/iaas-stock-order/api/v1/stock-order/orders",
		BuildTriggerBody: sameDayRangeBody,
		RowFilter:        pendingOrder,
		Distribution:     DistributionDesk,
	},
	{
		Slug:            "rg-monthly-tir",
		Name:            "Relatório Gerencial de TIR Mensal",
		Route:           "/api/v1/rg-monthly-tir",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-rm-reports/api/v1/rm-reports/monthly-tir",
	},
	{
		Slug:            "rg-commissions",
		Name:            "Relatório Gerencial de Comissões",
		Route:           "/api/v1/rg-commissions",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-rm-reports/api/v1/rm-reports/commission",
		Distribution:    DistributionBundle,
	},
	{
		Slug:             "rg-closed-commissions",
		Name:             "Relatório Gerencial de Fechamento de Comissões",
		Route:            "/api/v1/rg-closed-commissions",
		TriggerMethod:    http.MethodPost,
		TriggerEndpoint:  "/api-rm-reports/api/v1/rm-reports/monthly-commission",
		BuildTriggerBody: monthlyPeriodBody,
	},
	{
		Slug:             "rg-nnm",
		Name:             "Relatório Gerencial de NNM Mensal",
		Route:            "/api/v1/rg-nnm",
		TriggerMethod:    http.MethodPost,
		TriggerEndpoint:  "/api-rm-reports/api/v1/rm-reports/monthly-nnm",
		BuildTriggerBody: monthlyPeriodBody,
	},
	{
		Slug:            "rg-base-btg",
		Name:            "Relatório Gerencial Base BTG",
		Route:           "/api/v1/rg-base-btg",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-rm-reports/api/v1/rm-reports/base-btg",
	},
	{
		Slug:            "rg-posicoes",
		Name:            "Relatório Gerencial de Posições",
		Route:           "/api/v1/rg-posicoes",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-rm-reports/api/v1/rm-reports/posicoes",
	},
	{
		Slug:            "rf-cra-cri",
		Name:            "Relatório de Renda Fixa CRA/CRI",
		Route:           "/api/v1/rf-cra-cri",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-partner-report-extractor/api/v1/report/cra-cri",
	},
	{
		Slug:            "rf-debentures",
		Name:            "Relatório de Renda Fixa Debêntures",
		Route:           "/api/v1/rf-debentures",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-partner-report-extractor/api/v1/report/debentures",
	},
	{
		Slug:            "rf-compromissadas",
		Name:            "Relatório de Renda Fixa Compromissadas",
		Route:           "/api/v1/rf-compromissadas",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-partner-report-extractor/api/v1/report/compromissadas",
	},
	{
		Slug:            "rf-government-bond",
		Name:            "Relatório de Renda Fixa Títulos Públicos",
		Route:           "/api/v1/rf-government-bond",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-partner-report-extractor/api/v1/report/government-bond",
	},
	{
		Slug:            "pre-operations",
		Name:            "Relatório de Pré-Operações",
		Route:           "/api/v1/pre-operations",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/api-pre-operation/api/v1/pre-operation",
	},
	{
		Slug:            "relationship-accounts",
		Name:            "Contas Vinculadas aos Assessores",
		Route:           "/api/v1/relationship-accounts",
		TriggerMethod:   http.MethodGet,
		TriggerEndpoint: "/iaas-account-advisor/api/v1/advisor/link/account",
	},
	{
		Slug:             "monthly-customer-profit",
		Name:             "Relatório de Rentabilidade Mensal por Cliente",
		Route:            "/api/v1/monthly-customer-profit",
		TriggerMethod:    http.MethodPost,
		TriggerEndpoint:  "/api-partner-report-hub/api/v1/report/customer-profitability",
		BuildTriggerBody: customerProfitPeriodBody,
	},
}

// Kinds retorna os descritores de todos os relatórios suportados.
func Kinds() []Descriptor {
	return descriptors
}

// KindBySlug localiza um descritor pelo slug.
func KindBySlug(slug string) (Descriptor, bool) {
	for _, desc := range descriptors {
		if desc.Slug == slug {
			return desc, true
		}
	}
	return Descriptor{}, false
}
