// Package domain define os contratos de resposta da API do parceiro.
package domain

import (
	"time"

	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

// AccountBaseResponse é a resposta do endpoint de base de contas.
type AccountBaseResponse struct {
	Accounts []AccountEntry `json:"accounts"`
}

// AccountEntry é uma conta como entregue pelo parceiro.
type AccountEntry struct {
	AccountNumber string `json:"accountNumber"`
	TypeFund      bool   `json:"typeFund"`
}

// ToContas converte a resposta para o modelo persistido.
func (r AccountBaseResponse) ToContas() []domain.Conta {
	contas := make([]domain.Conta, 0, len(r.Accounts))
	for _, account := range r.Accounts {
		contas = append(contas, domain.Conta{
			AccountNumber: account.AccountNumber,
			TypeFund:      account.TypeFund,
		})
	}
	return contas
}

// DebentureResponse é a resposta do endpoint de cotações de debêntures da
// ANBIMA, com as datas como texto no formato do parceiro.
type DebentureResponse struct {
	Debentures []DebentureEntry `json:"debentures"`
}

type DebentureEntry struct {
	CodigoAtivo     string  `json:"codigoAtivo"`
	DataReferencia  string  `json:"dataReferencia"`
	DataVencimento  string  `json:"dataVencimento"`
	DesvioPadrao    float64 `json:"desvioPadrao"`
	Duration        int     `json:"duration"`
	PercentPuPar    float64 `json:"percentPuPar"`
	PercentReune    string  `json:"percentReune"`
	PercentualTaxa  string  `json:"percentualTaxa"`
	PU              float64 `json:"pu"`
	TaxaCompra      float64 `json:"taxaCompra"`
	TaxaIndicativa  float64 `json:"taxaIndicativa"`
	TaxaVenda       float64 `json:"taxaVenda"`
	ValMaxIntervalo float64 `json:"valMaxIntervalo"`
	ValMinIntervalo float64 `json:"valMinIntervalo"`
	Emissor         string  `json:"emissor"`
	Grupo           string  `json:"grupo"`
}

const partnerDateLayout = "2006-01-02"

// ToDebentures converte a resposta para o modelo persistido, descartando
// entradas com datas ilegíveis.
func (r DebentureResponse) ToDebentures() []domain.AnbimaDebenture {
	debentures := make([]domain.AnbimaDebenture, 0, len(r.Debentures))
	for _, entry := range r.Debentures {
		referencia, err := time.Parse(partnerDateLayout, entry.DataReferencia)
		if err != nil {
			continue
		}
		vencimento, err := time.Parse(partnerDateLayout, entry.DataVencimento)
		if err != nil {
			continue
		}

		debentures = append(debentures, domain.AnbimaDebenture{
			CodigoAtivo:     entry.CodigoAtivo,
			DataReferencia:  referencia,
			DataVencimento:  vencimento,
			DesvioPadrao:    entry.DesvioPadrao,
			Duration:        entry.Duration,
			PercentPuPar:    entry.PercentPuPar,
			PercentReune:    entry.PercentReune,
			PercentualTaxa:  entry.PercentualTaxa,
			PU:              entry.PU,
			TaxaCompra:      entry.TaxaCompra,
			TaxaIndicativa:  entry.TaxaIndicativa,
			TaxaVenda:       entry.TaxaVenda,
			ValMaxIntervalo: entry.ValMaxIntervalo,
			ValMinIntervalo: entry.ValMinIntervalo,
			Emissor:         entry.Emissor,
			Grupo:           entry.Grupo,
		})
	}
	return debentures
}
