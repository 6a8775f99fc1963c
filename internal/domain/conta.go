package domain

import "time"

// Conta espelha uma linha da base de contas do parceiro, persistida na tabela
// contas com upsert por chave natural (account_number).
type Conta struct {
	AccountNumber string `json:"accountNumber"`
	TypeFund      bool   `json:"typeFund"`
}

// AnbimaDebenture espelha uma cotação diária de debênture da ANBIMA,
// persistida com upsert por (codigo_ativo, data_referencia).
type AnbimaDebenture struct {
	ID              int64     `json:"-"`
	CodigoAtivo     string    `json:"codigoAtivo"`
	DataReferencia  time.Time `json:"dataReferencia"`
	DataVencimento  time.Time `json:"dataVencimento"`
	DesvioPadrao    float64   `json:"desvioPadrao"`
	Duration        int       `json:"duration"`
	PercentPuPar    float64   `json:"percentPuPar"`
	PercentReune    string    `json:"percentReune"`
	PercentualTaxa  string    `json:"percentualTaxa"`
	PU              float64   `json:"pu"`
	TaxaCompra      float64   `json:"taxaCompra"`
	TaxaIndicativa  float64   `json:"taxaIndicativa"`
	TaxaVenda       float64   `json:"taxaVenda"`
	ValMaxIntervalo float64   `json:"valMaxIntervalo"`
	ValMinIntervalo float64   `json:"valMinIntervalo"`
	Emissor         string    `json:"emissor"`
	Grupo           string    `json:"grupo"`
}
