package domain

// Record representa uma linha de um relatório decodificado, indexada pelo
// cabeçalho do arquivo. O esquema varia por tipo de relatório.
type Record map[string]string

// Colunas aceitas como chave de agrupamento por conta, na ordem em que os
// relatórios do parceiro as utilizam.
var accountColumns = []string{"accountNumber", "account", "nr_conta"}

// AccountNumber retorna o número da conta da linha, ou vazio quando a linha
// não possui a chave de agrupamento.
func (r Record) AccountNumber() string {
	for _, col := range accountColumns {
		if v, ok := r[col]; ok && v != "" {
			return v
		}
	}
	return ""
}

// AccountGroup agrupa as linhas de uma mesma conta.
type AccountGroup struct {
	AccountNumber string
	ClientName    string
	Records       []Record
}

// AdvisorGroup reúne as linhas de todas as contas de um mesmo assessor.
type AdvisorGroup struct {
	AdvisorName string
	Email       string
	Accounts    []*AccountGroup
}

// GroupedReport é a estrutura em memória produzida após filtro e deduplicação:
// agrupamento por conta e, derivado dele, por e-mail do assessor. Contas cujo
// assessor não foi resolvido permanecem apenas no agrupamento por conta.
type GroupedReport struct {
	Accounts map[string]*AccountGroup
	Advisors map[string]*AdvisorGroup
}

// NewGroupedReport cria um GroupedReport vazio.
func NewGroupedReport() *GroupedReport {
	return &GroupedReport{
		Accounts: make(map[string]*AccountGroup),
		Advisors: make(map[string]*AdvisorGroup),
	}
}

// Empty informa se nenhuma linha sobreviveu ao filtro.
func (g *GroupedReport) Empty() bool {
	return g == nil || len(g.Accounts) == 0
}

// TotalRecords soma as linhas de todas as contas.
func (g *GroupedReport) TotalRecords() int {
	total := 0
	for _, acc := range g.Accounts {
		total += len(acc.Records)
	}
	return total
}
