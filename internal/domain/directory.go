package domain

// DirectoryAccount é o vínculo estático conta → cliente/assessor carregado
// do arquivo de referência account_advisors_data.json.
type DirectoryAccount struct {
	Account    string `json:"account"`
	ClientName string `json:"clientName"`
	SgCGE      string `json:"sgCGE"`
}

// Advisor é o cadastro de um assessor carregado de advisors_data.json.
type Advisor struct {
	CgeCode string `json:"advisorCgeCode"`
	Name    string `json:"advisorName"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}
