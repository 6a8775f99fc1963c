package apiErrors

import (
	"encoding/json"
	"net/http"
)

// Códigos de erro padronizados da API
const (
	// Erros de validação (payloads de webhook)
	ErrInvalidRequest    = "VAL_001" // Requisição inválida
	ErrMalformedCallback = "VAL_002" // Payload do webhook sem URL e sem bloco de erros
	ErrMissingCSVURL     = "VAL_003" // URL do CSV não encontrada no payload

	// Erros reportados pelo parceiro
	ErrUpstreamReported  = "UPS_001" // O webhook trouxe um bloco de erros do parceiro
	ErrUpstreamRejection = "UPS_002" // A perna inicial foi recusada (status diferente de 202)

	// Erros do servidor
	ErrInternalServer    = "SRV_001" // Erro interno do servidor
	ErrDatabaseOperation = "SRV_002" // Erro de operação de banco de dados
	ErrExternalService   = "SRV_003" // Erro em serviço externo
)

var httpStatusMap = map[string]int{
	ErrInvalidRequest:    http.StatusBadRequest,
	ErrMalformedCallback: http.StatusBadRequest,
	ErrMissingCSVURL:     http.StatusBadRequest,
	ErrUpstreamReported:  http.StatusBadRequest,
	ErrUpstreamRejection: http.StatusInternalServerError,
	ErrInternalServer:    http.StatusInternalServerError,
	ErrDatabaseOperation: http.StatusInternalServerError,
	ErrExternalService:   http.StatusBadGateway,
}

// APIError representa um erro de API padronizado
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// WriteError escreve o erro padronizado para a resposta HTTP. A mensagem
// nunca deve carregar texto de exceções internas.
func WriteError(w http.ResponseWriter, code string, message string, details any) {
	status, exists := httpStatusMap[code]
	if !exists {
		status = http.StatusInternalServerError
	}

	apiErr := APIError{
		Code:    code,
		Message: message,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiErr)
}
