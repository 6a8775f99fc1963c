package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/topinvgroup/partner-reports-api/infrastructure/integrator/btg/domain"
	"github.com/topinvgroup/partner-reports-api/infrastructure/repository"
	"github.com/topinvgroup/partner-reports-api/pkg/apiErrors"
	"github.com/topinvgroup/partner-reports-api/pkg/log"
)

// PartnerQuerier é o que os proxies síncronos precisam do integrador.
type PartnerQuerier interface {
	Query(ctx context.Context, method, endpoint string, body interface{}) ([]byte, int, error)
	QueryJSON(ctx context.Context, method, endpoint string, body, out interface{}) error
}

// GetSuitability repassa a consulta de suitability de uma conta.
func GetSuitability(client PartnerQuerier) http.HandlerFunc {
	return relayByAccount(client, "suitability", func(accountNumber string) string {
		return fmt.Sprintf("/iaas-suitability/api/v1/suitability/account/%s", accountNumber)
	})
}

// GetRegistrationData repassa a consulta de dados cadastrais de uma conta.
func GetRegistrationData(client PartnerQuerier) http.HandlerFunc {
	return relayByAccount(client, "registration-data", func(accountNumber string) string {
		return fmt.Sprintf("/iaas-account-management/api/v1/account-management/account/%s/information", accountNumber)
	})
}

// GetPositions repassa a consulta de posições de uma conta.
func GetPositions(client PartnerQuerier) http.HandlerFunc {
	return relayByAccount(client, "positions", func(accountNumber string) string {
		return fmt.Sprintf("/iaas-api-position/api/v1/position/%s", accountNumber)
	})
}

// GetLifeInsurance repassa a consulta de seguros de vida de uma conta.
func GetLifeInsurance(client PartnerQuerier) http.HandlerFunc {
	return relayByAccount(client, "life-insurance", func(accountNumber string) string {
		return fmt.Sprintf("/iaas-life-insurance/api/v1/life-insurance/%s", accountNumber)
	})
}

// GetPositionsByPartner repassa a consulta de posições consolidadas do
// parceiro inteiro, sem recorte por conta.
func GetPositionsByPartner(client PartnerQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay(w, r, client, "/iaas-api-position/api/v1/position/partner")
	}
}

// GetRecommendedEquities repassa a alocação recomendada de ações do parceiro.
func GetRecommendedEquities(client PartnerQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay(w, r, client, "/iaas-recommended-equities-allocation/api/v1/recommended-equities-allocation")
	}
}

// GetAccountBase consulta a base de contas do parceiro e persiste o lote antes
// de responder, mantendo o espelho local atualizado.
func GetAccountBase(client PartnerQuerier, contas repository.ContaRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		var response domain.AccountBaseResponse
		err := client.QueryJSON(r.Context(), http.MethodGet, "/api-account-base/api/v1/account-base/accounts", nil, &response)
		if err != nil {
			logger.WithError(err).Error("Erro ao consultar a base de contas do parceiro")
			apiErrors.WriteError(w, apiErrors.ErrExternalService, "Não foi possível consultar a base de contas", nil)
			return
		}

		if err := contas.SaveBatch(r.Context(), response.ToContas()); err != nil {
			logger.WithError(err).Error("Erro ao persistir a base de contas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Não foi possível persistir a base de contas", nil)
			return
		}

		logger.WithField("contas", len(response.Accounts)).Info("Base de contas sincronizada com sucesso")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// GetAnbimaDebentures consulta as cotações de debêntures da ANBIMA para a data
// de referência e persiste o lote antes de responder.
func GetAnbimaDebentures(client PartnerQuerier, debentures repository.AnbimaDebentureRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())

		date := httprouter.ParamsFromContext(r.Context()).ByName("date")
		if date == "" {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Data de referência não informada", nil)
			return
		}

		var response domain.DebentureResponse
		endpoint := fmt.Sprintf("/iaas-debenture/api/v1/debenture?referenceDate=%s", date)
		if err := client.QueryJSON(r.Context(), http.MethodGet, endpoint, nil, &response); err != nil {
			logger.WithError(err).Error("Erro ao consultar as debêntures do parceiro")
			apiErrors.WriteError(w, apiErrors.ErrExternalService, "Não foi possível consultar as debêntures", nil)
			return
		}

		if err := debentures.SaveBatch(r.Context(), response.ToDebentures()); err != nil {
			logger.WithError(err).Error("Erro ao persistir as cotações de debêntures")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Não foi possível persistir as cotações", nil)
			return
		}

		logger.WithFields(log.Fields{
			"reference_date": date,
			"debentures":     len(response.Debentures),
		}).Info("Cotações de debêntures sincronizadas com sucesso")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func relayByAccount(client PartnerQuerier, name string, endpoint func(accountNumber string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountNumber := httprouter.ParamsFromContext(r.Context()).ByName("accountNumber")
		if accountNumber == "" {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Número da conta não informado", nil)
			return
		}

		log.ForContext(r.Context()).WithFields(log.Fields{
			"proxy":          name,
			"account_number": accountNumber,
		}).Info("Repassando consulta ao parceiro")

		relay(w, r, client, endpoint(accountNumber))
	}
}

// relay repassa a resposta do parceiro como veio, status incluído.
func relay(w http.ResponseWriter, r *http.Request, client PartnerQuerier, endpoint string) {
	raw, status, err := client.Query(r.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		log.ForContext(r.Context()).WithError(err).Error("Erro na consulta síncrona ao parceiro")
		apiErrors.WriteError(w, apiErrors.ErrExternalService, "Não foi possível consultar o parceiro", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}
