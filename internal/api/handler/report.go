package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/topinvgroup/partner-reports-api/internal/api/handler/router"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/reporting"
	"github.com/topinvgroup/partner-reports-api/pkg/apiErrors"
	"github.com/topinvgroup/partner-reports-api/pkg/log"
)

// ReportRoutes monta uma rota POST por tipo de relatório. A mesma rota atende
// as duas pernas do fluxo assíncrono: o disparo da geração e o webhook de
// conclusão enviado pelo parceiro.
func ReportRoutes(service *reporting.Service) []router.Route {
	routes := make([]router.Route, 0, len(reporting.Kinds()))
	for _, desc := range reporting.Kinds() {
		routes = append(routes, router.Route{
			Path:    desc.Route,
			Method:  http.MethodPost,
			Handler: ReportHandler(service, desc),
		})
	}
	return routes
}

// ReportHandler discrimina a perna pelo formato do corpo: payloads com cara de
// webhook (lista, ou objeto com response/result/url/errors) seguem para o
// processamento; qualquer outro corpo é tratado como pedido de disparo.
func ReportHandler(service *reporting.Service, desc reporting.Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context()).WithField("report", desc.Slug)

		raw, err := io.ReadAll(r.Body)
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Não foi possível ler o corpo da requisição", nil)
			return
		}

		var payload interface{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &payload); err != nil {
				logger.Warn("Corpo não-JSON recebido, tratando como pedido de disparo")
				payload = nil
			}
		}

		if !isCallbackPayload(payload) {
			triggerReport(w, r, service, desc)
			return
		}

		processCallback(w, r, service, desc, payload)
	}
}

// isCallbackPayload reconhece o formato dos webhooks do parceiro. Listas são
// sempre webhooks; objetos só quando trazem uma das chaves conhecidas.
func isCallbackPayload(payload interface{}) bool {
	switch typed := payload.(type) {
	case []interface{}:
		return true
	case map[string]interface{}:
		for _, key := range []string{"response", "result", "url", "errors"} {
			if _, ok := typed[key]; ok {
				return true
			}
		}
	}
	return false
}

func triggerReport(w http.ResponseWriter, r *http.Request, service *reporting.Service, desc reporting.Descriptor) {
	logger := log.ForContext(r.Context()).WithField("report", desc.Slug)

	if err := service.Trigger(r.Context(), desc); err != nil {
		logger.WithError(err).Error("Parceiro recusou o disparo do relatório")
		apiErrors.WriteError(w, apiErrors.ErrUpstreamRejection, "O parceiro recusou a solicitação de geração do relatório", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Requisição aceita. Aguardando processamento via webhook.",
	})
}

func processCallback(w http.ResponseWriter, r *http.Request, service *reporting.Service, desc reporting.Descriptor, payload interface{}) {
	logger := log.ForContext(r.Context()).WithField("report", desc.Slug)

	if upstreamErr, ok := reporting.ExtractUpstreamError(payload); ok {
		logger.WithFields(log.Fields{
			"upstream_code":    upstreamErr.Code,
			"upstream_message": upstreamErr.Message,
		}).Error("Webhook trouxe um bloco de erros do parceiro")
		apiErrors.WriteError(w, apiErrors.ErrUpstreamReported,
			"O parceiro reportou um erro na geração do relatório",
			map[string]string{"code": upstreamErr.Code, "message": upstreamErr.Message})
		return
	}

	url, convention, ok := reporting.ExtractDownloadURL(payload)
	if !ok {
		logger.Warn("Webhook sem URL de artefato em nenhuma convenção conhecida")
		apiErrors.WriteError(w, apiErrors.ErrMissingCSVURL, "CSV URL not found.", nil)
		return
	}
	logger.WithField("convention", convention).Info("URL do artefato localizada no webhook")

	outcome := service.ProcessCallback(r.Context(), desc, url)

	switch outcome.Kind {
	case reporting.OutcomeTransportError:
		apiErrors.WriteError(w, apiErrors.ErrExternalService, "Não foi possível baixar o artefato do relatório", nil)
	case reporting.OutcomeEmpty:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Content-Type", "application/json")
		if desc.Distribution == reporting.DistributionNone {
			json.NewEncoder(w).Encode(outcome.Records)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message":  "Relatório processado com sucesso",
			"batch_id": outcome.BatchID,
			"linhas":   len(outcome.Records),
		})
	}
}
