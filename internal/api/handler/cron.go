package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/scheduler"
	"github.com/topinvgroup/partner-reports-api/pkg/apiErrors"
)

// CronJobType define o tipo de cron job que será executada
const (
	CronJobTypeCustody       = "custody"
	CronJobTypePendingOrders = "pending-orders"
	CronJobTypeAll           = "all"
)

// CronJobServices contém os serviços de cron necessários para executar manualmente
type CronJobServices struct {
	CustodyRetriggerService       *scheduler.CustodyRetriggerService
	PendingOrdersRetriggerService *scheduler.PendingOrdersRetriggerService
}

// RunCronJob executa manualmente uma cron job específica
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RunCronJob")

		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job não especificado", nil)
			return
		}

		switch cronType {
		case CronJobTypeCustody:
			if services.CustodyRetriggerService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de redisparo de custódia não disponível", nil)
				return
			}
			services.CustodyRetriggerService.TriggerManualRun()

		case CronJobTypePendingOrders:
			if services.PendingOrdersRetriggerService == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de redisparo de ordens pendentes não disponível", nil)
				return
			}
			services.PendingOrdersRetriggerService.TriggerManualRun()

		case CronJobTypeAll:
			if services.CustodyRetriggerService != nil {
				services.CustodyRetriggerService.TriggerManualRun()
			}
			if services.PendingOrdersRetriggerService != nil {
				services.PendingOrdersRetriggerService.TriggerManualRun()
			}

		default:
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Tipo de cron job inválido. Valores aceitos: custody, pending-orders, all", nil)
			return
		}

		response := map[string]any{
			"message": "Cron job iniciada com sucesso",
			"type":    cronType,
		}
		json.NewEncoder(w).Encode(response)
	}
}

// GetCronStatus retorna o status das cron jobs
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - GetCronStatus")

		status := map[string]any{
			"custody":        services.CustodyRetriggerService.GetStatus(),
			"pending-orders": services.PendingOrdersRetriggerService.GetStatus(),
		}

		json.NewEncoder(w).Encode(status)
	}
}
