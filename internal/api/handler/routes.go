package handler

import (
	"net/http"

	"github.com/topinvgroup/partner-reports-api/infrastructure/repository"
	"github.com/topinvgroup/partner-reports-api/internal/api/handler/router"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

// AccountQueries retorna as rotas de consulta síncrona por conta, repassadas
// diretamente ao parceiro.
func AccountQueries(client PartnerQuerier) []router.Route {
	return []router.Route{
		{
			Path:    "/api/v1/suitability/:accountNumber",
			Method:  http.MethodGet,
			Handler: GetSuitability(client),
		},
		{
			Path:    "/api/v1/registration-data/:accountNumber",
			Method:  http.MethodGet,
			Handler: GetRegistrationData(client),
		},
		{
			Path:    "/api/v1/positions/:accountNumber",
			Method:  http.MethodGet,
			Handler: GetPositions(client),
		},
		{
			Path:    "/api/v1/life-insurance/:accountNumber",
			Method:  http.MethodGet,
			Handler: GetLifeInsurance(client),
		},
		{
			Path:    "/api/v1/positions-by-partner",
			Method:  http.MethodGet,
			Handler: GetPositionsByPartner(client),
		},
		{
			Path:    "/api/v1/recommended-equities",
			Method:  http.MethodGet,
			Handler: GetRecommendedEquities(client),
		},
	}
}

// ReferenceData retorna as rotas de consulta que também alimentam o banco
// local: base de contas e cotações de debêntures.
func ReferenceData(client PartnerQuerier, contas repository.ContaRepository, debentures repository.AnbimaDebentureRepository) []router.Route {
	return []router.Route{
		{
			Path:    "/api/v1/account-base",
			Method:  http.MethodGet,
			Handler: GetAccountBase(client, contas),
		},
		{
			Path:    "/api/v1/anbima-debentures/:date",
			Method:  http.MethodGet,
			Handler: GetAnbimaDebentures(client, debentures),
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:    "/api/v1/cron/:type/run",
			Method:  http.MethodPost,
			Handler: RunCronJob(services),
		},
		{
			Path:    "/api/v1/cron/status",
			Method:  http.MethodGet,
			Handler: GetCronStatus(services),
		},
	}
}
