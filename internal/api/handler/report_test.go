package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/topinvgroup/partner-reports-api/internal/config"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/reporting"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/reporting/mocks"
	"go.uber.org/mock/gomock"
)

type fakeMailer struct {
	sent []notifying.Message
}

func (m *fakeMailer) Send(_ context.Context, msg notifying.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeResolver map[string]struct {
	client  string
	advisor *domain.Advisor
}

func (r fakeResolver) Resolve(accountNumber string) (string, *domain.Advisor) {
	entry, ok := r[accountNumber]
	if !ok {
		return "", nil
	}
	return entry.client, entry.advisor
}

func newReportHandler(t *testing.T, client reporting.ReportClient) (http.HandlerFunc, *fakeMailer, reporting.Descriptor) {
	t.Helper()

	cfg := &config.Config{
		Email: config.Email{
			From:        "compliance@topinvgroup.com",
			NotifyEmail: "mesa@topinvgroup.com",
		},
	}
	resolver := fakeResolver{
		"100": {client: "Ana", advisor: &domain.Advisor{Name: "Assessor Um", Email: "um@topinvgroup.com"}},
		"200": {client: "Bruno", advisor: &domain.Advisor{Name: "Assessor Um", Email: "um@topinvgroup.com"}},
	}

	mailer := &fakeMailer{}
	service := reporting.NewService(client, notifying.NewComposer(cfg, mailer), resolver)

	desc, ok := reporting.KindBySlug("custody")
	require.True(t, ok)

	return ReportHandler(service, desc), mailer, desc
}

func TestReportHandler_TriggerLegAccepted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, _, desc := newReportHandler(t, client)

	client.EXPECT().
		RequestReport(gomock.Any(), http.MethodGet, desc.TriggerEndpoint, nil).
		Return(nil).
		Times(1)

	// Um objeto sem cara de webhook é pedido de disparo.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["message"], "aceita")
}

func TestReportHandler_TriggerLegRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, _, _ := newReportHandler(t, client)

	client.EXPECT().
		RequestReport(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("parceiro recusou a solicitação. Status: 500"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPS_002")
}

func TestReportHandler_CallbackWithUpstreamErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, mailer, _ := newReportHandler(t, client)

	payload := `{"errors": [{"code": "E1", "message": "relatório indisponível"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "E1")
	assert.Contains(t, rec.Body.String(), "UPS_001")
	assert.Empty(t, mailer.sent)
}

func TestReportHandler_CallbackWithoutURL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, _, _ := newReportHandler(t, client)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody", strings.NewReader(`{"response": {"status": "done"}}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CSV URL not found.")
}

func TestReportHandler_CallbackEmptyAfterFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, mailer, _ := newReportHandler(t, client)

	// Nenhuma linha com a data de hoje sobrevive ao filtro.
	artifact := []byte("accountNumber,referenceAsset,nomeDoProduto,qtdAtual,fixingDate\n" +
		"100,PETR4,Fence,10,01/01/2020\n")
	client.EXPECT().
		FetchArtifact(gomock.Any(), "https://x/report.csv").
		Return(artifact, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody",
		strings.NewReader(`{"result": {"url": "https://x/report.csv"}}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	// Mesmo vazio, a mesa recebe o aviso de "nada a reportar".
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"mesa@topinvgroup.com"}, mailer.sent[0].To)
}

func TestReportHandler_CallbackDistributesToSingleAdvisor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockReportClient(ctrl)
	handler, mailer, _ := newReportHandler(t, client)

	today := time.Now().Format("02/01/2006")
	artifact := []byte("accountNumber,referenceAsset,nomeDoProduto,qtdAtual,fixingDate\n" +
		"100,PETR4,Fence,10," + today + "\n" +
		"200,VALE3,Collar,5," + today + "\n")
	client.EXPECT().
		FetchArtifact(gomock.Any(), "https://x/report.zip").
		Return(artifact, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/custody",
		strings.NewReader(`{"response": {"url": "https://x/report.zip"}}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["batch_id"])
	assert.Equal(t, float64(2), body["linhas"])

	// Mesa + um único e-mail para o assessor das duas contas.
	require.Len(t, mailer.sent, 2)
	advisorMsg := mailer.sent[1]
	assert.Equal(t, []string{"um@topinvgroup.com"}, advisorMsg.To)
	assert.Contains(t, advisorMsg.Body, "PETR4")
	assert.Contains(t, advisorMsg.Body, "VALE3")
}
