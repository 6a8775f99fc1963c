package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/topinvgroup/partner-reports-api/internal/config"
)

func TestPostLocalRoute(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	require.NoError(t, postLocalRoute(client, srv.URL, "/api/v1/custody"))
	assert.Equal(t, "/api/v1/custody", gotPath)
}

func TestPostLocalRoute_NonAcceptedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := &http.Client{Timeout: time.Second}
	err := postLocalRoute(client, srv.URL, "/api/v1/orders")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRetriggerServices_DisabledDoNotSchedule(t *testing.T) {
	cfg := &config.Config{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, NewCustodyRetriggerService(cfg).Start(ctx))
	require.NoError(t, NewPendingOrdersRetriggerService(cfg).Start(ctx))
}

func TestCustodyRetrigger_StatusDuringRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := &config.Config{
		Server: config.Server{BaseURL: srv.URL},
		CustodyRetrigger: config.CustodyRetrigger{
			CronSchedule: "0 9 * * *",
			Enabled:      true,
		},
	}

	service := NewCustodyRetriggerService(cfg)
	service.TriggerManualRun()

	// Leituras de status concorrentes com a execução não podem correr com as
	// escritas dos timestamps.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		status := service.GetStatus()
		if completedAt, ok := status["last_run_completed_at"].(time.Time); ok && !completedAt.IsZero() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("execução manual não registrou o término no status")
}

func TestCustodyRetrigger_ManualRunPostsRoute(t *testing.T) {
	done := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done <- r.URL.Path
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	cfg := &config.Config{
		Server: config.Server{BaseURL: srv.URL},
		CustodyRetrigger: config.CustodyRetrigger{
			CronSchedule: "0 9 * * *",
			Enabled:      true,
		},
	}

	service := NewCustodyRetriggerService(cfg)
	service.TriggerManualRun()

	select {
	case path := <-done:
		assert.Equal(t, "/api/v1/custody", path)
	case <-time.After(5 * time.Second):
		t.Fatal("redisparo manual não chamou a rota local")
	}
}
