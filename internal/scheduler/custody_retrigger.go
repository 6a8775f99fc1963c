// Package scheduler agenda o redisparo periódico dos relatórios assíncronos,
// chamando as próprias rotas da aplicação para reaproveitar o fluxo completo
// de disparo e webhook.
package scheduler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
)

// CustodyRetriggerService redispara diariamente o relatório de custódia de
// produtos estruturados.
type CustodyRetriggerService struct {
	scheduler          *gocron.Scheduler
	cfg                *config.Config
	httpClient         *http.Client
	runRunning         bool
	runMutex           sync.Mutex
	lastRunStartedAt   time.Time
	lastRunCompletedAt time.Time
}

func NewCustodyRetriggerService(cfg *config.Config) *CustodyRetriggerService {
	logrus.WithFields(logrus.Fields{
		"cron_schedule": cfg.CustodyRetrigger.CronSchedule,
		"enabled":       cfg.CustodyRetrigger.Enabled,
	}).Info("Configuração do agendador de custódia carregada")

	return &CustodyRetriggerService{
		scheduler:  gocron.NewScheduler(time.Local),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start inicia o agendador e o amarra ao ciclo de vida do contexto.
func (s *CustodyRetriggerService) Start(ctx context.Context) error {
	if !s.cfg.CustodyRetrigger.Enabled {
		logrus.Info("Redisparo de custódia desabilitado por configuração")
		return nil
	}

	logrus.WithField("cron", s.cfg.CustodyRetrigger.CronSchedule).Info("Iniciando agendador de redisparo de custódia")

	_, err := s.scheduler.Cron(s.cfg.CustodyRetrigger.CronSchedule).Do(func() {
		s.run()
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar o redisparo de custódia: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de redisparo de custódia")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *CustodyRetriggerService) run() {
	s.runMutex.Lock()
	if s.runRunning {
		s.runMutex.Unlock()
		logrus.Info("Redisparo de custódia já em andamento, ignorando")
		return
	}
	s.runRunning = true
	s.lastRunStartedAt = time.Now()
	s.runMutex.Unlock()

	defer func() {
		s.runMutex.Lock()
		s.runRunning = false
		s.runMutex.Unlock()
	}()

	logrus.Info("Redisparando o relatório de custódia")

	if err := postLocalRoute(s.httpClient, s.cfg.Server.BaseURL, "/api/v1/custody"); err != nil {
		logrus.WithError(err).Error("Erro ao redisparar o relatório de custódia")
		return
	}

	s.runMutex.Lock()
	s.lastRunCompletedAt = time.Now()
	s.runMutex.Unlock()
	logrus.Info("Redisparo de custódia concluído")
}

// TriggerManualRun executa o redisparo imediatamente, fora do agendamento.
func (s *CustodyRetriggerService) TriggerManualRun() {
	s.runMutex.Lock()
	if s.runRunning {
		s.runMutex.Unlock()
		logrus.Info("Redisparo de custódia já em andamento, ignorando solicitação manual")
		return
	}
	s.runMutex.Unlock()

	logrus.Info("Iniciando redisparo manual de custódia")
	go s.run()
}

// GetStatus retorna o status atual do agendador.
func (s *CustodyRetriggerService) GetStatus() map[string]any {
	s.runMutex.Lock()
	startedAt, completedAt := s.lastRunStartedAt, s.lastRunCompletedAt
	s.runMutex.Unlock()

	return map[string]any{
		"enabled":               s.cfg.CustodyRetrigger.Enabled,
		"cron":                  s.cfg.CustodyRetrigger.CronSchedule,
		"last_run_started_at":   startedAt,
		"last_run_completed_at": completedAt,
	}
}

// postLocalRoute chama uma rota da própria aplicação com corpo vazio, o que a
// perna de disparo interpreta como pedido de geração.
func postLocalRoute(client *http.Client, baseURL, route string) error {
	resp, err := client.Post(baseURL+route, "application/json", nil)
	if err != nil {
		return fmt.Errorf("erro ao chamar a rota local %s: %w", route, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("rota local %s respondeu status %d", route, resp.StatusCode)
	}
	return nil
}
