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

// PendingOrdersRetriggerService redispara o relatório de ordens pendentes duas
// vezes ao dia: após a abertura do pregão e perto do fechamento.
type PendingOrdersRetriggerService struct {
	scheduler          *gocron.Scheduler
	cfg                *config.Config
	httpClient         *http.Client
	runRunning         bool
	runMutex           sync.Mutex
	lastRunStartedAt   time.Time
	lastRunCompletedAt time.Time
}

func NewPendingOrdersRetriggerService(cfg *config.Config) *PendingOrdersRetriggerService {
	logrus.WithFields(logrus.Fields{
		"midday_cron":  cfg.PendingOrderRetrigger.MiddayCron,
		"closing_cron": cfg.PendingOrderRetrigger.ClosingCron,
		"enabled":      cfg.PendingOrderRetrigger.Enabled,
	}).Info("Configuração do agendador de ordens pendentes carregada")

	return &PendingOrdersRetriggerService{
		scheduler:  gocron.NewScheduler(time.Local),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start agenda as duas janelas diárias e amarra o agendador ao contexto.
func (s *PendingOrdersRetriggerService) Start(ctx context.Context) error {
	if !s.cfg.PendingOrderRetrigger.Enabled {
		logrus.Info("Redisparo de ordens pendentes desabilitado por configuração")
		return nil
	}

	crons := []string{
		s.cfg.PendingOrderRetrigger.MiddayCron,
		s.cfg.PendingOrderRetrigger.ClosingCron,
	}
	for _, cron := range crons {
		logrus.WithField("cron", cron).Info("Agendando redisparo de ordens pendentes")
		if _, err := s.scheduler.Cron(cron).Do(func() { s.run() }); err != nil {
			return fmt.Errorf("erro ao agendar o redisparo de ordens pendentes: %w", err)
		}
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de redisparo de ordens pendentes")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *PendingOrdersRetriggerService) run() {
	s.runMutex.Lock()
	if s.runRunning {
		s.runMutex.Unlock()
		logrus.Info("Redisparo de ordens pendentes já em andamento, ignorando")
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

	logrus.Info("Redisparando o relatório de ordens pendentes")

	if err := postLocalRoute(s.httpClient, s.cfg.Server.BaseURL, "/api/v1/orders"); err != nil {
		logrus.WithError(err).Error("Erro ao redisparar o relatório de ordens pendentes")
		return
	}

	s.runMutex.Lock()
	s.lastRunCompletedAt = time.Now()
	s.runMutex.Unlock()
	logrus.Info("Redisparo de ordens pendentes concluído")
}

// TriggerManualRun executa o redisparo imediatamente, fora do agendamento.
func (s *PendingOrdersRetriggerService) TriggerManualRun() {
	s.runMutex.Lock()
	if s.runRunning {
		s.runMutex.Unlock()
		logrus.Info("Redisparo de ordens pendentes já em andamento, ignorando solicitação manual")
		return
	}
	s.runMutex.Unlock()

	logrus.Info("Iniciando redisparo manual de ordens pendentes")
	go s.run()
}

// GetStatus retorna o status atual do agendador.
func (s *PendingOrdersRetriggerService) GetStatus() map[string]any {
	s.runMutex.Lock()
	startedAt, completedAt := s.lastRunStartedAt, s.lastRunCompletedAt
	s.runMutex.Unlock()

	return map[string]any{
		"enabled":               s.cfg.PendingOrderRetrigger.Enabled,
		"midday_cron":           s.cfg.PendingOrderRetrigger.MiddayCron,
		"closing_cron":          s.cfg.PendingOrderRetrigger.ClosingCron,
		"last_run_started_at":   startedAt,
		"last_run_completed_at": completedAt,
	}
}
