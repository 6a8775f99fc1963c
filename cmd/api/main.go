package main

import (
	"context"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/infrastructure/database/postgres"
	"github.com/topinvgroup/partner-reports-api/infrastructure/integrator/btg/btgclient"
	"github.com/topinvgroup/partner-reports-api/infrastructure/mailer"
	"github.com/topinvgroup/partner-reports-api/infrastructure/repository"
	"github.com/topinvgroup/partner-reports-api/internal/api"
	"github.com/topinvgroup/partner-reports-api/internal/config"
	"github.com/topinvgroup/partner-reports-api/internal/scheduler"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/directory"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/reporting"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	contaRepo := repository.NewContaRepository(pgConn)
	debentureRepo := repository.NewAnbimaDebentureRepository(pgConn)

	tokenManager := btgclient.NewTokenManager(cfg)
	btgClient := btgclient.NewClient(cfg, tokenManager)

	directoryService, err := directory.NewService(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao carregar o diretório de contas e assessores")
	}

	sendgridMailer, err := mailer.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao configurar o envio de e-mails")
	}

	composer := notifying.NewComposer(cfg, sendgridMailer)
	reportService := reporting.NewService(btgClient, composer, directoryService)

	// Inicializa os agendadores de redisparo
	custodyRetrigger := scheduler.NewCustodyRetriggerService(cfg)
	pendingOrdersRetrigger := scheduler.NewPendingOrdersRetriggerService(cfg)

	if err := custodyRetrigger.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de redisparo de custódia")
	} else {
		logrus.Info("Agendador de redisparo de custódia iniciado com sucesso")
	}

	if err := pendingOrdersRetrigger.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de redisparo de ordens pendentes")
	} else {
		logrus.Info("Agendador de redisparo de ordens pendentes iniciado com sucesso")
	}

	server, err := api.New(
		cfg,
		reportService,
		btgClient,
		contaRepo,
		debentureRepo,
		custodyRetrigger,
		pendingOrdersRetrigger,
	)
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
