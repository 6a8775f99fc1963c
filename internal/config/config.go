package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App                   App                   `mapstructure:",squash"`
	Server                Server                `mapstructure:",squash"`
	Database              Database              `mapstructure:",squash"`
	BTG                   BTG                   `mapstructure:",squash"`
	Email                 Email                 `mapstructure:",squash"`
	Directory             Directory             `mapstructure:",squash"`
	CustodyRetrigger      CustodyRetrigger      `mapstructure:",squash"`
	PendingOrderRetrigger PendingOrderRetrigger `mapstructure:",squash"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Server struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	// BaseURL é o endereço público desta aplicação, usado pelos agendadores
	// para disparar a perna inicial das rotas de relatório.
	BaseURL string `mapstructure:"server_base_url"`
}

type Database struct {
	DSN      string `mapstructure:"-"`
	Driver   string `mapstructure:"database_driver"`
	Password string `mapstructure:"database_password"`
	URL      string `mapstructure:"database_url"`
	User     string `mapstructure:"database_user"`
}

type BTG struct {
	BaseURL string `mapstructure:"btg_base_url"`
	// AuthBase64 é o blob client_id:client_secret em base64 usado na
	// autenticação Basic do endpoint de token.
	AuthBase64     string `mapstructure:"auth_base64"`
	TokenCachePath string `mapstructure:"token_cache_path"`
}

type Email struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	From           string `mapstructure:"email_from"`
	// NotifyEmail é o destinatário interno (mesa) das notificações
	// consolidadas. Aceita múltiplos endereços separados por vírgula.
	NotifyEmail string `mapstructure:"notify_email"`
}

type Directory struct {
	AccountsPath string `mapstructure:"account_directory_path"`
	AdvisorsPath string `mapstructure:"advisor_directory_path"`
}

type CustodyRetrigger struct {
	CronSchedule string `mapstructure:"custody_retrigger_cron"`
	Enabled      bool   `mapstructure:"custody_retrigger_enabled"`
}

type PendingOrderRetrigger struct {
	MiddayCron  string `mapstructure:"pending_orders_retrigger_midday_cron"`
	ClosingCron string `mapstructure:"pending_orders_retrigger_closing_cron"`
	Enabled     bool   `mapstructure:"pending_orders_retrigger_enabled"`
}

func SetDefaults() {
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", 5000)

	viper.SetDefault("SERVER_BASE_URL", "http://localhost:5000")

	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "localhost:5432/partner_reports")
	viper.SetDefault("DATABASE_USER", "postgres")
	viper.SetDefault("DATABASE_PASSWORD", "root")

	viper.SetDefault("BTG_BASE_URL", "https://api.btgpactual.com")
	viper.SetDefault("TOKEN_CACHE_PATH", "token_cache.json")

	viper.SetDefault("EMAIL_FROM", "compliance@topinvgroup.com")

	viper.SetDefault("ACCOUNT_DIRECTORY_PATH", "resources/data/account_advisors_data.json")
	viper.SetDefault("ADVISOR_DIRECTORY_PATH", "resources/data/advisors_data.json")

	// Custódia às 9h; ordens pendentes após a abertura e perto do fechamento.
	viper.SetDefault("CUSTODY_RETRIGGER_CRON", "0 9 * * *")
	viper.SetDefault("CUSTODY_RETRIGGER_ENABLED", false)
	viper.SetDefault("PENDING_ORDERS_RETRIGGER_MIDDAY_CRON", "5 12 * * *")
	viper.SetDefault("PENDING_ORDERS_RETRIGGER_CLOSING_CRON", "0 16 * * *")
	viper.SetDefault("PENDING_ORDERS_RETRIGGER_ENABLED", false)

	viper.SetDefault("LOG_LEVEL", "info")
}

func NewConfig() (*Config, error) {
	loadEnvFile() // ONLY LOCAL

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Info("Usando variáveis de ambiente (viper não conseguiu ler .env):", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	config.Database.DSN = fmt.Sprintf(
		"%s://%s:%s@%s",
		config.Database.Driver,
		config.Database.User,
		config.Database.Password,
		config.Database.URL,
	)

	return config, nil
}

// loadEnvFile carrega o arquivo .env procurando nas localizações usuais.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("Não foi possível obter o diretório atual:", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Info("Arquivo .env carregado de:", location)
			return
		}
	}

	logrus.Info("Nenhum arquivo .env encontrado, seguindo apenas com variáveis de ambiente")
}
