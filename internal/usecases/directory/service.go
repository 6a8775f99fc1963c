// Package directory resolve o relacionamento conta → cliente → assessor a
// partir dos arquivos JSON de apoio, carregados uma única vez na subida.
package directory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

// Resolver localiza o cliente e o assessor responsáveis por uma conta.
type Resolver interface {
	Resolve(accountNumber string) (clientName string, advisor *domain.Advisor)
}

type Service struct {
	accounts map[string]domain.DirectoryAccount
	advisors map[string]domain.Advisor
}

// NewService carrega os dois arquivos de diretório em memória. Depois de
// carregado o serviço é somente leitura, seguro para uso concorrente.
func NewService(cfg *config.Config) (*Service, error) {
	var accounts []domain.DirectoryAccount
	if err := loadJSONFile(cfg.Directory.AccountsPath, &accounts); err != nil {
		return nil, fmt.Errorf("erro ao carregar o diretório de contas: %w", err)
	}

	var advisors []domain.Advisor
	if err := loadJSONFile(cfg.Directory.AdvisorsPath, &advisors); err != nil {
		return nil, fmt.Errorf("erro ao carregar o diretório de assessores: %w", err)
	}

	return newFromData(accounts, advisors), nil
}

func newFromData(accounts []domain.DirectoryAccount, advisors []domain.Advisor) *Service {
	s := &Service{
		accounts: make(map[string]domain.DirectoryAccount, len(accounts)),
		advisors: make(map[string]domain.Advisor, len(advisors)),
	}
	for _, account := range accounts {
		s.accounts[account.Account] = account
	}
	for _, advisor := range advisors {
		s.advisors[advisor.CgeCode] = advisor
	}

	logrus.WithFields(logrus.Fields{
		"contas":     len(s.accounts),
		"assessores": len(s.advisors),
	}).Info("Diretório de contas e assessores carregado")

	return s
}

// Resolve retorna o nome do cliente e o assessor da conta. Qualquer salto
// ausente degrada para valores vazios com log de aviso; nunca retorna erro,
// para que uma conta desconhecida não interrompa o processamento do lote.
func (s *Service) Resolve(accountNumber string) (string, *domain.Advisor) {
	account, ok := s.accounts[accountNumber]
	if !ok {
		logrus.WithField("account", accountNumber).Warn("Conta não encontrada no diretório")
		return "", nil
	}

	advisor, ok := s.advisors[account.SgCGE]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"account": accountNumber,
			"sg_cge":  account.SgCGE,
		}).Warn("Assessor não encontrado no diretório")
		return account.ClientName, nil
	}

	return account.ClientName, &advisor
}

func loadJSONFile(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
