package reporting

import (
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/directory"
)

// canonicalDateLayout é o formato canônico de datas nos relatórios: dd/mm/aaaa.
const canonicalDateLayout = "02/01/2006"

// serialEpoch é a época das datas seriais de planilha. O contrato de
// conversão é fixo: serial 45000 resulta em 17/03/2023.
var serialEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// Formatos de data observados nos relatórios do parceiro, além do serial.
var knownDateLayouts = []string{
	canonicalDateLayout,
	"02-01-2006",
	"2006-01-02",
}

// NormalizeDate converte o valor de uma coluna de data para o formato
// canônico. Aceita tanto seriais de planilha (número de dias desde a época)
// quanto datas já formatadas; valores não reconhecidos voltam inalterados.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}

	if serial, err := strconv.Atoi(value); err == nil {
		return serialEpoch.AddDate(0, 0, serial).Format(canonicalDateLayout)
	}

	for _, layout := range knownDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(canonicalDateLayout)
		}
	}

	return value
}

// FilterToday mantém apenas as linhas cuja data normalizada na coluna é a
// data de hoje (horário local do servidor).
func FilterToday(records []domain.Record, column string, now time.Time) []domain.Record {
	today := now.Format(canonicalDateLayout)

	var kept []domain.Record
	for _, record := range records {
		if NormalizeDate(record[column]) == today {
			kept = append(kept, record)
		}
	}
	return kept
}

// Dedup remove linhas repetidas segundo a chave composta, preservando a
// primeira ocorrência. Operações de PUT e CALL do mesmo produto chegam como
// linhas separadas e contam uma única vez.
func Dedup(records []domain.Record, keyColumns []string) []domain.Record {
	if len(keyColumns) == 0 {
		return records
	}

	seen := make(map[string]bool, len(records))
	var kept []domain.Record
	for _, record := range records {
		parts := make([]string, len(keyColumns))
		for i, col := range keyColumns {
			parts[i] = record[col]
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, record)
	}
	return kept
}

// GroupByAccount agrupa as linhas por conta e, via diretório, por assessor.
// Linhas sem a chave de conta são logadas e excluídas; nunca entram em outro
// grupo. Contas sem assessor resolvido permanecem só no agrupamento por conta.
func GroupByAccount(records []domain.Record, resolver directory.Resolver) *domain.GroupedReport {
	grouped := domain.NewGroupedReport()

	for _, record := range records {
		accountNumber := record.AccountNumber()
		if accountNumber == "" {
			logrus.WithField("record", record).Warn("Linha sem chave de conta excluída do agrupamento")
			continue
		}

		account, ok := grouped.Accounts[accountNumber]
		if !ok {
			clientName, advisor := resolver.Resolve(accountNumber)
			account = &domain.AccountGroup{
				AccountNumber: accountNumber,
				ClientName:    clientName,
			}
			grouped.Accounts[accountNumber] = account

			if advisor != nil && advisor.Email != "" {
				group, ok := grouped.Advisors[advisor.Email]
				if !ok {
					group = &domain.AdvisorGroup{
						AdvisorName: advisor.Name,
						Email:       advisor.Email,
					}
					grouped.Advisors[advisor.Email] = group
				}
				group.Accounts = append(group.Accounts, account)
			}
		}

		account.Records = append(account.Records, record)
	}

	return grouped
}
