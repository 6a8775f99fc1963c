package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/topinvgroup/partner-reports-api/internal/domain"
	"github.com/topinvgroup/partner-reports-api/internal/usecases/notifying"
)

// buildAdvisorBundle monta o pacote de distribuição por planilha: um CSV por
// assessor com as linhas de suas contas e, havendo contas sem assessor
// resolvido, um CSV extra listando-as. O corpo HTML enumera as contas não
// processadas.
func buildAdvisorBundle(desc Descriptor, grouped *domain.GroupedReport) (string, []notifying.Attachment) {
	covered := make(map[string]bool)
	var attachments []notifying.Attachment

	for _, email := range sortedAdvisorKeys(grouped.Advisors) {
		advisor := grouped.Advisors[email]

		var records []domain.Record
		for _, account := range advisor.Accounts {
			covered[account.AccountNumber] = true
			records = append(records, account.Records...)
		}

		attachments = append(attachments, notifying.Attachment{
			Filename:    fmt.Sprintf("%s.csv", sanitizeFilename(advisor.AdvisorName)),
			ContentType: "text/csv",
			Content:     renderRecordsCSV(records),
		})
	}

	unprocessed := unprocessedAccounts(grouped, covered)
	if len(unprocessed) > 0 {
		attachments = append(attachments, notifying.Attachment{
			Filename:    "contas_nao_processadas.csv",
			ContentType: "text/csv",
			Content:     renderAccountListCSV(unprocessed),
		})
	}

	return renderBundleHTML(desc, unprocessed), attachments
}

func unprocessedAccounts(grouped *domain.GroupedReport, covered map[string]bool) []string {
	var unprocessed []string
	for accountNumber := range grouped.Accounts {
		if !covered[accountNumber] {
			unprocessed = append(unprocessed, accountNumber)
		}
	}
	sort.Strings(unprocessed)
	return unprocessed
}

func renderBundleHTML(desc Descriptor, unprocessed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><h2>%s</h2>", desc.Name)
	b.WriteString("<p>Anexamos os relatórios referentes ao período, uma planilha por assessor.</p>")

	if len(unprocessed) > 0 {
		b.WriteString("<h3>Contas Não Processadas:</h3><ul>")
		for _, account := range unprocessed {
			fmt.Fprintf(&b, "<li>%s</li>", account)
		}
		b.WriteString("</ul>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

// renderRecordsCSV serializa as linhas com o cabeçalho na união ordenada das
// colunas, ordenadas por conta e data de referência como no relatório fonte.
func renderRecordsCSV(records []domain.Record) []byte {
	columns := sortedColumns(records)

	sorted := append([]domain.Record(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].AccountNumber() == sorted[j].AccountNumber() {
			return sorted[i]["dt_referencia"] < sorted[j]["dt_referencia"]
		}
		return sorted[i].AccountNumber() < sorted[j].AccountNumber()
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(columns)
	for _, record := range sorted {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = record[col]
		}
		w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

func renderAccountListCSV(accounts []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"Conta"})
	for _, account := range accounts {
		w.Write([]string{account})
	}
	w.Flush()
	return buf.Bytes()
}

func sortedColumns(records []domain.Record) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, record := range records {
		for col := range record {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func sortedAdvisorKeys(advisors map[string]*domain.AdvisorGroup) []string {
	keys := make([]string, 0, len(advisors))
	for key := range advisors {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sanitizeFilename(name string) string {
	if name == "" {
		return "assessor"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, name)
}
