package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/infrastructure/database/postgres"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

const contasTable = "contas"

type ContaRepository interface {
	SaveBatch(ctx context.Context, contas []domain.Conta) error
	ListAll(ctx context.Context) ([]domain.Conta, error)
}

type contaRepository struct {
	conn *postgres.Connection
}

func NewContaRepository(conn *postgres.Connection) ContaRepository {
	return &contaRepository{
		conn: conn,
	}
}

// SaveBatch insere o lote de contas em uma transação, ignorando as contas já
// existentes (conflito por account_number).
func (r *contaRepository) SaveBatch(ctx context.Context, contas []domain.Conta) error {
	if len(contas) == 0 {
		return nil
	}

	sqlQuery, args, err := buildContaUpsert(contas)
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("erro ao salvar o lote de contas: %w", err)
		}
		return nil
	})
}

func buildContaUpsert(contas []domain.Conta) (string, []interface{}, error) {
	query := squirrel.StatementBuilder.
		Insert(contasTable).
		Columns("account_number", "type_fund").
		PlaceholderFormat(squirrel.Dollar)

	for _, conta := range contas {
		if conta.AccountNumber == "" {
			logrus.Warn("Conta sem account_number ignorada no lote")
			continue
		}
		query = query.Values(conta.AccountNumber, conta.TypeFund)
	}

	query = query.Suffix("ON CONFLICT (account_number) DO NOTHING")

	return query.ToSql()
}

func (r *contaRepository) ListAll(ctx context.Context) ([]domain.Conta, error) {
	sqlQuery, args, err := squirrel.
		Select("account_number", "type_fund").
		From(contasTable).
		OrderBy("account_number ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar contas: %w", err)
	}
	defer rows.Close()

	var contas []domain.Conta
	for rows.Next() {
		var conta domain.Conta
		if err := rows.Scan(&conta.AccountNumber, &conta.TypeFund); err != nil {
			return nil, fmt.Errorf("erro ao escanear conta: %w", err)
		}
		contas = append(contas, conta)
	}

	return contas, rows.Err()
}
