package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/topinvgroup/partner-reports-api/infrastructure/database/postgres"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

const anbimaDebenturesTable = "anbima_debentures"

type AnbimaDebentureRepository interface {
	SaveBatch(ctx context.Context, debentures []domain.AnbimaDebenture) error
	GetByReferenceDate(ctx context.Context, referenceDate string) ([]domain.AnbimaDebenture, error)
}

type anbimaDebentureRepository struct {
	conn *postgres.Connection
}

func NewAnbimaDebentureRepository(conn *postgres.Connection) AnbimaDebentureRepository {
	return &anbimaDebentureRepository{
		conn: conn,
	}
}

// SaveBatch insere o lote de cotações em uma transação. A chave natural é
// (codigo_ativo, data_referencia): cotações já carregadas para o dia são
// ignoradas.
func (r *anbimaDebentureRepository) SaveBatch(ctx context.Context, debentures []domain.AnbimaDebenture) error {
	if len(debentures) == 0 {
		return nil
	}

	sqlQuery, args, err := buildAnbimaDebentureUpsert(debentures)
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("erro ao salvar o lote de debêntures: %w", err)
		}
		return nil
	})
}

func buildAnbimaDebentureUpsert(debentures []domain.AnbimaDebenture) (string, []interface{}, error) {
	query := squirrel.StatementBuilder.
		Insert(anbimaDebenturesTable).
		Columns(
			"codigo_ativo", "data_referencia", "data_vencimento", "desvio_padrao",
			"duration", "percent_pu_par", "percent_reune", "percentual_taxa",
			"pu", "taxa_compra", "taxa_indicativa", "taxa_venda",
			"val_max_intervalo", "val_min_intervalo", "emissor", "grupo",
		).
		PlaceholderFormat(squirrel.Dollar)

	for _, deb := range debentures {
		query = query.Values(
			deb.CodigoAtivo,
			deb.DataReferencia,
			deb.DataVencimento,
			deb.DesvioPadrao,
			deb.Duration,
			deb.PercentPuPar,
			deb.PercentReune,
			deb.PercentualTaxa,
			deb.PU,
			deb.TaxaCompra,
			deb.TaxaIndicativa,
			deb.TaxaVenda,
			deb.ValMaxIntervalo,
			deb.ValMinIntervalo,
			deb.Emissor,
			deb.Grupo,
		)
	}

	query = query.Suffix("ON CONFLICT (codigo_ativo, data_referencia) DO NOTHING")

	return query.ToSql()
}

func (r *anbimaDebentureRepository) GetByReferenceDate(ctx context.Context, referenceDate string) ([]domain.AnbimaDebenture, error) {
	sqlQuery, args, err := squirrel.
		Select(
			"id", "codigo_ativo", "data_referencia", "data_vencimento", "desvio_padrao",
			"duration", "percent_pu_par", "percent_reune", "percentual_taxa",
			"pu", "taxa_compra", "taxa_indicativa", "taxa_venda",
			"val_max_intervalo", "val_min_intervalo", "emissor", "grupo",
		).
		From(anbimaDebenturesTable).
		Where(squirrel.Eq{"data_referencia": referenceDate}).
		OrderBy("codigo_ativo ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar debêntures: %w", err)
	}
	defer rows.Close()

	var debentures []domain.AnbimaDebenture
	for rows.Next() {
		var deb domain.AnbimaDebenture
		err := rows.Scan(
			&deb.ID,
			&deb.CodigoAtivo,
			&deb.DataReferencia,
			&deb.DataVencimento,
			&deb.DesvioPadrao,
			&deb.Duration,
			&deb.PercentPuPar,
			&deb.PercentReune,
			&deb.PercentualTaxa,
			&deb.PU,
			&deb.TaxaCompra,
			&deb.TaxaIndicativa,
			&deb.TaxaVenda,
			&deb.ValMaxIntervalo,
			&deb.ValMinIntervalo,
			&deb.Emissor,
			&deb.Grupo,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear debênture: %w", err)
		}
		debentures = append(debentures, deb)
	}

	return debentures, rows.Err()
}
