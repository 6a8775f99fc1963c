package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/topinvgroup/partner-reports-api/internal/domain"
)

func TestBuildContaUpsert(t *testing.T) {
	contas := []domain.Conta{
		{AccountNumber: "100", TypeFund: false},
		{AccountNumber: "", TypeFund: true}, // sem chave natural, fica fora do lote
		{AccountNumber: "200", TypeFund: true},
	}

	sqlQuery, args, err := buildContaUpsert(contas)
	require.NoError(t, err)

	assert.Contains(t, sqlQuery, "INSERT INTO contas (account_number,type_fund)")
	assert.Contains(t, sqlQuery, "ON CONFLICT (account_number) DO NOTHING")
	assert.Equal(t, []interface{}{"100", false, "200", true}, args)
}

func TestBuildAnbimaDebentureUpsert(t *testing.T) {
	ref := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	debentures := []domain.AnbimaDebenture{
		{CodigoAtivo: "PETR14", DataReferencia: ref, Emissor: "PETROBRAS", Grupo: "DI"},
	}

	sqlQuery, args, err := buildAnbimaDebentureUpsert(debentures)
	require.NoError(t, err)

	assert.Contains(t, sqlQuery, "INSERT INTO anbima_debentures")
	assert.Contains(t, sqlQuery, "ON CONFLICT (codigo_ativo, data_referencia) DO NOTHING")
	require.Len(t, args, 16)
	assert.Equal(t, "PETR14", args[0])
	assert.Equal(t, ref, args[1])
}
