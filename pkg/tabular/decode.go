// Package tabular decodifica os artefatos de relatório do parceiro: corpos
// CSV puros ou arquivos zip contendo um ou mais CSVs.
package tabular

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Reader itera as linhas de um arquivo delimitado, já indexadas pelo
// cabeçalho. Cada Reader é consumido exatamente uma vez.
type Reader struct {
	name   string
	header []string
	csv    *csv.Reader
	failed bool
}

// Name retorna o nome do arquivo de origem dentro do zip, ou vazio para
// corpos CSV puros.
func (r *Reader) Name() string {
	return r.name
}

// Header retorna as colunas do arquivo na ordem original.
func (r *Reader) Header() []string {
	return append([]string(nil), r.header...)
}

// Next retorna a próxima linha como mapa coluna → valor, ou ok=false no fim
// do arquivo. Linhas inconsistentes encerram a iteração com log.
func (r *Reader) Next() (map[string]string, bool) {
	if r.failed {
		return nil, false
	}

	fields, err := r.csv.Read()
	if err == io.EOF {
		return nil, false
	}
	if err != nil {
		logrus.WithError(err).WithField("file", r.name).Warn("Linha inválida no arquivo delimitado, encerrando leitura")
		r.failed = true
		return nil, false
	}

	row := make(map[string]string, len(r.header))
	for i, col := range r.header {
		if i < len(fields) {
			row[col] = fields[i]
		}
	}
	return row, true
}

// All consome o Reader até o fim e devolve as linhas restantes.
func (r *Reader) All() []map[string]string {
	var rows []map[string]string
	for {
		row, ok := r.Next()
		if !ok {
			return rows
		}
		rows = append(rows, row)
	}
}

// Decode aceita tanto um corpo de texto delimitado quanto um arquivo zip,
// detectando o formato pela tentativa de abertura do zip. Para zips, cada
// arquivo contido vira um Reader independente. Conteúdo que não puder ser
// interpretado como texto delimitado resulta em lista vazia com log; erros
// de transporte são tratados antes, na busca dos bytes.
func Decode(raw []byte) []*Reader {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		// Não é zip: trata o corpo inteiro como texto delimitado.
		if reader := newReader("", raw); reader != nil {
			return []*Reader{reader}
		}
		return nil
	}

	var readers []*Reader
	for _, file := range zr.File {
		rc, err := file.Open()
		if err != nil {
			logrus.WithError(err).WithField("file", file.Name).Warn("Erro ao abrir arquivo dentro do zip")
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			logrus.WithError(err).WithField("file", file.Name).Warn("Erro ao ler arquivo dentro do zip")
			continue
		}
		if reader := newReader(file.Name, content); reader != nil {
			readers = append(readers, reader)
		}
	}
	return readers
}

// newReader prepara um Reader a partir do conteúdo de um arquivo. Retorna nil
// quando o conteúdo não possui um cabeçalho delimitado legível.
func newReader(name string, content []byte) *Reader {
	// Artefatos do parceiro ocasionalmente trazem bytes NUL embutidos.
	content = bytes.ReplaceAll(content, []byte{0}, nil)
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(content))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		logrus.WithError(err).WithField("file", name).Warn("Conteúdo não pôde ser interpretado como texto delimitado")
		return nil
	}

	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	return &Reader{name: name, header: header, csv: cr}
}
