package tabular

import (
	"bytes"
	"fmt"
)

// Frame é a representação em memória do primeiro arquivo de um artefato,
// para quando o chamador precisa de operações por coluna em vez de um
// fluxo de linhas.
type Frame struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// DecodeFrame converte o primeiro arquivo do artefato em um Frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	readers := Decode(raw)
	if len(readers) == 0 {
		return nil, fmt.Errorf("artefato sem arquivos delimitados legíveis")
	}
	return newFrame(readers[0]), nil
}

// DecodeFrames converte cada arquivo do artefato em um Frame, para quando o
// chamador precisa de transformações por coluna em artefatos multi-arquivo.
func DecodeFrames(raw []byte) []*Frame {
	readers := Decode(raw)
	frames := make([]*Frame, 0, len(readers))
	for _, reader := range readers {
		frames = append(frames, newFrame(reader))
	}
	return frames
}

func newFrame(reader *Reader) *Frame {
	frame := &Frame{
		Columns: reader.Header(),
		index:   make(map[string]int, len(reader.header)),
	}
	for i, col := range frame.Columns {
		frame.index[col] = i
	}

	for {
		row, ok := reader.Next()
		if !ok {
			break
		}
		values := make([]string, len(frame.Columns))
		for i, col := range frame.Columns {
			values[i] = row[col]
		}
		frame.Rows = append(frame.Rows, values)
	}

	return frame
}

// TransformColumn aplica fn a todos os valores de uma coluna. Coluna
// inexistente é ignorada sem erro.
func (f *Frame) TransformColumn(column string, fn func(string) string) {
	idx, ok := f.index[column]
	if !ok {
		return
	}
	for _, row := range f.Rows {
		row[idx] = fn(row[idx])
	}
}

// Records materializa o Frame como linhas indexadas pelo cabeçalho.
func (f *Frame) Records() []map[string]string {
	records := make([]map[string]string, 0, len(f.Rows))
	for _, row := range f.Rows {
		record := make(map[string]string, len(f.Columns))
		for i, col := range f.Columns {
			record[col] = row[i]
		}
		records = append(records, record)
	}
	return records
}

// CSV serializa o Frame de volta para texto delimitado.
func (f *Frame) CSV() []byte {
	var buf bytes.Buffer
	writeLine := func(fields []string) {
		for i, field := range fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(field)
		}
		buf.WriteByte('\n')
	}
	writeLine(f.Columns)
	for _, row := range f.Rows {
		writeLine(row)
	}
	return buf.Bytes()
}
