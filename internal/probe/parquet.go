package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type frameMemFile struct {
	buffer *bytes.Buffer
}

func newFrameMemFile() *frameMemFile {
	return &frameMemFile{buffer: &bytes.Buffer{}}
}

func (m *frameMemFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *frameMemFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *frameMemFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *frameMemFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *frameMemFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *frameMemFile) Close() error                              { return nil }
func (m *frameMemFile) Bytes() []byte                             { return m.buffer.Bytes() }

type parquetSchema struct {
	Tag    string          `json:"Tag"`
	Fields []parquetSchema `json:"Fields,omitempty"`
}

// WriteParquet writes the frame as a parquet file with one optional column
// per frame column, typed from its dtype.
func (f *Frame) WriteParquet(w io.Writer) error {
	fields := parquetFieldNames(f.Names)

	schema, err := f.parquetSchema(fields)
	if err != nil {
		return err
	}

	mem := newFrameMemFile()
	pw, err := writer.NewJSONWriter(schema, mem, 1)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}

	for i := 0; i < f.rows; i++ {
		rec := make(map[string]any, len(fields))
		for c, field := range fields {
			rec[field] = f.parquetValue(c, i)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			pw.WriteStop()
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if err := pw.Write(string(data)); err != nil {
			pw.WriteStop()
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}

	_, err = w.Write(mem.Bytes())
	return err
}

func (f *Frame) parquetSchema(fields []string) (string, error) {
	root := parquetSchema{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for c, field := range fields {
		root.Fields = append(root.Fields, parquetSchema{
			Tag: fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", field, parquetType(f.DTypes[c])),
		})
	}

	data, err := json.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("encode parquet schema: %w", err)
	}
	return string(data), nil
}

// parquetValue converts a cell to the JSON form the schema expects.
// Datetimes and objects are stored as their text.
func (f *Frame) parquetValue(col, i int) any {
	v := f.Cell(col, i)
	if v == nil {
		return nil
	}
	switch f.DTypes[col] {
	case DTypeInt, DTypeFloat, DTypeBool:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func parquetType(dtype string) string {
	switch dtype {
	case DTypeInt:
		return "type=INT64"
	case DTypeFloat:
		return "type=DOUBLE"
	case DTypeBool:
		return "type=BOOLEAN"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

// parquetFieldNames maps column names onto identifiers the schema tag
// syntax accepts. parquet-go capitalizes field names, so names that differ
// only in case are deduplicated as well.
func parquetFieldNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		field := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
				return r
			default:
				return '_'
			}
		}, name)
		if field == "" || (field[0] >= '0' && field[0] <= '9') {
			field = "c_" + field
		}
		for seen[strings.ToLower(field)] {
			field += "_"
		}
		seen[strings.ToLower(field)] = true
		out[i] = field
	}
	return out
}
