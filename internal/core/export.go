package core

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ExportFormat is an output encoding for a View.
type ExportFormat string

const (
	ExportCSV     ExportFormat = "csv"
	ExportJSON    ExportFormat = "json"
	ExportParquet ExportFormat = "parquet"
)

// ParseExportFormat accepts "csv", "json" and "parquet", case-insensitively.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportCSV, ExportJSON, ExportParquet:
		return f, nil
	case "":
		return ExportCSV, nil
	default:
		return "", fmt.Errorf("%w: export format %q", ErrUnsupportedFile, s)
	}
}

// ContentType is the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportJSON:
		return "application/json"
	case ExportParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension is the file extension, without the dot.
func (f ExportFormat) Extension() string {
	return string(f)
}

// Export writes v to w in the given format. A view without columns is
// ErrEmptyView.
func Export(w io.Writer, v *View, format ExportFormat) error {
	if !v.HasData() {
		return ErrEmptyView
	}
	switch format {
	case ExportCSV:
		return ExportToCSV(w, v)
	case ExportJSON:
		return ExportToJSON(w, v)
	case ExportParquet:
		return ExportToParquet(w, v)
	default:
		return fmt.Errorf("%w: export format %q", ErrUnsupportedFile, format)
	}
}

// ExportToCSV writes a header row then one record per view row. Missing
// values are written as empty fields.
func ExportToCSV(w io.Writer, v *View) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(v.ColumnNames()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	row := make([]string, len(v.Columns))
	for r := 0; r < v.RowCount(); r++ {
		for i, c := range v.Columns {
			row[i] = c.Values[r].String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportToJSON writes the rows as an array of objects.
func ExportToJSON(w io.Writer, v *View) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(v.Records()); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ExportToParquet writes the view as a single snappy-compressed row group.
// Number columns become float64, bool columns boolean and everything else
// utf8; every field is nullable.
func ExportToParquet(w io.Writer, v *View) error {
	if !v.HasData() {
		return ErrEmptyView
	}

	schema := arrowSchema(v.Table)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for i, c := range v.Columns {
		appendColumn(b.Field(i), c)
	}

	rec := b.NewRecord()
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())

	fw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return nil
}

func arrowSchema(t Table) *arrow.Schema {
	fields := make([]arrow.Field, len(t.Columns))
	for i, c := range t.Columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindNumber:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendColumn(fb array.Builder, c Column) {
	switch bld := fb.(type) {
	case *array.Float64Builder:
		for _, val := range c.Values {
			if val.IsNull() {
				bld.AppendNull()
				continue
			}
			bld.Append(val.Num)
		}
	case *array.BooleanBuilder:
		for _, val := range c.Values {
			if val.IsNull() {
				bld.AppendNull()
				continue
			}
			bld.Append(val.Bool)
		}
	case *array.StringBuilder:
		for _, val := range c.Values {
			if val.IsNull() {
				bld.AppendNull()
				continue
			}
			bld.Append(val.String())
		}
	}
}
