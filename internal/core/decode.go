package core

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// errNoColumns is the cause for payloads without a header row.
var errNoColumns = errors.New("no columns to parse from file")

// Format is the payload encoding chosen from the filename.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatSpreadsheet
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "spreadsheet"
	default:
		return "unknown"
	}
}

// DetectFormat picks the decoder by substring match on the filename.
// "csv" anywhere in the name wins over "xls"; case is ignored.
func DetectFormat(filename string) Format {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "csv"):
		return FormatCSV
	case strings.Contains(name, "xls"):
		return FormatSpreadsheet
	default:
		return FormatUnknown
	}
}

// Decode converts an uploaded payload into a Dataset. Every failure is
// returned as a *DecodeError and no partial Dataset is ever returned.
func Decode(r io.Reader, filename string) (*Dataset, error) {
	start := time.Now()

	var (
		table Table
		err   error
	)
	switch format := DetectFormat(filename); format {
	case FormatCSV:
		table, err = decodeCSV(r)
	case FormatSpreadsheet:
		table, err = decodeSpreadsheet(r)
	default:
		err = ErrUnsupportedFile
	}
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}

	ds := &Dataset{
		Table: table,
		Info: DatasetInfo{
			ID:       uuid.New().String(),
			Filename: filename,
			LoadedAt: time.Now(),
			Rows:     table.RowCount(),
			Columns:  len(table.Columns),
		},
	}

	slog.Debug("decoded payload",
		"filename", filename,
		"rows", ds.Info.Rows,
		"columns", ds.Info.Columns,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte, filename string) (*Dataset, error) {
	return Decode(bytes.NewReader(data), filename)
}

// DecodeDataURL unwraps a "data:<mime>;base64,<payload>" envelope, as sent by
// browser upload widgets, and decodes the payload.
func DecodeDataURL(contents, filename string) (*Dataset, error) {
	payload, err := unwrapDataURL(contents)
	if err != nil {
		return nil, &DecodeError{Filename: filename, Err: err}
	}
	return DecodeBytes(payload, filename)
}

func unwrapDataURL(contents string) ([]byte, error) {
	_, encoded, ok := strings.Cut(contents, ",")
	if !ok {
		return nil, errors.New("malformed data url: missing comma")
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("malformed data url: %w", err)
	}
	return payload, nil
}

// decodeCSV streams records into column builders. The header row names the
// columns; short rows are padded with missing values.
func decodeCSV(r io.Reader) (Table, error) {
	rd, counter := WrapForDecoding(r)

	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, errNoColumns
	}
	if err != nil {
		return Table{}, err
	}

	names := UniqueColumnNames(header)
	builders := make([]*columnBuilder, len(names))
	for i, name := range names {
		builders[i] = newColumnBuilder(name, 0)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, err
		}

		if len(record) > len(builders) {
			line, _ := cr.FieldPos(0)
			return Table{}, fmt.Errorf("line %d: too many fields: expected %d, saw %d",
				line, len(builders), len(record))
		}

		for i, b := range builders {
			if i < len(record) {
				b.add(record[i])
			} else {
				b.add("")
			}
		}
	}

	slog.Debug("csv payload read", "bytes", counter.BytesRead)
	return buildTable(builders), nil
}

// decodeSpreadsheet reads the first sheet of a workbook: OLE2 containers
// go to the BIFF8 reader, everything else to excelize as xlsx. The first
// non-empty row is the header. Cells beyond the header get "Unnamed" columns.
func decodeSpreadsheet(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	if isCompoundFile(data) {
		return decodeLegacySpreadsheet(data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, errNoColumns
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return Table{}, err
	}
	defer rows.Close()

	// Raw values keep number formats such as "#,##0" from turning numeric
	// columns into text. Date cells come back as serial numbers.
	raw := excelize.Options{RawCellValue: true}
	rowNum := 0
	table, err := tableFromSheet(func() ([]string, bool, error) {
		if !rows.Next() {
			return nil, false, nil
		}
		rowNum++
		cells, err := rows.Columns(raw)
		if err != nil {
			return nil, false, err
		}
		return restoreBools(f, sheets[0], rowNum, cells), true, nil
	})
	if err != nil {
		return Table{}, err
	}
	if err := rows.Error(); err != nil {
		return Table{}, err
	}
	return table, nil
}

// restoreBools turns raw boolean cells, stored as 1 and 0, back into TRUE
// and FALSE so they convert as bools rather than numbers.
func restoreBools(f *excelize.File, sheet string, row int, cells []string) []string {
	for i, c := range cells {
		if c != "0" && c != "1" {
			continue
		}
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		if typ, err := f.GetCellType(sheet, name); err == nil && typ == excelize.CellTypeBool {
			cells[i] = strings.ToUpper(strconv.FormatBool(c == "1"))
		}
	}
	return cells
}

// tableFromSheet drains next, which yields one row of cells at a time until
// ok is false, into column builders.
func tableFromSheet(next func() (cells []string, ok bool, err error)) (Table, error) {
	var (
		builders []*columnBuilder
		nrows    int
	)
	for {
		cells, ok, err := next()
		if err != nil {
			return Table{}, err
		}
		if !ok {
			break
		}

		if builders == nil {
			if len(cells) == 0 {
				continue
			}
			for _, name := range UniqueColumnNames(cells) {
				builders = append(builders, newColumnBuilder(name, 0))
			}
			continue
		}

		for len(cells) > len(builders) {
			names := append(headerNames(builders), "")
			name := UniqueColumnNames(names)[len(builders)]
			builders = append(builders, newColumnBuilder(name, nrows))
		}

		for i, b := range builders {
			if i < len(cells) {
				b.add(cells[i])
			} else {
				b.add("")
			}
		}
		nrows++
	}
	if builders == nil {
		return Table{}, errNoColumns
	}

	return buildTable(builders), nil
}

func headerNames(builders []*columnBuilder) []string {
	names := make([]string, len(builders))
	for i, b := range builders {
		names[i] = b.name
	}
	return names
}

func buildTable(builders []*columnBuilder) Table {
	cols := make([]Column, len(builders))
	for i, b := range builders {
		cols[i] = b.build()
	}
	return Table{Columns: cols}
}
