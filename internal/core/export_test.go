package core

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView(t *testing.T) *View {
	t.Helper()
	v, err := Project(sampleTable(), []string{"name", "id", "ok"})
	require.NoError(t, err)
	return v
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"csv", ExportCSV, false},
		{"", ExportCSV, false},
		{"JSON", ExportJSON, false},
		{"parquet", ExportParquet, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExport_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleView(t), ExportCSV))

	assert.Equal(t, "name,id,ok\nc,3,True\na,1,\nb,2,False\n", buf.String())
}

func TestExport_CSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleView(t), ExportCSV))

	ds, err := DecodeBytes(buf.Bytes(), "export.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "id", "ok"}, ds.ColumnNames())

	ok, _ := ds.Column("ok")
	assert.Equal(t, KindBool, ok.Kind)
	assert.Equal(t, []Value{BoolValue(true), Null, BoolValue(false)}, ok.Values)
}

func TestExport_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleView(t), ExportJSON))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, map[string]any{"name": "a", "id": 1.0, "ok": nil}, rows[1])
}

func TestExport_Parquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, sampleView(t), ExportParquet))

	pf, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	require.NoError(t, err)

	tbl, err := fr.ReadTable(context.Background())
	require.NoError(t, err)
	defer tbl.Release()

	assert.Equal(t, int64(3), tbl.NumRows())
	assert.Equal(t, int64(3), tbl.NumCols())

	schema := tbl.Schema()
	assert.Equal(t, "name", schema.Field(0).Name)
	assert.Equal(t, "utf8", schema.Field(0).Type.String())
	assert.Equal(t, "float64", schema.Field(1).Type.String())
	assert.Equal(t, "bool", schema.Field(2).Type.String())
	assert.Equal(t, 1, tbl.Column(2).NullN())
}

func TestExport_EmptyView(t *testing.T) {
	for _, f := range []ExportFormat{ExportCSV, ExportJSON, ExportParquet} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			err := Export(&buf, EmptyView(), f)
			assert.ErrorIs(t, err, ErrEmptyView)
			assert.Zero(t, buf.Len())
		})
	}
}

func TestExportFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ExportCSV.ContentType())
	assert.Equal(t, "application/json", ExportJSON.ContentType())
	assert.Equal(t, "application/vnd.apache.parquet", ExportParquet.ContentType())
	assert.Equal(t, "parquet", ExportParquet.Extension())
}
