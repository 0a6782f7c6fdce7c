package parse

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

func parquetFile(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "qty", Type: arrow.PrimitiveTypes.Int32},
		{Name: "total", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "ratio", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()
	b.Field(0).(*array.StringBuilder).AppendValues([]string{"a", "b"}, nil)
	b.Field(1).(*array.Int32Builder).AppendValues([]int32{1, 2}, nil)
	b.Field(2).(*array.Int64Builder).AppendValues([]int64{10, 0}, []bool{true, false})
	b.Field(3).(*array.Float64Builder).AppendValues([]float64{0.5, 1.5}, nil)
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParquetDecoder(t *testing.T) {
	got, err := ParquetDecoder{}.Decode(parquetFile(t), nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"name", "qty", "total", "ratio"}, got[0].Keys())

	v, _ := got[0].Get("name")
	assert.Equal(t, "a", v)
	v, _ = got[1].Get("qty")
	assert.Equal(t, int32(2), v)
	v, _ = got[0].Get("total")
	assert.Equal(t, int64(10), v)
	v, _ = got[1].Get("total")
	assert.Nil(t, v)

	// unsupported column types degrade to their display string
	v, _ = got[0].Get("ratio")
	assert.IsType(t, "", v)
	assert.NotEmpty(t, v)
}

func TestParquetDecoderNotParquet(t *testing.T) {
	_, err := ParquetDecoder{}.Decode([]byte("PAR1 but not really"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrParse)
}
