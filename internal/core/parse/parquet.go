package parse

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

const parquetBatchSize = 1024

// ParquetDecoder reads a Parquet file batch by batch and transposes columns
// into records. Only string, int32 and int64 columns convert to native values;
// every other column type is rendered as its display string.
type ParquetDecoder struct{}

func (ParquetDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.ParseError(err, "parquet footer")
	}
	defer func() { _ = pf.Close() }()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, memory.DefaultAllocator)
	if err != nil {
		return nil, common.ParseError(err, "parquet schema")
	}
	if pf.NumRows() == 0 {
		return nil, nil
	}

	rr, err := fr.GetRecordReader(context.Background(), nil, nil)
	if err != nil {
		return nil, common.ParseError(err, "parquet reader")
	}
	defer rr.Release()

	var out []entity.Record
	for rr.Next() {
		out = appendBatch(out, rr.Record())
	}
	if err := rr.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, common.ParseError(err, "parquet batch at row %d", len(out))
	}
	return out, nil
}

func appendBatch(out []entity.Record, batch arrow.Record) []entity.Record {
	schema := batch.Schema()
	rows := int(batch.NumRows())
	start := len(out)
	for i := 0; i < rows; i++ {
		out = append(out, entity.NewRecord())
	}
	for c := 0; c < int(batch.NumCols()); c++ {
		name := schema.Field(c).Name
		col := batch.Column(c)
		for i := 0; i < rows; i++ {
			out[start+i].Set(name, parquetValue(col, i))
		}
	}
	return out
}

func parquetValue(col arrow.Array, i int) any {
	if col.IsNull(i) {
		return nil
	}
	switch a := col.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	default:
		return col.ValueStr(i)
	}
}
