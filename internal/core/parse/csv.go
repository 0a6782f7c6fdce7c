package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// CSVDecoder reads delimited text. Values are kept as strings. Stray quotes
// inside unquoted fields are kept as literal characters.
//
// Config:
//   - headers: list of column names; when set, the first row is data too.
//   - delimiter: one-character field separator (default ',').
type CSVDecoder struct{}

func (CSVDecoder) Decode(data []byte, cfg map[string]any) ([]entity.Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if d, ok := singleRune(cfg, "delimiter"); ok {
		r.Comma = d
	}

	headers, explicit := stringList(cfg, "headers")

	var out []entity.Record
	row := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.ParseError(err, "csv row %d", row+1)
		}
		row++
		if !explicit && row == 1 {
			headers = fields
			continue
		}
		out = append(out, csvRecord(headers, fields))
	}
	return out, nil
}

func csvRecord(headers, fields []string) entity.Record {
	rec := entity.NewRecord()
	for i, v := range fields {
		name := constants.SyntheticColumn(i)
		if i < len(headers) {
			name = headers[i]
		}
		rec.Set(name, v)
	}
	return rec
}
