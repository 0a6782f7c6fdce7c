package parse

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// XLSXDecoder reads the first worksheet of a workbook. The first row is the
// header and every cell is a string. Rows shorter than the header are padded
// with "", cells past the header are dropped.
type XLSXDecoder struct{}

func (XLSXDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.ParseError(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, common.ParseError(err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]entity.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := entity.NewRecord()
		for i, name := range header {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec.Set(name, value)
		}
		out = append(out, rec)
	}
	return out, nil
}
