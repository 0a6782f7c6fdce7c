package parse

import (
	"bufio"
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

const maxLineBytes = 16 << 20

// TextDecoder emits one record per line: {line_number, content}.
type TextDecoder struct{}

func (TextDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	if !utf8.Valid(data) {
		return nil, common.ParseError(errors.New("invalid UTF-8"), "txt")
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var out []entity.Record
	n := 0
	for sc.Scan() {
		n++
		rec := entity.NewRecord()
		rec.Set(constants.FieldLineNumber, n)
		rec.Set(constants.FieldContent, string(bytes.TrimSuffix(sc.Bytes(), []byte("\r"))))
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, common.ParseError(err, "txt line %d", n+1)
	}
	return out, nil
}
