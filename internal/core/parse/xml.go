package parse

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

const xmlRecordElement = "record"

var errNoXMLRecords = errors.New("no records found in XML")

// XMLDecoder emits one record per <record> element. Attributes become fields,
// and each immediate child element with non-blank text becomes a field holding
// the trimmed text. Deeper descendants are ignored.
type XMLDecoder struct{}

func (XMLDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out     []entity.Record
		current entity.Record
		inRec   bool
		depth   int // depth relative to the open record element; 1 == record itself
		field   string
		text    strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, common.ParseError(err, "xml at offset %d", dec.InputOffset())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inRec {
				if t.Name.Local == xmlRecordElement {
					inRec, depth = true, 1
					current = entity.NewRecord()
					for _, a := range t.Attr {
						current.Set(a.Name.Local, a.Value)
					}
				}
				continue
			}
			depth++
			if depth == 2 {
				field = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if inRec && depth == 2 {
				text.Write(t)
			}
		case xml.EndElement:
			if !inRec {
				continue
			}
			switch depth {
			case 1:
				out = append(out, current)
				inRec = false
			case 2:
				if v := strings.TrimSpace(text.String()); v != "" {
					current.Set(field, v)
				}
				field = ""
			}
			depth--
		}
	}

	if len(out) == 0 {
		return nil, common.ParseError(errNoXMLRecords, "xml")
	}
	return out, nil
}
