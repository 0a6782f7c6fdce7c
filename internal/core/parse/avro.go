package parse

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/linkedin/goavro/v2"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// AvroDecoder reads an Avro object container file. Record values keep the
// writer schema's field order; union values are unwrapped to the branch value.
// Non-record values are wrapped as {"value": v}.
type AvroDecoder struct{}

func (AvroDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	ocf, err := goavro.NewOCFReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.ParseError(err, "avro header")
	}
	fields, err := avroFields(ocf.Codec().Schema())
	if err != nil {
		return nil, common.ParseError(err, "avro schema")
	}

	var out []entity.Record
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, common.ParseError(err, "avro record %d", len(out))
		}
		out = append(out, avroRecord(datum, fields))
	}
	if err := ocf.Err(); err != nil {
		return nil, common.ParseError(err, "avro record %d", len(out))
	}
	return out, nil
}

type avroField struct {
	name  string
	union bool
}

// avroFields lists the top-level record fields of the writer schema, in order.
// A non-record schema yields no fields.
func avroFields(schema string) ([]avroField, error) {
	var s struct {
		Type   any `json:"type"`
		Fields []struct {
			Name string `json:"name"`
			Type any    `json:"type"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(schema), &s); err != nil {
		// primitive schemas are bare JSON strings like "string"
		var primitive string
		if json.Unmarshal([]byte(schema), &primitive) == nil {
			return nil, nil
		}
		return nil, err
	}
	if s.Type != "record" {
		return nil, nil
	}
	if len(s.Fields) == 0 {
		return nil, errors.New("record schema without fields")
	}
	out := make([]avroField, 0, len(s.Fields))
	for _, f := range s.Fields {
		_, isUnion := f.Type.([]any)
		out = append(out, avroField{name: f.Name, union: isUnion})
	}
	return out, nil
}

func avroRecord(datum any, fields []avroField) entity.Record {
	rec := entity.NewRecord()
	m, ok := datum.(map[string]any)
	if !ok || fields == nil {
		rec.Set(constants.FieldValue, datum)
		return rec
	}
	for _, f := range fields {
		v, present := m[f.name]
		if !present {
			continue
		}
		if f.union {
			v = unwrapUnion(v)
		}
		rec.Set(f.name, v)
	}
	return rec
}

// unwrapUnion turns goavro's {"branch": value} form into value. null stays nil.
func unwrapUnion(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	for _, inner := range m {
		return inner
	}
	return v
}
