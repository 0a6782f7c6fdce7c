package parse

import (
	"bytes"
	"encoding/json"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// JSONDecoder reads a JSON document. A top-level array yields one record per
// element; anything else yields a single record. Objects keep their key order,
// other values are wrapped as {"value": v}.
type JSONDecoder struct{}

func (JSONDecoder) Decode(data []byte, _ map[string]any) ([]entity.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, common.ParseError(nil, "invalid JSON document")
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, common.ParseError(err, "json array")
		}
		out := make([]entity.Record, 0, len(items))
		for i, item := range items {
			rec, err := jsonRecord(item)
			if err != nil {
				return nil, common.ParseError(err, "json element %d", i)
			}
			out = append(out, rec)
		}
		return out, nil
	}

	rec, err := jsonRecord(trimmed)
	if err != nil {
		return nil, common.ParseError(err, "json value")
	}
	return []entity.Record{rec}, nil
}

func jsonRecord(raw json.RawMessage) (entity.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var rec entity.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return entity.Record{}, err
		}
		return rec, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return entity.Record{}, err
	}
	rec := entity.NewRecord()
	rec.Set(constants.FieldValue, v)
	return rec, nil
}
