package server

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.NewAppError("INVALID_REQUEST", "malformed JSON body: "+err.Error(), common.ErrInvalidInput)
	}
	return nil
}
