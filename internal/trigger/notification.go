// Package trigger turns external events (S3 notifications on SQS, local
// filesystem changes, directory scans) into file references for the processor.
package trigger

import (
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// s3Event is the subset of an S3 event notification that names objects.
type s3Event struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseNotification extracts one reference per record that names both a
// bucket and a key. Keys arrive URL-encoded; undecodable keys are kept raw.
func ParseNotification(body []byte, logger *slog.Logger) ([]entity.FileReference, error) {
	var ev s3Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, common.WrapError(err, "parse s3 event")
	}
	if len(ev.Records) == 0 {
		logger.Warn("s3 event contains no records")
		return nil, nil
	}

	refs := make([]entity.FileReference, 0, len(ev.Records))
	for i, r := range ev.Records {
		bucket, key := r.S3.Bucket.Name, r.S3.Object.Key
		if bucket == "" || key == "" {
			logger.Warn("s3 record missing bucket or key", "index", i)
			continue
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		} else {
			logger.Warn("s3 key is not url-encoded, using raw key", "key", key, "error", err)
		}
		refs = append(refs, entity.FileReference{Container: bucket, Key: key})
	}
	return refs, nil
}
