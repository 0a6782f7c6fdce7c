package entity

import (
	"time"

	"github.com/joseph-ayodele/file-ingestor/constants"
)

// Attempt is one end-to-end processing of one file, as stored in ingestion_logs.
type Attempt struct {
	ID          string                  `json:"id"`
	FileName    string                  `json:"file_name"`
	StartTime   time.Time               `json:"start_time"`
	EndTime     *time.Time              `json:"end_time,omitempty"`
	Status      constants.AttemptStatus `json:"status"`
	Message     *string                 `json:"message,omitempty"`
	RecordCount int                     `json:"record_count"`
	Checksum    string                  `json:"checksum,omitempty"`
}

// Duration is zero until the attempt has an end time.
func (a Attempt) Duration() time.Duration {
	if a.EndTime == nil {
		return 0
	}
	return a.EndTime.Sub(a.StartTime)
}
