package constants

import "strconv"

// Field names written into records. These are part of the storage contract.
const (
	FieldFileName   = "file_name"
	FieldLogID      = "log_id"
	FieldLineNumber = "line_number"
	FieldContent    = "content"
	FieldValue      = "value"
)

// Table names owned by the ingestor.
const (
	TableIngestionConfig = "ingestion_config"
	TableIngestionLogs   = "ingestion_logs"
)

// SyntheticColumn names a delimited-text field that has no header.
func SyntheticColumn(i int) string {
	return "column_" + strconv.Itoa(i)
}
