package constants

// AttemptStatus is the canonical status for rows in ingestion_logs.
type AttemptStatus string

// Stable values (store these exact strings in DB).
const (
	AttemptStatusRunning AttemptStatus = "RUNNING" // written on create
	AttemptStatusSuccess AttemptStatus = "SUCCESS" // terminal
	AttemptStatusFailed  AttemptStatus = "FAILED"  // terminal
)

// SuccessMessage is stored on attempts whose batch was persisted.
const SuccessMessage = "File processed successfully"

// IsTerminal reports whether s is a final attempt status.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptStatusSuccess || s == AttemptStatusFailed
}

func (s AttemptStatus) String() string { return string(s) }
