package entity

import "time"

// ScanStatus is a snapshot of the current or most recent scan. It is owned
// by the scan service and updated through the progress sink; handlers only
// ever see copies.
type ScanStatus struct {
	ID         string    `json:"scan_id,omitempty"`
	Running    bool      `json:"is_scanning"`
	Message    string    `json:"progress_message"`
	FilesFound int       `json:"files_found"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}
