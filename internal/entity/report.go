package entity

import "time"

// DuplicateGroup is a set of two or more paths whose records share one
// digest. Groups are derived from a FileIndex on demand and never persisted.
type DuplicateGroup struct {
	Digest string   `json:"hash"`
	Size   int64    `json:"size"` // Size of the first record seen for this digest
	Paths  []string `json:"paths"`
}

// DuplicateStats summarizes duplicate groups. Files counts every member of
// every group, including the copy that would be kept.
type DuplicateStats struct {
	Groups int `json:"groups"`
	Files  int `json:"files"`
}

// DuplicateReport is the analyzer output handed to the CLI and HTTP layers.
type DuplicateReport struct {
	TotalFiles  int              `json:"total_files"`
	Stats       DuplicateStats   `json:"stats"`
	WastedBytes int64            `json:"wasted_bytes"`
	Groups      []DuplicateGroup `json:"groups"`
	GeneratedAt time.Time        `json:"generated_at"`
}
