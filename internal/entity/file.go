package entity

// FileRecord describes a single regular file captured during a scan.
// Records are created by the scanner and never mutated afterwards.
type FileRecord struct {
	Path   string `json:"path"` // Absolute path at the time of the scan
	Size   int64  `json:"size"` // Size in bytes
	Name   string `json:"name"` // Base name component of Path
	Digest string `json:"hash"` // Lowercase hex SHA-256 of the file content
}

// FileIndex is the persisted collection of records produced by one scan.
// A new scan replaces the whole index; there are no merge semantics.
type FileIndex struct {
	TotalFiles int          `json:"total_files"`
	Files      []FileRecord `json:"files"`
}

// NewFileIndex wraps records into an index with the count filled in.
func NewFileIndex(records []FileRecord) *FileIndex {
	return &FileIndex{
		TotalFiles: len(records),
		Files:      records,
	}
}
