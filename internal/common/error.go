package common

import "fmt"

var (
	// Fatal scan preconditions: the whole scan aborts, nothing is written.
	ErrRootNotFound     = fmt.Errorf("scan root does not exist")
	ErrRootNotDirectory = fmt.Errorf("scan root is not a directory")

	// Only one scan may run against the index at a time.
	ErrScanAlreadyRunning = fmt.Errorf("scan process has already started")

	// Index load failures. Kept distinct so callers can tell "no index yet"
	// from "index corrupt" and give different guidance.
	ErrIndexNotFound = fmt.Errorf("index not found")
	ErrIndexCorrupt  = fmt.Errorf("index is corrupt")
)
