// Package scan runs directory scans and tracks the state of the one scan
// that may be in flight at any moment.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/jgivc/dupetracker/internal/scanner"
)

type TreeScanner interface {
	Validate(root string) error
	Scan(root string, progress scanner.ProgressFunc) ([]entity.FileRecord, error)
}

type IndexRepository interface {
	Save(ctx context.Context, index *entity.FileIndex) error
}

// Service serializes scans with a compare-and-swap guard: a second Start or
// Run while one is in flight fails with ErrScanAlreadyRunning instead of
// queueing.
type Service struct {
	running atomic.Bool
	scanner TreeScanner
	repo    IndexRepository
	log     *slog.Logger

	mu     sync.Mutex
	status entity.ScanStatus
}

func NewScanService(sc TreeScanner, repo IndexRepository, log *slog.Logger) *Service {
	return &Service{
		scanner: sc,
		repo:    repo,
		log:     log.With(slog.String("item", "ScanService")),
	}
}

// Start validates root, then scans it in the background and saves the
// resulting index. It returns the scan ID right away; progress is observed
// through Status. The background work survives cancellation of ctx.
func (s *Service) Start(ctx context.Context, root string) (string, error) {
	if err := s.scanner.Validate(root); err != nil {
		return "", err
	}

	if !s.running.CompareAndSwap(false, true) {
		return "", common.ErrScanAlreadyRunning
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.status = entity.ScanStatus{
		ID:        id,
		Running:   true,
		Message:   "Starting scan...",
		StartedAt: time.Now(),
	}
	s.mu.Unlock()

	scanCtx := context.WithoutCancel(ctx)

	go func() {
		defer s.running.Store(false)

		log := s.log.With(slog.String("scan_id", id))
		log.Info("Scan started", slog.String("root", root))

		records, err := s.scanner.Scan(root, s.track)
		if err != nil {
			s.finish(0, fmt.Sprintf("Error: %v", err))
			log.Error("Scan failed", slog.Any("error", err))

			return
		}

		index := entity.NewFileIndex(records)

		s.track("Saving index...")

		if err := s.repo.Save(scanCtx, index); err != nil {
			s.finish(index.TotalFiles, fmt.Sprintf("Error: %v", err))
			log.Error("Cannot save index", slog.Any("error", err))

			return
		}

		s.finish(index.TotalFiles, fmt.Sprintf("Scan complete! Found %d files.", index.TotalFiles))
		log.Info("Scan finished", slog.Int("total_files", index.TotalFiles))
	}()

	return id, nil
}

// Run scans root in the foreground and saves the index. It holds the same
// guard as Start, so a background scan blocks a foreground one and the
// other way around.
func (s *Service) Run(ctx context.Context, root string, progress scanner.ProgressFunc) (*entity.FileIndex, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, common.ErrScanAlreadyRunning
	}
	defer s.running.Store(false)

	records, err := s.scanner.Scan(root, progress)
	if err != nil {
		return nil, fmt.Errorf("cannot scan directory: %w", err)
	}

	index := entity.NewFileIndex(records)

	if err := s.repo.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("cannot save index: %w", err)
	}

	return index, nil
}

// Status returns a copy of the current scan state. After a scan finishes
// the last state stays visible until the next Start.
func (s *Service) Status() entity.ScanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status
}

// track feeds the status from scanner progress messages. The per-file
// "Scanning:" messages double as a live file counter; the final count is
// set once the index is known.
func (s *Service) track(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Message = message
	if strings.HasPrefix(message, "Scanning: ") {
		s.status.FilesFound++
	}
}

func (s *Service) finish(filesFound int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Running = false
	s.status.FilesFound = filesFound
	s.status.FinishedAt = time.Now()

	if message != "" {
		s.status.Message = message
	}
}
