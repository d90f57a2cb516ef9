// Package dupes answers duplicate questions from the persisted index. It
// never touches the filesystem itself; everything derives from the records
// the last scan left behind.
package dupes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jgivc/dupetracker/internal/analyzer"
	"github.com/jgivc/dupetracker/internal/entity"
)

type IndexRepository interface {
	Load(ctx context.Context) (*entity.FileIndex, error)
}

type Service struct {
	repo IndexRepository
	log  *slog.Logger
}

func NewDupesService(repo IndexRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("item", "DupesService")),
	}
}

// Index returns the persisted index as the last scan wrote it.
func (s *Service) Index(ctx context.Context) (*entity.FileIndex, error) {
	index, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load index: %w", err)
	}

	return index, nil
}

// Report loads the index and derives the full duplicate picture from it.
func (s *Service) Report(ctx context.Context) (*entity.DuplicateReport, error) {
	index, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load index: %w", err)
	}

	report := &entity.DuplicateReport{
		TotalFiles:  index.TotalFiles,
		Stats:       analyzer.CountDuplicates(index.Files),
		WastedBytes: analyzer.WastedSpace(index.Files),
		Groups:      analyzer.FindDuplicates(index.Files),
		GeneratedAt: time.Now(),
	}

	s.log.Info("Report built",
		slog.Int("total_files", report.TotalFiles),
		slog.Int("groups", report.Stats.Groups),
		slog.Int64("wasted_bytes", report.WastedBytes))

	return report, nil
}
