// Package index persists the file index produced by a scan. Two backends
// share the same contract: a JSON file on disk and a versioned redis key
// set. Load keeps "no index yet" and "index unreadable" apart so callers
// can answer each differently.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/spf13/afero"
)

type fileRepository struct {
	fs   afero.Fs
	path string
	log  *slog.Logger
}

func NewFileRepository(path string, log *slog.Logger) *fileRepository {
	return NewFileRepositoryWithFS(afero.NewOsFs(), path, log)
}

func NewFileRepositoryWithFS(fs afero.Fs, path string, log *slog.Logger) *fileRepository {
	return &fileRepository{
		fs:   fs,
		path: path,
		log:  log.With(slog.String("item", "FileIndexRepository")),
	}
}

// Save writes the whole index as indented JSON, creating parent
// directories as needed. The previous index file is overwritten.
func (r *fileRepository) Save(ctx context.Context, index *entity.FileIndex) error {
	if err := r.fs.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("cannot create index directory: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal index: %w", err)
	}

	if err := afero.WriteFile(r.fs, r.path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write index: %w", err)
	}

	r.log.Info("Index saved", slog.String("path", r.path), slog.Int("total_files", index.TotalFiles))

	return nil
}

func (r *fileRepository) Load(ctx context.Context) (*entity.FileIndex, error) {
	data, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrIndexNotFound, r.path)
		}

		return nil, fmt.Errorf("cannot read index: %w", err)
	}

	var index entity.FileIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexCorrupt, err)
	}

	return &index, nil
}
