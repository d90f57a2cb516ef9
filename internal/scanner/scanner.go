package scanner

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/spf13/afero"
)

const milestoneEvery = 100

// ProgressFunc receives human-readable progress messages as the scan works.
// It must be fast and must never influence the scan result. A nil sink is
// allowed.
type ProgressFunc func(message string)

type Config struct {
	// Exclude holds doublestar patterns matched against slash-separated
	// absolute paths. Matching directories are not descended, matching
	// files are not recorded.
	Exclude []string
}

// Scanner walks a directory tree and produces one FileRecord per readable
// regular file. Unreadable directories and files are skipped, not fatal;
// only a missing or non-directory root aborts the scan.
type Scanner struct {
	fs  afero.Fs
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Scanner {
	return NewWithFS(afero.NewOsFs(), cfg, log)
}

func NewWithFS(fs afero.Fs, cfg Config, log *slog.Logger) *Scanner {
	return &Scanner{
		fs:  fs,
		cfg: cfg,
		log: log.With(slog.String("item", "Scanner")),
	}
}

// Validate checks the fatal scan preconditions without walking anything:
// root must exist and must be a directory.
func (s *Scanner) Validate(root string) error {
	_, err := s.resolveRoot(root)

	return err
}

func (s *Scanner) resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrRootNotFound, root)
	}

	info, err := s.fs.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrRootNotFound, root)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", common.ErrRootNotDirectory, root)
	}

	return abs, nil
}

// Scan validates root and descends it depth-first. The returned records all
// carry a non-empty digest; files that could not be read leave no trace
// beyond a progress message. Symbolic links are followed the way the OS
// resolves them; there is no cycle detection.
func (s *Scanner) Scan(root string, progress ProgressFunc) ([]entity.FileRecord, error) {
	if progress == nil {
		progress = func(string) {}
	}

	abs, err := s.resolveRoot(root)
	if err != nil {
		return nil, err
	}

	progress("Starting scan...")

	records := make([]entity.FileRecord, 0)
	s.walk(abs, progress, &records)

	progress(fmt.Sprintf("Scan complete! Found %d files.", len(records)))

	return records, nil
}

func (s *Scanner) walk(dir string, progress ProgressFunc, records *[]entity.FileRecord) {
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		progress(fmt.Sprintf("Skipped directory (no permission): %s", dir))
		s.log.Debug("Cannot list directory", slog.String("path", dir), slog.Any("error", err))

		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		// Stat, not Lstat: a symlink counts as whatever it points at,
		// and a broken one surfaces here as an error.
		info, err := s.fs.Stat(path)
		if err != nil {
			progress(fmt.Sprintf("Skipped (no permission): %s", path))
			s.log.Debug("Cannot stat entry", slog.String("path", path), slog.Any("error", err))

			continue
		}

		if s.excluded(path) {
			s.log.Debug("Excluded by pattern", slog.String("path", path))

			continue
		}

		if info.IsDir() {
			s.walk(path, progress, records)

			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}

		progress(fmt.Sprintf("Scanning: %s", path))

		sum := fileDigest(s.fs, path)
		if sum == "" {
			continue
		}

		*records = append(*records, entity.FileRecord{
			Path:   path,
			Size:   info.Size(),
			Name:   filepath.Base(path),
			Digest: sum,
		})

		if len(*records)%milestoneEvery == 0 {
			progress(fmt.Sprintf("Files found: %d", len(*records)))
		}
	}
}

func (s *Scanner) excluded(path string) bool {
	for _, pattern := range s.cfg.Exclude {
		if ok, err := doublestar.Match(pattern, filepath.ToSlash(path)); err == nil && ok {
			return true
		}
	}

	return false
}
