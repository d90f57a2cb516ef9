// Package app wires the configuration, logger, index repository and
// services together and runs the HTTP server or one of the one-shot CLI
// modes on top of them.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jgivc/dupetracker/internal/config"
	"github.com/jgivc/dupetracker/internal/entity"
	httphandler "github.com/jgivc/dupetracker/internal/handler/http"
	repoindex "github.com/jgivc/dupetracker/internal/repository/index"
	"github.com/jgivc/dupetracker/internal/report"
	"github.com/jgivc/dupetracker/internal/scanner"
	"github.com/jgivc/dupetracker/internal/service/dupes"
	"github.com/jgivc/dupetracker/internal/service/scan"
	"github.com/jgivc/dupetracker/internal/util"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 5 * time.Second

type indexRepository interface {
	Save(ctx context.Context, index *entity.FileIndex) error
	Load(ctx context.Context) (*entity.FileIndex, error)
}

type App struct {
	cfgPath  string
	cfg      *config.Config
	srv      *http.Server
	scan     *scan.Service
	dupes    *dupes.Service
	renderer *report.Renderer
	log      *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

// setup builds everything below the HTTP layer. Wiring failures this early
// are unrecoverable and panic.
func (a *App) setup() {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	a.log = slog.New(slog.NewTextHandler(os.Stderr, lo))

	var repo indexRepository
	switch a.cfg.Store {
	case config.StoreFile:
		repo = repoindex.NewFileRepository(a.cfg.IndexPath, a.log)
	case config.StoreRedis:
		opt, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		repo, err = repoindex.NewRedisRepository(rdb, a.log)
		if err != nil {
			panic(err)
		}
	default:
		panic("unknown store: " + a.cfg.Store)
	}

	sc := scanner.New(scanner.Config{Exclude: a.cfg.Scan.Exclude}, a.log)
	a.scan = scan.NewScanService(sc, repo, a.log)
	a.dupes = dupes.NewDupesService(repo, a.log)

	renderer, err := report.NewRenderer("")
	if err != nil {
		panic(err)
	}
	a.renderer = renderer
}

func (a *App) Start() {
	a.setup()

	http.Handle("POST /api/scan", httphandler.NewScanHandler(a.scan, a.log))
	http.Handle("GET /api/scan/status", httphandler.NewScanStatusHandler(a.scan, a.log))
	http.Handle("GET /api/files", httphandler.NewFilesHandler(a.dupes, a.log))
	http.Handle("GET /api/duplicates", httphandler.NewDuplicatesHandler(a.dupes, a.log))
	http.Handle("GET /api/report", httphandler.NewReportHandler(a.dupes, a.renderer, a.log))

	a.srv = &http.Server{
		Addr: a.cfg.Listen,
	}

	go func() {
		a.log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

// Scan kicks off a background scan of the configured default directory.
// Wired to SIGUSR1 so an index can be rebuilt without touching the API.
func (a *App) Scan() {
	id, err := a.scan.Start(context.Background(), a.cfg.Scan.DefaultDir)
	if err != nil {
		a.log.Error("Cannot start scan", slog.String("dir", a.cfg.Scan.DefaultDir), slog.Any("error", err))

		return
	}

	a.log.Info("Scan started by signal", slog.String("scan_id", id), slog.String("dir", a.cfg.Scan.DefaultDir))
}

// ScanOnce scans dir in the foreground, saves the index and prints a
// summary. Used by the -scan CLI mode.
func (a *App) ScanOnce(dir string) error {
	a.setup()

	if dir == "" {
		dir = a.cfg.Scan.DefaultDir
	}

	index, err := a.scan.Run(context.Background(), dir, func(message string) {
		fmt.Println(message)
	})
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	var total int64
	for i := range index.Files {
		total += index.Files[i].Size
	}

	fmt.Printf("\nIndexed %d files, %s total.\n", index.TotalFiles, util.FormatSize(total))

	return nil
}

// Dupes prints the duplicate report for the persisted index. A non-empty
// mdFileName additionally writes the markdown form of the report there.
// Used by the -dupes CLI mode.
func (a *App) Dupes(mdFileName string) error {
	a.setup()

	rep, err := a.dupes.Report(context.Background())
	if err != nil {
		return fmt.Errorf("cannot build report: %w", err)
	}

	fmt.Print(a.renderer.Text(rep))

	if mdFileName != "" {
		if err := os.WriteFile(mdFileName, a.renderer.Markdown(rep), 0o644); err != nil {
			return fmt.Errorf("cannot write markdown report: %w", err)
		}

		fmt.Printf("Markdown report written to %s\n", mdFileName)
	}

	return nil
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)
}
