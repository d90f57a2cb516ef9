// Package httphandler exposes the scan and duplicate services over HTTP.
// Handlers hold consumer-side interfaces so tests can plug in fakes; routes
// are registered by the app layer.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
)

type ScanService interface {
	Start(ctx context.Context, root string) (string, error)
	Status() entity.ScanStatus
}

type IndexService interface {
	Index(ctx context.Context) (*entity.FileIndex, error)
}

type ReportService interface {
	Report(ctx context.Context) (*entity.DuplicateReport, error)
}

type ReportRenderer interface {
	HTML(report *entity.DuplicateReport) ([]byte, error)
}

type scanRequest struct {
	Directory string `json:"directory"`
}

type scanResponse struct {
	ScanID string `json:"scan_id"`
}

// NewScanHandler starts a background scan of the directory named in the
// request body. The scan id comes back immediately; progress is polled
// through the status handler.
func NewScanHandler(srv ScanService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ScanHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		var req scanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Directory == "" {
			http.Error(w, "Request body must be JSON with a directory field", http.StatusBadRequest)

			return
		}

		id, err := srv.Start(r.Context(), req.Directory)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrRootNotFound):
				http.Error(w, "Directory does not exist", http.StatusNotFound)
			case errors.Is(err, common.ErrRootNotDirectory):
				http.Error(w, "Path is not a directory", http.StatusBadRequest)
			case errors.Is(err, common.ErrScanAlreadyRunning):
				http.Error(w, "Scan process has already started", http.StatusConflict)
			default:
				log.Error("Cannot start scan", slog.Any("error", err))
				http.Error(w, "Cannot start scan", http.StatusInternalServerError)
			}

			return
		}

		log.Info("Scan accepted", slog.String("scan_id", id), slog.String("directory", req.Directory))

		writeJSON(w, http.StatusAccepted, scanResponse{ScanID: id}, log)
	}
}

func NewScanStatusHandler(srv ScanService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ScanStatusHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, srv.Status(), log)
	}
}

// NewFilesHandler serves the persisted index. A missing index is an empty
// one here, matching what a fresh install looks like. The payload carries an
// ETag so pollers can skip unchanged bodies.
func NewFilesHandler(srv IndexService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "FilesHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		index, err := srv.Index(r.Context())
		if err != nil {
			if !errors.Is(err, common.ErrIndexNotFound) {
				log.Error("Cannot load index", slog.Any("error", err))
				http.Error(w, "Cannot load index", http.StatusInternalServerError)

				return
			}

			index = &entity.FileIndex{Files: []entity.FileRecord{}}
		}

		data, err := json.Marshal(index)
		if err != nil {
			http.Error(w, "Cannot encode index", http.StatusInternalServerError)

			return
		}

		etag := fmt.Sprintf("\"%016x\"", xxhash.Sum64(data))
		w.Header().Set("ETag", etag)

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func NewDuplicatesHandler(srv ReportService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "DuplicatesHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		report, err := srv.Report(r.Context())
		if err != nil {
			reportError(w, err, log)

			return
		}

		writeJSON(w, http.StatusOK, report, log)
	}
}

func NewReportHandler(srv ReportService, renderer ReportRenderer, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ReportHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		report, err := srv.Report(r.Context())
		if err != nil {
			reportError(w, err, log)

			return
		}

		page, err := renderer.HTML(report)
		if err != nil {
			log.Error("Cannot render report", slog.Any("error", err))
			http.Error(w, "Cannot render report", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}
}

// reportError maps the two index load conditions apart: no index yet means
// the caller should scan first, a corrupt index is a server-side problem.
func reportError(w http.ResponseWriter, err error, log *slog.Logger) {
	switch {
	case errors.Is(err, common.ErrIndexNotFound):
		http.Error(w, "No index found. Run a scan first", http.StatusNotFound)
	case errors.Is(err, common.ErrIndexCorrupt):
		log.Error("Index is corrupt", slog.Any("error", err))
		http.Error(w, "Index is corrupt. Run a new scan", http.StatusInternalServerError)
	default:
		log.Error("Cannot build report", slog.Any("error", err))
		http.Error(w, "Cannot build report", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Cannot encode response", slog.Any("error", err))
	}
}
