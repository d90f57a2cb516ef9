package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/stretchr/testify/require"
)

type fakeScanService struct {
	id     string
	err    error
	root   string
	status entity.ScanStatus
}

func (f *fakeScanService) Start(ctx context.Context, root string) (string, error) {
	f.root = root

	return f.id, f.err
}

func (f *fakeScanService) Status() entity.ScanStatus {
	return f.status
}

type fakeDupesService struct {
	index  *entity.FileIndex
	report *entity.DuplicateReport
	err    error
}

func (f *fakeDupesService) Index(ctx context.Context) (*entity.FileIndex, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.index, nil
}

func (f *fakeDupesService) Report(ctx context.Context) (*entity.DuplicateReport, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.report, nil
}

type fakeRenderer struct {
	page string
	err  error
}

func (f *fakeRenderer) HTML(report *entity.DuplicateReport) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	return []byte(f.page), nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanHandlerAccepted(t *testing.T) {
	srv := &fakeScanService{id: "scan-1"}
	h := NewScanHandler(srv, discard())

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"directory": "/docs"}`))
	rec := httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "/docs", srv.root)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "scan-1", resp.ScanID)
}

func TestScanHandlerBadBody(t *testing.T) {
	h := NewScanHandler(&fakeScanService{id: "scan-1"}, discard())

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "not json", body: "scan /docs please"},
		{name: "empty directory", body: `{"directory": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScanHandlerErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "root missing", err: common.ErrRootNotFound, code: http.StatusNotFound},
		{name: "root not a directory", err: common.ErrRootNotDirectory, code: http.StatusBadRequest},
		{name: "already running", err: common.ErrScanAlreadyRunning, code: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewScanHandler(&fakeScanService{err: tt.err}, discard())

			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"directory": "/docs"}`))
			rec := httptest.NewRecorder()
			h(rec, req)

			require.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestScanStatusHandler(t *testing.T) {
	srv := &fakeScanService{status: entity.ScanStatus{
		ID:         "scan-1",
		Running:    true,
		Message:    "Scanning: /docs/a.txt",
		FilesFound: 42,
		StartedAt:  time.Now(),
	}}
	h := NewScanStatusHandler(srv, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/scan/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "scan-1", status["scan_id"])
	require.Equal(t, true, status["is_scanning"])
	require.Equal(t, "Scanning: /docs/a.txt", status["progress_message"])
	require.Equal(t, float64(42), status["files_found"])
}

func TestFilesHandler(t *testing.T) {
	index := entity.NewFileIndex([]entity.FileRecord{
		{Path: "/docs/a.txt", Size: 5, Name: "a.txt", Digest: "aa11"},
	})
	h := NewFilesHandler(&fakeDupesService{index: index}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))

	var got entity.FileIndex
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 1, got.TotalFiles)
	require.Equal(t, "aa11", got.Files[0].Digest)
}

func TestFilesHandlerNotModified(t *testing.T) {
	index := entity.NewFileIndex([]entity.FileRecord{
		{Path: "/docs/a.txt", Size: 5, Name: "a.txt", Digest: "aa11"},
	})
	h := NewFilesHandler(&fakeDupesService{index: index}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	etag := rec.Header().Get("ETag")

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h(rec, req)

	require.Equal(t, http.StatusNotModified, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestFilesHandlerMissingIndex(t *testing.T) {
	h := NewFilesHandler(&fakeDupesService{err: common.ErrIndexNotFound}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got entity.FileIndex
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Zero(t, got.TotalFiles)
	require.Empty(t, got.Files)
}

func TestFilesHandlerCorruptIndex(t *testing.T) {
	h := NewFilesHandler(&fakeDupesService{err: common.ErrIndexCorrupt}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDuplicatesHandler(t *testing.T) {
	report := &entity.DuplicateReport{
		TotalFiles:  3,
		Stats:       entity.DuplicateStats{Groups: 1, Files: 2},
		WastedBytes: 100,
		Groups: []entity.DuplicateGroup{
			{Digest: "aa11", Size: 100, Paths: []string{"/docs/a.txt", "/docs/b.txt"}},
		},
		GeneratedAt: time.Now(),
	}
	h := NewDuplicatesHandler(&fakeDupesService{report: report}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/duplicates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got entity.DuplicateReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, 3, got.TotalFiles)
	require.Equal(t, int64(100), got.WastedBytes)
	require.Len(t, got.Groups, 1)
}

func TestDuplicatesHandlerLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "no index yet", err: common.ErrIndexNotFound, code: http.StatusNotFound},
		{name: "corrupt index", err: common.ErrIndexCorrupt, code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewDuplicatesHandler(&fakeDupesService{err: tt.err}, discard())

			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/api/duplicates", nil))

			require.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestReportHandler(t *testing.T) {
	h := NewReportHandler(
		&fakeDupesService{report: &entity.DuplicateReport{}},
		&fakeRenderer{page: "<html><title>Duplicate File Report</title></html>"},
		discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "Duplicate File Report")
}

func TestReportHandlerNoIndex(t *testing.T) {
	h := NewReportHandler(&fakeDupesService{err: common.ErrIndexNotFound}, &fakeRenderer{}, discard())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Run a scan first")
}
