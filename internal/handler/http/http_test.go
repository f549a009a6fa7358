package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediagrab/mediagrab/internal/common"
	"github.com/mediagrab/mediagrab/internal/config"
	"github.com/mediagrab/mediagrab/internal/entity"
)

type fakeDownloadService struct {
	startID    string
	startErr   error
	jobs       map[string]entity.Job
	resolved   string
	resolveErr error
}

func (s *fakeDownloadService) Start(_ context.Context, rawURL, _, _ string) (string, error) {
	if rawURL == "" {
		return "", common.ErrURLRequiredError
	}

	return s.startID, s.startErr
}

func (s *fakeDownloadService) Status(id string) entity.Job {
	job, exists := s.jobs[id]
	if !exists {
		return entity.Job{Status: entity.StatusNotFound}
	}

	return job
}

func (s *fakeDownloadService) ResolveFile(_ string) (string, error) {
	return s.resolved, s.resolveErr
}

type fakeInfoService struct {
	info *entity.VideoInfo
	err  error
}

func (s *fakeInfoService) Fetch(_ context.Context, rawURL string) (*entity.VideoInfo, error) {
	if rawURL == "" {
		return nil, common.ErrURLRequiredError
	}

	return s.info, s.err
}

type fakePlatformService struct{}

func (s *fakePlatformService) Sites() []entity.Site {
	return []entity.Site{{Name: "YouTube", Icon: "youtube", Domains: []string{"youtube.com"}}}
}

func (s *fakePlatformService) Detect(rawURL string) (*entity.PlatformInfo, error) {
	if rawURL == "" {
		return nil, common.ErrURLRequiredError
	}

	return &entity.PlatformInfo{Platform: "YouTube", Domain: "youtube.com", Supported: true}, nil
}

type fakeStorage struct {
	content string
}

func (s *fakeStorage) Open(_ string) (io.ReadSeekCloser, time.Time, error) {
	if s.content == "" {
		return nil, time.Time{}, fmt.Errorf("gone")
	}

	return readSeekCloser{strings.NewReader(s.content)}, time.Now(), nil
}

func (s *fakeStorage) MIMEType(_ string) string {
	return "video/mp4"
}

type readSeekCloser struct {
	*strings.Reader
}

func (readSeekCloser) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func postJSON(t *testing.T, handler http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestDownloadHandler(t *testing.T) {
	handler := NewDownloadHandler(&fakeDownloadService{startID: "id-1"}, testLogger())

	rec := postJSON(t, handler, "/download", `{"url":"https://example.com/v","quality":"HD"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	require.Equal(t, "id-1", resp["download_id"])
	require.Equal(t, "started", resp["status"])
}

func TestDownloadHandlerMissingURL(t *testing.T) {
	handler := NewDownloadHandler(&fakeDownloadService{}, testLogger())

	rec := postJSON(t, handler, "/download", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	require.Equal(t, "URL is required", resp["error"])
}

func TestDownloadHandlerBadBody(t *testing.T) {
	handler := NewDownloadHandler(&fakeDownloadService{}, testLogger())

	rec := postJSON(t, handler, "/download", `{broken`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	require.Equal(t, "No data provided", resp["error"])
}

func TestInfoHandler(t *testing.T) {
	handler := NewInfoHandler(&fakeInfoService{info: &entity.VideoInfo{
		Title:   "Clip",
		Formats: []entity.FormatOption{{Quality: "720p", FormatID: "22", Ext: "mp4"}},
	}}, testLogger())

	rec := postJSON(t, handler, "/info", `{"url":"https://example.com/v"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.VideoInfo
	decodeBody(t, rec, &resp)
	require.Equal(t, "Clip", resp.Title)
	require.Len(t, resp.Formats, 1)
}

func TestInfoHandlerExtractionFailure(t *testing.T) {
	handler := NewInfoHandler(&fakeInfoService{err: fmt.Errorf("no extractor")}, testLogger())

	rec := postJSON(t, handler, "/info", `{"url":"https://example.com/v"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	require.Contains(t, resp["error"], "Failed to get video info")
}

func TestStatusHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /status/{id}", NewStatusHandler(&fakeDownloadService{jobs: map[string]entity.Job{
		"known": {ID: "known", Status: entity.StatusDownloading, Progress: "42.0%", Speed: "1.0MiB/s"},
	}}, testLogger()))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/known", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var job entity.Job
	decodeBody(t, rec, &job)
	require.Equal(t, entity.StatusDownloading, job.Status)
	require.Equal(t, "42.0%", job.Progress)

	// Unknown ids are still a 200 with a sentinel body.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/unknown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"not_found"}`, rec.Body.String())
}

func TestFileHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /download-file/{id}", NewFileHandler(
		&fakeDownloadService{resolved: "/downloads/id_clip.mp4"},
		&fakeStorage{content: "binary-data"},
		testLogger(),
	))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download-file/id", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename="id_clip.mp4"`, rec.Header().Get("Content-Disposition"))
	require.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	require.Equal(t, "binary-data", rec.Body.String())
}

func TestFileHandlerNotReady(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		message string
	}{
		{"not finished", common.ErrDownloadNotFinishedError, "Download not finished or not found"},
		{"file missing", common.ErrFileNotFoundError, "File not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.Handle("GET /download-file/{id}", NewFileHandler(
				&fakeDownloadService{resolveErr: tc.err},
				&fakeStorage{},
				testLogger(),
			))

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download-file/id", nil))
			require.Equal(t, http.StatusNotFound, rec.Code)

			var resp map[string]string
			decodeBody(t, rec, &resp)
			require.Equal(t, tc.message, resp["error"])
		})
	}
}

func TestSitesHandler(t *testing.T) {
	handler := NewSitesHandler(&fakePlatformService{}, testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/supported-sites", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var sites []entity.Site
	decodeBody(t, rec, &sites)
	require.Len(t, sites, 1)
	require.Equal(t, "YouTube", sites[0].Name)
}

func TestDetectPlatformHandler(t *testing.T) {
	handler := NewDetectPlatformHandler(&fakePlatformService{}, testLogger())

	rec := postJSON(t, handler, "/detect-platform", `{"url":"https://www.youtube.com/watch?v=x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"platform":"YouTube","domain":"youtube.com","supported":true}`, rec.Body.String())

	rec = postJSON(t, handler, "/detect-platform", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type fixedPoolStats int64

func (s fixedPoolStats) Active() int64 { return int64(s) }

type fixedJobStats int

func (s fixedJobStats) Len() int { return int(s) }

func TestHealthHandler(t *testing.T) {
	handler := NewHealthHandler(fixedPoolStats(2), fixedJobStats(7), testLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok","active_downloads":2,"tracked_jobs":7}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/supported-sites", nil))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.StatusOK, rec.Code)

	// Preflight is answered by the middleware itself.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/download", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := &config.HandlerConfig{
		RateLimitEnabled: true,
		RateLimitRPS:     1,
		RateLimitBurst:   2,
	}

	handler := RateLimit(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for n := 0; n < 3; n++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitDisabled(t *testing.T) {
	handler := RateLimit(&config.HandlerConfig{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for n := 0; n < 50; n++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
