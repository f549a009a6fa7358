package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/mediagrab/mediagrab/internal/common"
	"github.com/mediagrab/mediagrab/internal/entity"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html; charset=utf-8"
)

type InfoService interface {
	Fetch(ctx context.Context, rawURL string) (*entity.VideoInfo, error)
}

type DownloadService interface {
	Start(ctx context.Context, rawURL, quality, formatType string) (string, error)
	Status(id string) entity.Job
	ResolveFile(id string) (string, error)
}

type PlatformService interface {
	Sites() []entity.Site
	Detect(rawURL string) (*entity.PlatformInfo, error)
}

type FileStorage interface {
	Open(path string) (io.ReadSeekCloser, time.Time, error)
	MIMEType(path string) string
}

type PageRenderer interface {
	Render() (string, error)
}

type PoolStats interface {
	Active() int64
}

type JobStats interface {
	Len() int
}

type urlRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL     string `json:"url"`
	Quality string `json:"quality"`
	Format  string `json:"format"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type downloadStartedResponse struct {
	DownloadID string `json:"download_id"`
	Status     string `json:"status"`
}

type healthResponse struct {
	Status          string `json:"status"`
	ActiveDownloads int64  `json:"active_downloads"`
	TrackedJobs     int    `json:"tracked_jobs"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are sent, nothing left to do for the client.
		slog.Default().Error("Cannot encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func NewInfoHandler(srv InfoService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "InfoHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "No data provided")

			return
		}

		info, err := srv.Fetch(r.Context(), req.URL)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrURLRequiredError):
				writeError(w, http.StatusBadRequest, "URL is required")
			default:
				log.Error("Cannot get video info", slog.String("url", req.URL), slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get video info: %s", err))
			}

			return
		}

		writeJSON(w, http.StatusOK, info)
	}
}

func NewDownloadHandler(srv DownloadService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "DownloadHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		var req downloadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "No data provided")

			return
		}

		id, err := srv.Start(r.Context(), req.URL, req.Quality, req.Format)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrURLRequiredError):
				writeError(w, http.StatusBadRequest, "URL is required")
			default:
				log.Error("Cannot start download", slog.String("url", req.URL), slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start download: %s", err))
			}

			return
		}

		writeJSON(w, http.StatusOK, downloadStartedResponse{
			DownloadID: id,
			Status:     "started",
		})
	}
}

// NewStatusHandler answers for any id, unknown ones included. The not_found
// sentinel is a regular 200 response, not an error.
func NewStatusHandler(srv DownloadService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, srv.Status(r.PathValue("id")))
	}
}

func NewFileHandler(srv DownloadService, store FileStorage, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "FileHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		path, err := srv.ResolveFile(id)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrDownloadNotFinishedError):
				writeError(w, http.StatusNotFound, "Download not finished or not found")
			case errors.Is(err, common.ErrFileNotFoundError):
				writeError(w, http.StatusNotFound, "File not found")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}

			return
		}

		file, modTime, err := store.Open(path)
		if err != nil {
			// Lost between resolve and open, same answer as any missing file.
			log.Error("Cannot open file", slog.String("id", id), slog.String("path", path), slog.Any("error", err))
			writeError(w, http.StatusNotFound, "File not found")

			return
		}
		defer file.Close()

		filename := filepath.Base(path)

		log.Info("Serve file", slog.String("id", id), slog.String("path", path))

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Type", store.MIMEType(path))
		http.ServeContent(w, r, filename, modTime, file)
	}
}

func NewSitesHandler(srv PlatformService, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, srv.Sites())
	}
}

func NewDetectPlatformHandler(srv PlatformService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "DetectPlatformHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		var req urlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "No data provided")

			return
		}

		info, err := srv.Detect(req.URL)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrURLRequiredError):
				writeError(w, http.StatusBadRequest, "URL is required")
			default:
				log.Error("Cannot detect platform", slog.String("url", req.URL), slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, err.Error())
			}

			return
		}

		writeJSON(w, http.StatusOK, info)
	}
}

func NewHealthHandler(pool PoolStats, jobs JobStats, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:          "ok",
			ActiveDownloads: pool.Active(),
			TrackedJobs:     jobs.Len(),
		})
	}
}

func NewPageHandler(renderer PageRenderer, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "PageHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		content, err := renderer.Render()
		if err != nil {
			log.Error("Cannot render page", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "Cannot render page")

			return
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		w.Write([]byte(content))
	}
}
