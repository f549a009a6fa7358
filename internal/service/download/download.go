package download

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mediagrab/mediagrab/internal/common"
	"github.com/mediagrab/mediagrab/internal/entity"
)

const (
	serviceName = "download"

	FormatVideo = "video"
	FormatAudio = "audio"

	QualityBest = "best"

	audioFormatSelector   = "bestaudio/best"
	audioCodec            = "mp3"
	audioQuality          = "192K"
	selectorUnconstrained = "best"
)

// formatSelectors maps the client quality label to a yt-dlp selector.
// Unrecognized labels fall back to plain "best" without an error, that has
// always been the contract of the download endpoint.
var formatSelectors = map[string]string{
	"best": "best[height<=1080]",
	"4K":   "best[height<=2160]",
	"HD":   "best[height<=720]",
}

type JobRepository interface {
	Create(id string)
	Update(id string, job entity.Job)
	Get(id string) entity.Job
}

type ExtractionClient interface {
	Download(ctx context.Context, rawURL string, opts entity.DownloadOptions, report func(entity.ProgressEvent)) error
}

type MediaStorage interface {
	OutputTemplate(id string) string
	Exists(path string) bool
}

type WorkerPool interface {
	Go(fn func())
}

type downloadService struct {
	repo   JobRepository
	client ExtractionClient
	store  MediaStorage
	pool   WorkerPool
	log    *slog.Logger
}

func NewDownloadService(repo JobRepository, client ExtractionClient, store MediaStorage, pool WorkerPool, log *slog.Logger) *downloadService {
	return &downloadService{
		repo:   repo,
		client: client,
		store:  store,
		pool:   pool,
		log:    log.With(slog.String("service", serviceName)),
	}
}

// Start registers a job and launches its background unit. It returns the id
// right away, the caller polls Status for the rest.
func (s *downloadService) Start(ctx context.Context, rawURL, quality, formatType string) (string, error) {
	if rawURL == "" {
		return "", common.ErrURLRequiredError
	}

	if quality == "" {
		quality = QualityBest
	}

	if formatType == "" {
		formatType = FormatVideo
	}

	id := uuid.New().String()

	opts := entity.DownloadOptions{
		OutputTemplate: s.store.OutputTemplate(id),
	}

	if formatType == FormatAudio {
		opts.Format = audioFormatSelector
		opts.ExtractAudio = true
		opts.AudioCodec = audioCodec
		opts.AudioQuality = audioQuality
	} else {
		opts.Format = selectorForQuality(quality)
	}

	// The record must exist before the unit starts so the first poll
	// already answers "starting".
	s.repo.Create(id)

	reporter := newProgressReporter(id, s.repo)

	s.pool.Go(func() {
		// Fire-and-forget: the unit outlives the HTTP exchange and runs
		// to completion, so it does not inherit the request context.
		if err := s.client.Download(context.Background(), rawURL, opts, reporter.Report); err != nil {
			s.log.Error("Download failed", slog.String("id", id), slog.String("url", rawURL), slog.Any("error", err))

			s.repo.Update(id, entity.Job{
				Status: entity.StatusError,
				Error:  err.Error(),
			})
		}
	})

	s.log.Info("Download started", slog.String("id", id), slog.String("format", opts.Format))

	return id, nil
}

// Status never fails, unknown ids come back as the not_found sentinel.
func (s *downloadService) Status(id string) entity.Job {
	return s.repo.Get(id)
}

// ResolveFile returns the path of a finished download. The file may have
// been removed between finishing and fetching, that surfaces as not found.
func (s *downloadService) ResolveFile(id string) (string, error) {
	job := s.repo.Get(id)
	if job.Status != entity.StatusFinished {
		return "", common.ErrDownloadNotFinishedError
	}

	if job.Filepath == "" || !s.store.Exists(job.Filepath) {
		return "", common.ErrFileNotFoundError
	}

	return job.Filepath, nil
}

func selectorForQuality(quality string) string {
	if selector, exists := formatSelectors[quality]; exists {
		return selector
	}

	return selectorUnconstrained
}
