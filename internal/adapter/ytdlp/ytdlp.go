package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/mediagrab/mediagrab/internal/config"
	"github.com/mediagrab/mediagrab/internal/entity"
)

const (
	unknownField = "Unknown"
)

// Client drives the yt-dlp binary through the go-ytdlp bindings. It is the
// only component doing long network I/O and always runs inside a worker.
type Client struct {
	progressInterval time.Duration
	log              *slog.Logger
}

func NewClient(cfg *config.DownloaderConfig, log *slog.Logger) *Client {
	return &Client{
		progressInterval: cfg.ProgressInterval(),
		log:              log.With(slog.String("item", "YTDLPClient")),
	}
}

// Install fetches the yt-dlp binary if it is not already present. Meant for
// startup, gated by config.
func Install(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("cannot install yt-dlp: %w", err)
	}

	return nil
}

// Download runs one extraction and feeds every raw progress update through
// report. The call blocks until yt-dlp exits.
func (c *Client) Download(ctx context.Context, rawURL string, opts entity.DownloadOptions, report func(entity.ProgressEvent)) error {
	dl := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		Format(opts.Format).
		Output(opts.OutputTemplate)

	if opts.ExtractAudio {
		dl = dl.ExtractAudio().
			AudioFormat(opts.AudioCodec).
			AudioQuality(opts.AudioQuality)
	}

	dl.ProgressFunc(c.progressInterval, func(update ytdlp.ProgressUpdate) {
		report(toEvent(update))
	})

	c.log.Info("Start download", slog.String("url", rawURL), slog.String("format", opts.Format))

	if _, err := dl.Run(ctx, rawURL); err != nil {
		return fmt.Errorf("cannot download %s: %w", rawURL, err)
	}

	return nil
}

func toEvent(update ytdlp.ProgressUpdate) entity.ProgressEvent {
	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		return entity.ProgressEvent{
			Kind:     entity.EventDownloading,
			Percent:  percentString(update),
			Speed:    speedString(update),
			Filename: update.Filename,
		}
	case ytdlp.ProgressStatusFinished:
		return entity.ProgressEvent{
			Kind:     entity.EventFinished,
			Filename: update.Filename,
		}
	default:
		return entity.ProgressEvent{Kind: entity.EventOther}
	}
}

func percentString(update ytdlp.ProgressUpdate) string {
	if update.TotalBytes <= 0 {
		return ""
	}

	return fmt.Sprintf("%.1f%%", float64(update.DownloadedBytes)/float64(update.TotalBytes)*100)
}

func speedString(update ytdlp.ProgressUpdate) string {
	if update.Started.IsZero() {
		return ""
	}

	elapsed := time.Since(update.Started).Seconds()
	if elapsed <= 0 {
		return ""
	}

	bytesPerSecond := float64(update.DownloadedBytes) / elapsed

	return fmt.Sprintf("%.1fMiB/s", bytesPerSecond/1024/1024)
}

// rawInfo matches the fields of the yt-dlp single-json dump this service
// cares about.
type rawInfo struct {
	Title     string      `json:"title"`
	Duration  float64     `json:"duration"`
	Uploader  string      `json:"uploader"`
	Thumbnail string      `json:"thumbnail"`
	Formats   []rawFormat `json:"formats"`
}

type rawFormat struct {
	FormatID string `json:"format_id"`
	Ext      string `json:"ext"`
	VCodec   string `json:"vcodec"`
	Height   int    `json:"height"`
	Filesize int64  `json:"filesize"`
}

// FetchInfo extracts metadata without downloading anything.
func (c *Client) FetchInfo(ctx context.Context, rawURL string) (*entity.VideoDetails, error) {
	res, err := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON().
		Run(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("cannot extract info for %s: %w", rawURL, err)
	}

	var raw rawInfo
	if err := json.Unmarshal([]byte(res.Stdout), &raw); err != nil {
		return nil, fmt.Errorf("cannot parse info for %s: %w", rawURL, err)
	}

	details := &entity.VideoDetails{
		Title:     raw.Title,
		Duration:  raw.Duration,
		Uploader:  raw.Uploader,
		Thumbnail: raw.Thumbnail,
	}

	if details.Title == "" {
		details.Title = unknownField
	}

	if details.Uploader == "" {
		details.Uploader = unknownField
	}

	details.Formats = make([]entity.SourceFormat, 0, len(raw.Formats))
	for _, f := range raw.Formats {
		details.Formats = append(details.Formats, entity.SourceFormat{
			FormatID: f.FormatID,
			Ext:      f.Ext,
			VCodec:   f.VCodec,
			Height:   f.Height,
			Filesize: f.Filesize,
		})
	}

	return details, nil
}
