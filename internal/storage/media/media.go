package media

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/mediagrab/mediagrab/internal/config"
)

const (
	outputTemplateSuffix  = "_%(title)s.%(ext)s"
	mimeTypeUnknown       = "application/octet-stream"
	mimeTypeCheckPartSize = 512

	dirPerm = 0o755
)

// mediaStorage owns the download directory. Files land there under
// {id}_{title}.{ext} and are never cleaned up by this service.
type mediaStorage struct {
	fs  afero.Fs
	dir string
	log *slog.Logger
}

func NewMediaStorage(cfg *config.StorageConfig, log *slog.Logger) (*mediaStorage, error) {
	return NewMediaStorageWithFS(afero.NewOsFs(), cfg, log)
}

func NewMediaStorageWithFS(fs afero.Fs, cfg *config.StorageConfig, log *slog.Logger) (*mediaStorage, error) {
	if err := fs.MkdirAll(cfg.DownloadDir, dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create download dir %s: %w", cfg.DownloadDir, err)
	}

	return &mediaStorage{
		fs:  fs,
		dir: cfg.DownloadDir,
		log: log.With(slog.String("item", "MediaStorage")),
	}, nil
}

// OutputTemplate builds the yt-dlp output path template for one job id.
// Title and extension placeholders are expanded by the extractor itself.
func (s *mediaStorage) OutputTemplate(id string) string {
	return filepath.Join(s.dir, id+outputTemplateSuffix)
}

func (s *mediaStorage) Exists(path string) bool {
	if path == "" {
		return false
	}

	_, err := s.fs.Stat(path)
	if err == nil {
		return true
	}

	if !os.IsNotExist(err) {
		s.log.Error("Cannot stat file", slog.String("path", path), slog.Any("error", err))
	}

	return false
}

func (s *mediaStorage) Open(path string) (io.ReadSeekCloser, time.Time, error) {
	stat, err := s.fs.Stat(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cannot stat file %s: %w", path, err)
	}

	file, err := s.fs.Open(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("cannot open file %s: %w", path, err)
	}

	return file, stat.ModTime(), nil
}

// MIMEType resolves the content type by extension first and falls back to
// sniffing the leading bytes.
func (s *mediaStorage) MIMEType(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		if mimeType := mime.TypeByExtension(ext); mimeType != "" {
			return mimeType
		}
	}

	file, err := s.fs.Open(path)
	if err != nil {
		return mimeTypeUnknown
	}
	defer file.Close()

	buffer := make([]byte, mimeTypeCheckPartSize)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return mimeTypeUnknown
	}

	return http.DetectContentType(buffer[:n])
}
