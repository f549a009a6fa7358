package info

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/mediagrab/mediagrab/internal/common"
	"github.com/mediagrab/mediagrab/internal/entity"
)

const (
	serviceName = "info"

	vcodecNone = "none"
	defaultExt = "mp4"

	audioOnlyQuality  = "Audio Only"
	audioOnlyFormatID = "bestaudio"
	audioOnlyExt      = "mp3"
)

type ExtractionClient interface {
	FetchInfo(ctx context.Context, rawURL string) (*entity.VideoDetails, error)
}

type infoService struct {
	client ExtractionClient
	log    *slog.Logger
}

func NewInfoService(client ExtractionClient, log *slog.Logger) *infoService {
	return &infoService{
		client: client,
		log:    log.With(slog.String("service", serviceName)),
	}
}

// Fetch extracts metadata and shapes the format list: video formats only,
// one entry per height, plus a synthetic audio-only option, sorted by
// quality descending with audio ranked lowest.
func (s *infoService) Fetch(ctx context.Context, rawURL string) (*entity.VideoInfo, error) {
	if rawURL == "" {
		return nil, common.ErrURLRequiredError
	}

	details, err := s.client.FetchInfo(ctx, rawURL)
	if err != nil {
		s.log.Error("Cannot fetch info", slog.String("url", rawURL), slog.Any("error", err))

		return nil, fmt.Errorf("cannot fetch info for %s: %w", rawURL, err)
	}

	info := &entity.VideoInfo{
		Title:     details.Title,
		Duration:  details.Duration,
		Uploader:  details.Uploader,
		Thumbnail: details.Thumbnail,
		Formats:   make([]entity.FormatOption, 0, len(details.Formats)+1),
	}

	seenHeights := make(map[int]struct{})
	for _, f := range details.Formats {
		if f.VCodec == vcodecNone || f.Height <= 0 {
			continue
		}

		if _, exists := seenHeights[f.Height]; exists {
			continue
		}
		seenHeights[f.Height] = struct{}{}

		ext := f.Ext
		if ext == "" {
			ext = defaultExt
		}

		info.Formats = append(info.Formats, entity.FormatOption{
			Quality:  fmt.Sprintf("%dp", f.Height),
			FormatID: f.FormatID,
			Ext:      ext,
			Filesize: f.Filesize,
		})
	}

	info.Formats = append(info.Formats, entity.FormatOption{
		Quality:  audioOnlyQuality,
		FormatID: audioOnlyFormatID,
		Ext:      audioOnlyExt,
		Filesize: 0,
	})

	sort.SliceStable(info.Formats, func(i, j int) bool {
		return qualityRank(info.Formats[i].Quality) > qualityRank(info.Formats[j].Quality)
	})

	return info, nil
}

// qualityRank orders "1080p"-style labels numerically, audio only sorts as 0.
func qualityRank(quality string) int {
	if quality == audioOnlyQuality {
		return 0
	}

	height, err := strconv.Atoi(strings.TrimSuffix(quality, "p"))
	if err != nil {
		return 0
	}

	return height
}
