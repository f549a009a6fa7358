package platform

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mediagrab/mediagrab/internal/common"
	"github.com/mediagrab/mediagrab/internal/entity"
)

const (
	serviceName = "platform"

	unknownPlatform = "Unknown"
	wwwPrefix       = "www."
)

// sites is the static catalog, ordered the way it is served.
var sites = []entity.Site{
	{Name: "YouTube", Icon: "youtube", Domains: []string{"youtube.com", "youtu.be"}},
	{Name: "TikTok", Icon: "tiktok", Domains: []string{"tiktok.com"}},
	{Name: "Instagram", Icon: "instagram", Domains: []string{"instagram.com"}},
	{Name: "Facebook", Icon: "facebook", Domains: []string{"facebook.com", "fb.watch"}},
	{Name: "Twitter/X", Icon: "twitter", Domains: []string{"twitter.com", "x.com"}},
	{Name: "Vimeo", Icon: "vimeo", Domains: []string{"vimeo.com"}},
	{Name: "Dailymotion", Icon: "dailymotion", Domains: []string{"dailymotion.com"}},
	{Name: "Reddit", Icon: "reddit", Domains: []string{"reddit.com"}},
	{Name: "Twitch", Icon: "twitch", Domains: []string{"twitch.tv"}},
	{Name: "LinkedIn", Icon: "linkedin", Domains: []string{"linkedin.com"}},
}

type platformService struct {
	byDomain map[string]string
	log      *slog.Logger
}

func NewPlatformService(log *slog.Logger) *platformService {
	byDomain := make(map[string]string)
	for _, site := range sites {
		for _, domain := range site.Domains {
			byDomain[domain] = site.Name
		}
	}

	return &platformService{
		byDomain: byDomain,
		log:      log.With(slog.String("service", serviceName)),
	}
}

func (s *platformService) Sites() []entity.Site {
	return sites
}

// Detect matches the URL host against the catalog. The host is lowercased
// and a leading www. is stripped before the lookup.
func (s *platformService) Detect(rawURL string) (*entity.PlatformInfo, error) {
	if rawURL == "" {
		return nil, common.ErrURLRequiredError
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse url: %w", err)
	}

	domain := strings.ToLower(u.Host)
	domain = strings.TrimPrefix(domain, wwwPrefix)

	platform, exists := s.byDomain[domain]
	if !exists {
		platform = unknownPlatform
	}

	return &entity.PlatformInfo{
		Platform:  platform,
		Domain:    domain,
		Supported: platform != unknownPlatform,
	}, nil
}
