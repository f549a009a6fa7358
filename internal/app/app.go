package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/mediagrab/mediagrab/internal/adapter/page"
	"github.com/mediagrab/mediagrab/internal/adapter/ytdlp"
	"github.com/mediagrab/mediagrab/internal/config"
	httphandler "github.com/mediagrab/mediagrab/internal/handler/http"
	"github.com/mediagrab/mediagrab/internal/repository/job"
	srvdownload "github.com/mediagrab/mediagrab/internal/service/download"
	"github.com/mediagrab/mediagrab/internal/service/info"
	"github.com/mediagrab/mediagrab/internal/service/platform"
	"github.com/mediagrab/mediagrab/internal/storage/media"
	"github.com/mediagrab/mediagrab/internal/worker"
)

const (
	shutdownTimeout = 5 * time.Second
	drainTimeout    = 30 * time.Second
	installTimeout  = 2 * time.Minute
)

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	pool    *worker.Pool
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
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
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	if a.cfg.Downloader.AutoInstall {
		ctx, cancel := context.WithTimeout(context.Background(), installTimeout)
		defer cancel()

		log.Info("Ensure yt-dlp binary")

		if err := ytdlp.Install(ctx); err != nil {
			panic(err)
		}
	}

	store, err := media.NewMediaStorage(a.cfg.StorageConfig(), log)
	if err != nil {
		panic(err)
	}

	jrepo := job.NewJobRepository(log)
	a.pool = worker.NewPool(a.cfg.Downloader.MaxParallel, log)
	client := ytdlp.NewClient(a.cfg.DownloaderConfig(), log)

	dSrv := srvdownload.NewDownloadService(jrepo, client, store, a.pool, log)
	iSrv := info.NewInfoService(client, log)
	pSrv := platform.NewPlatformService(log)
	landing := page.NewPageAdapter(log)

	mux := http.NewServeMux()
	mux.Handle("POST /info", httphandler.NewInfoHandler(iSrv, log))
	mux.Handle("POST /download", httphandler.NewDownloadHandler(dSrv, log))
	mux.Handle("GET /status/{id}", httphandler.NewStatusHandler(dSrv, log))
	mux.Handle("GET /download-file/{id}", httphandler.NewFileHandler(dSrv, store, log))
	mux.Handle("GET /supported-sites", httphandler.NewSitesHandler(pSrv, log))
	mux.Handle("POST /detect-platform", httphandler.NewDetectPlatformHandler(pSrv, log))
	mux.Handle("GET /health", httphandler.NewHealthHandler(a.pool, jrepo, log))
	mux.Handle("GET /{$}", httphandler.NewPageHandler(landing, log))

	a.srv = &http.Server{
		Addr:    a.cfg.Listen,
		Handler: httphandler.CORS(httphandler.RateLimit(a.cfg.HandlerConfig(), mux)),
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)

	// Give running downloads a chance to finish, they are never cancelled.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), drainTimeout)
	defer drainCancel()

	if err := a.pool.Wait(drainCtx); err != nil {
		a.log.Warn("Shutdown with downloads still running", slog.Int64("active", a.pool.Active()))
	}
}
