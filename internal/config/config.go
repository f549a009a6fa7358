package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	defaultListen             = ":8080"
	defaultDownloadSubdir     = "mediagrab"
	defaultProgressIntervalMS = 500
	defaultRateLimitRPS       = 10
	defaultRateLimitBurst     = 20

	envListen      = "MEDIAGRAB_LISTEN"
	envDownloadDir = "MEDIAGRAB_DOWNLOAD_DIR"
	envLogLevel    = "MEDIAGRAB_LOG_LEVEL"
	envAutoInstall = "MEDIAGRAB_AUTO_INSTALL"
)

type DownloaderConfig struct {
	AutoInstall        bool `yaml:"auto_install"`
	ProgressIntervalMS int  `yaml:"progress_interval_ms"`
	MaxParallel        int  `yaml:"max_parallel"`
}

func (c *DownloaderConfig) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

type HandlerConfig struct {
	RateLimitEnabled bool    `yaml:"rate_limit_enabled"`
	RateLimitRPS     float64 `yaml:"rate_limit_rps"`
	RateLimitBurst   int     `yaml:"rate_limit_burst"`
}

type StorageConfig struct {
	DownloadDir string `yaml:"download_dir"`
}

type Config struct {
	Listen     string           `yaml:"listen"`
	LogLevel   string           `yaml:"log_level"`
	Storage    StorageConfig    `yaml:"storage"`
	Downloader DownloaderConfig `yaml:"downloader"`
	Handler    HandlerConfig    `yaml:"handler"`
}

func (c *Config) SetDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}

	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}

	if c.Storage.DownloadDir == "" {
		c.Storage.DownloadDir = filepath.Join(os.TempDir(), defaultDownloadSubdir)
	}

	if c.Downloader.ProgressIntervalMS <= 0 {
		c.Downloader.ProgressIntervalMS = defaultProgressIntervalMS
	}

	if c.Handler.RateLimitRPS <= 0 {
		c.Handler.RateLimitRPS = defaultRateLimitRPS
	}

	if c.Handler.RateLimitBurst <= 0 {
		c.Handler.RateLimitBurst = defaultRateLimitBurst
	}
}

func (c *Config) DownloaderConfig() *DownloaderConfig {
	return &c.Downloader
}

func (c *Config) HandlerConfig() *HandlerConfig {
	return &c.Handler
}

func (c *Config) StorageConfig() *StorageConfig {
	return &c.Storage
}

// MustLoad reads the yaml config file and applies environment overrides.
// A missing file is not an error, the defaults cover a bare start.
func MustLoad(path string) *Config {
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			panic(fmt.Errorf("cannot read config file %s: %w", path, err))
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Errorf("cannot parse config file %s: %w", path, err))
		}
	}

	if listen := os.Getenv(envListen); listen != "" {
		cfg.Listen = listen
	}

	if dir := os.Getenv(envDownloadDir); dir != "" {
		cfg.Storage.DownloadDir = dir
	}

	if level := os.Getenv(envLogLevel); level != "" {
		cfg.LogLevel = level
	}

	if install := os.Getenv(envAutoInstall); install != "" {
		v, err := strconv.ParseBool(install)
		if err != nil {
			panic(fmt.Errorf("cannot parse %s: %w", envAutoInstall, err))
		}
		cfg.Downloader.AutoInstall = v
	}

	cfg.SetDefaults()

	return &cfg
}
