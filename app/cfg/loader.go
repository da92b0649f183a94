package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

type rawCfg struct {
	// Network configuration
	Timeout      int     `long:"timeout" env:"SUBSTACK_TIMEOUT" default:"30" description:"HTTP request timeout in seconds"`
	MaxRetries   int     `long:"max-retries" env:"SUBSTACK_MAX_RETRIES" default:"3" description:"Maximum retries for transient HTTP errors"`
	RetryBackoff float64 `long:"retry-backoff" env:"SUBSTACK_RETRY_BACKOFF" default:"1.0" description:"Exponential backoff factor between retries in seconds"`
	RateDelay    float64 `long:"rate-limit-delay" env:"SUBSTACK_RATE_LIMIT_DELAY" default:"1.0" description:"Politeness delay between archive page requests in seconds"`
	UserAgent    string  `long:"user-agent" env:"SUBSTACK_USER_AGENT" description:"User agent string for HTTP requests"`
	PageSize     int     `long:"page-size" env:"SUBSTACK_PAGE_SIZE" default:"12" description:"Number of posts requested per archive API page"`
	WorkerCount  int     `long:"max-workers" env:"SUBSTACK_MAX_WORKERS" default:"5" description:"Number of concurrent content fetch workers"`
	MaxImageSize int64   `long:"max-image-size" env:"SUBSTACK_MAX_IMAGE_SIZE" default:"10485760" description:"Maximum downloaded image size in bytes"`

	// Output configuration
	OutputDir string `long:"output-dir" env:"SUBSTACK_OUTPUT_DIR" default:"output" description:"Directory for compiled artifacts"`

	// Cache configuration
	CacheEnabled bool   `long:"enable-cache" env:"SUBSTACK_ENABLE_CACHE" description:"Enable the persistent post content cache"`
	CacheDir     string `long:"cache-dir" env:"SUBSTACK_CACHE_DIR" default:".cache" description:"Directory for the content cache database"`

	// Run options
	Output     string `long:"output" short:"o" description:"Output filename (default: <Newsletter_Title>.<format>)"`
	Limit      int    `long:"limit" short:"l" default:"0" description:"Limit the number of posts to download (0 = all)"`
	Format     string `long:"format" short:"f" default:"pdf" choice:"pdf" choice:"epub" choice:"json" choice:"html" choice:"txt" choice:"md" description:"Output format"`
	Cookie     string `long:"cookie" env:"SUBSTACK_COOKIE" description:"substack.sid session cookie for paywalled content"`
	Update     bool   `long:"update" short:"u" description:"Append new posts to an existing EPUB instead of creating a new artifact"`
	ClearCache bool   `long:"clear-cache" description:"Clear the content cache and exit"`
	VerifyAuth bool   `long:"verify-auth" description:"Verify the session cookie and exit"`
	Debug      bool   `long:"debug" env:"SUBSTACK_DEBUG" description:"Enable debug logging"`

	Args struct {
		URL string `positional-arg-name:"url" description:"Newsletter URL (e.g. https://example.substack.com)"`
	} `positional-args:"yes"`
}

func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	parser.Usage = "[OPTIONS] url"

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Timeout:      raw.Timeout,
		MaxRetries:   raw.MaxRetries,
		RetryBackoff: raw.RetryBackoff,
		RateDelay:    raw.RateDelay,
		UserAgent:    cmp.Or(raw.UserAgent, defaultUserAgent),
		PageSize:     raw.PageSize,
		WorkerCount:  raw.WorkerCount,
		MaxImageSize: raw.MaxImageSize,
		OutputDir:    raw.OutputDir,
		CacheEnabled: raw.CacheEnabled,
		CacheDir:     raw.CacheDir,
		Debug:        raw.Debug,
		Version:      GetVersion(),
		URL:          raw.Args.URL,
		Format:       raw.Format,
		Output:       raw.Output,
		Limit:        raw.Limit,
		Cookie:       raw.Cookie,
		Update:       raw.Update,
		ClearCache:   raw.ClearCache,
		VerifyAuth:   raw.VerifyAuth,
	}

	if cfg.URL == "" {
		return nil, fmt.Errorf("newsletter URL is required")
	}

	return cfg, nil
}
