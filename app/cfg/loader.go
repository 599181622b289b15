package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

const defaultUserAgent = "RSS Issues/1.0"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Pipeline inputs
	SourcesFile string `long:"sources" env:"SOURCES" default:"./sources.json" description:"Path to the sources file (JSON or YAML list of feeds)"`
	Repository  string `long:"repository" env:"REPOSITORY" description:"Repository receiving the issues, as owner/repo" required:"true"`
	Token       string `long:"token" env:"GITHUB_TOKEN" description:"GitHub token used to list and create issues"`
	APIURL      string `long:"api-url" env:"GITHUB_API_URL" default:"https://api.github.com" description:"GitHub API base URL"`
	DryRun      bool   `long:"noop" env:"NOOP" description:"Log the issues that would be created without calling GitHub"`

	// Feed fetching
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Issues/1.0" description:"User agent string for feed requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed request timeout in seconds"`

	// Issue creation
	CreateDelay int `long:"create-delay" env:"CREATE_DELAY" default:"1" description:"Seconds between successive issue creations"`

	// Daemon mode
	Interval     int    `long:"interval" env:"INTERVAL" default:"0" description:"Run every N seconds instead of once"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP status server port (daemon mode)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	DBPath       string `long:"db-path" env:"DB_PATH" description:"SQLite file recording run history (optional)"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses command-line arguments and environment variables. It returns
// nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesFile:  raw.SourcesFile,
		Repository:   raw.Repository,
		Token:        raw.Token,
		APIURL:       raw.APIURL,
		DryRun:       raw.DryRun,
		UserAgent:    cmp.Or(strings.TrimSpace(raw.UserAgent), defaultUserAgent),
		FetchTimeout: raw.FetchTimeout,
		CreateDelay:  raw.CreateDelay,
		Interval:     raw.Interval,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		DBPath:       raw.DBPath,
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

// Validate checks the values that flag parsing cannot.
func (c *Cfg) Validate() error {
	owner, repo, ok := strings.Cut(c.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("repository must be in the owner/repo form, got %q", c.Repository)
	}

	if c.Token == "" && !c.DryRun {
		return fmt.Errorf("token is required unless running with --noop")
	}

	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must be non-negative")
	}
	if c.CreateDelay < 0 {
		return fmt.Errorf("create delay must be non-negative")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
