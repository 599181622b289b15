package cfg

import (
	"strings"
	"time"
)

type Cfg struct {
	// Pipeline inputs
	SourcesFile string
	Repository  string
	Token       string
	APIURL      string
	DryRun      bool

	// Feed fetching
	UserAgent    string
	FetchTimeout int // seconds

	// Issue creation pacing unit
	CreateDelay int // seconds

	// Daemon mode
	Interval     int // seconds, 0 runs once
	Port         string
	APIAccessKey string
	DBPath       string

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

func (c *Cfg) Owner() string {
	owner, _, _ := strings.Cut(c.Repository, "/")
	return owner
}

func (c *Cfg) Repo() string {
	_, repo, _ := strings.Cut(c.Repository, "/")
	return repo
}

func (c *Cfg) GetFetchTimeout() time.Duration {
	if c.FetchTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeout) * time.Second
}

func (c *Cfg) GetCreateDelay() time.Duration {
	if c.CreateDelay < 0 {
		return 0
	}
	return time.Duration(c.CreateDelay) * time.Second
}

func (c *Cfg) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

func (c *Cfg) IsDaemon() bool {
	return c.Interval > 0
}
