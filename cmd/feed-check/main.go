package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/lysyi3m/rss-issues/app/cfg"
	"github.com/lysyi3m/rss-issues/app/feed"
)

type options struct {
	SourcesFile  string `long:"sources" env:"SOURCES" default:"./sources.json" description:"Path to the sources file"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"RSS Issues/1.0" description:"User agent string for feed requests"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed request timeout in seconds"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

type firstItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"published"`
	Embed     string    `json:"embed,omitempty"`
	Content   string    `json:"content"`
}

// feed-check fetches every configured source and prints its first item.
func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	sources, err := feed.LoadSources(opts.SourcesFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	c := &cfg.Cfg{UserAgent: opts.UserAgent, FetchTimeout: opts.FetchTimeout}
	fetcher := feed.NewFetcher(c, &http.Client{}, feed.NewParser(), feed.NewFilterer(), feed.NewContentExtractor())

	failed := 0
	for _, source := range sources {
		fmt.Printf("==> %s (%s)\n", source.Name, source.RSSURL)

		items, err := fetcher.Get(context.Background(), source)
		if err != nil {
			fmt.Printf("error: %v\n\n", err)
			failed++
			continue
		}
		if len(items) == 0 {
			fmt.Print("no items\n\n")
			continue
		}

		item := items[0]
		encoded, err := json.MarshalIndent(firstItem{
			ID:        item.ID,
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
			Embed:     item.Embed,
			Content:   item.Content,
		}, "", "  ")
		if err != nil {
			fmt.Printf("error: %v\n\n", err)
			failed++
			continue
		}
		fmt.Printf("%s\n\n", encoded)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
