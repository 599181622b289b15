package feed

import (
	"time"
)

// Source is one configured feed. Its identity is RSSURL.
type Source struct {
	Name           string   `yaml:"name" json:"name"`
	URL            string   `yaml:"url" json:"url"`
	RSSURL         string   `yaml:"rss_url" json:"rss_url"`
	ExtractContent bool     `yaml:"extract_content" json:"extract_content,omitempty"`
	Filters        []Filter `yaml:"filters" json:"filters,omitempty"`
}

type Filter struct {
	Field    string   `yaml:"field" json:"field"`
	Includes []string `yaml:"includes" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes" json:"excludes,omitempty"`
}

// Item is a feed entry normalized from RSS or Atom. Two items with the same
// ID are the same logical item across fetches.
type Item struct {
	ID        string
	Title     string
	Link      string
	Content   string
	Published time.Time // feed date, or parse time when the feed has none
	Embed     string
	Source    *Source
}
