package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var validFilterFields = map[string]bool{
	"title":   true,
	"content": true,
	"link":    true,
}

// LoadSources reads the sources file. The file holds a list of sources in
// YAML or JSON (a JSON document is valid YAML).
func LoadSources(path string) ([]*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var sources []*Source
	if err := yaml.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("failed to parse sources file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(sources))
	for i, source := range sources {
		if source == nil {
			return nil, fmt.Errorf("source at index %d is empty", i)
		}
		source.Name = strings.TrimSpace(source.Name)
		source.RSSURL = strings.TrimSpace(source.RSSURL)

		if err := validateSource(source); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if seen[source.RSSURL] {
			return nil, fmt.Errorf("duplicate rss_url at index %d: %s", i, source.RSSURL)
		}
		seen[source.RSSURL] = true

		slog.Debug("Source loaded", "name", source.Name, "rss_url", source.RSSURL, "filters", len(source.Filters))
	}

	return sources, nil
}

func validateSource(source *Source) error {
	if source.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if source.RSSURL == "" {
		return fmt.Errorf("source rss_url is required")
	}

	for i, filter := range source.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
