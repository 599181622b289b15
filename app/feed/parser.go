package feed

import (
	"log/slog"
	"time"
)

type Parser struct {
	now func() time.Time
}

func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// Run parses an RSS or Atom document into items carrying source. Item order
// follows the document. A document without entries yields an empty slice.
func (p *Parser) Run(data []byte, source *Source) ([]Item, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}

	parsed := entries(doc)
	if len(parsed) == 0 {
		slog.Warn("No items found", "source", source.Name, "rss_url", source.RSSURL)
		return []Item{}, nil
	}

	now := p.now()
	items := make([]Item, 0, len(parsed))
	for _, e := range parsed {
		items = append(items, p.normalizeItem(e, source, now))
	}

	slog.Debug("Feed parsed", "source", source.Name, "items", len(items))
	return items, nil
}

func (p *Parser) normalizeItem(e entry, source *Source, now time.Time) Item {
	link := resolveLink(e)

	return Item{
		ID:        resolveID(e),
		Title:     e.title,
		Link:      link,
		Content:   resolveContent(e),
		Published: resolvePublished(e, now),
		Embed:     resolveEmbed(e.videoID, link),
		Source:    source,
	}
}
