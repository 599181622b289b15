package issues

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/rss-issues/app/feed"
	"github.com/lysyi3m/rss-issues/app/tracker"
)

// publishedLayout matches the en-GB "DD/MM/YYYY, HH:MM:SS" form, in UTC.
const publishedLayout = "02/01/2006, 15:04:05"

// Marker is the hidden token that ties an issue body to an item ID.
func Marker(id string) string {
	return fmt.Sprintf("<!-- %s -->", id)
}

// FormatBody renders the issue body: the ID marker, a metadata table, then
// the embed and the content.
func FormatBody(item feed.Item) string {
	var sourceName, sourceURL string
	if item.Source != nil {
		sourceName = item.Source.Name
		sourceURL = item.Source.URL
	}

	lines := []string{
		Marker(item.ID),
		fmt.Sprintf("| [%s](%s) | [original](%s) | %s |", sourceName, sourceURL, item.Link, item.Published.UTC().Format(publishedLayout)),
		"| --- | --- | --- |",
		"",
	}
	if item.Embed != "" {
		lines = append(lines, item.Embed, "")
	}
	lines = append(lines, item.Content)

	return strings.Join(lines, "\n")
}

func newIssueRequest(item feed.Item) tracker.CreateIssueRequest {
	request := tracker.CreateIssueRequest{
		Title: item.Title,
		Body:  FormatBody(item),
	}
	if item.Source != nil && item.Source.Name != "" {
		request.Labels = []string{item.Source.Name}
	}
	return request
}
