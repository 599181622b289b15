package feed

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed/atom"
)

// linkNode is the shape a link takes in the source document: plain text
// (RSS), a single attributed element, or several attributed elements (Atom).
type linkNode interface {
	isLinkNode()
}

type textLink string

type attributedLink struct {
	href string
	rel  string
}

type multiLink []attributedLink

func (textLink) isLinkNode()       {}
func (attributedLink) isLinkNode() {}
func (multiLink) isLinkNode()      {}

func atomLinkNode(links []*atom.Link) linkNode {
	nodes := make(multiLink, 0, len(links))
	for _, link := range links {
		if link != nil {
			nodes = append(nodes, attributedLink{href: link.Href, rel: link.Rel})
		}
	}

	switch len(nodes) {
	case 0:
		return nil
	case 1:
		return nodes[0]
	default:
		return nodes
	}
}

const (
	youtubeWatchURL = "https://www.youtube.com/watch?v=%s"
	youtubeEmbed    = `<iframe src="https://www.youtube-nocookie.com/embed/%s" allow="encrypted-media; picture-in-picture" allowfullscreen></iframe>`
	nitterPrefix    = "https://nitter.net/"
)

func resolveID(e entry) string {
	if id := strings.TrimSpace(e.id); id != "" {
		return id
	}
	return strings.TrimSpace(e.guid)
}

func resolveLink(e entry) string {
	switch node := e.link.(type) {
	case textLink:
		if link := strings.TrimSpace(string(node)); link != "" {
			return link
		}
	case attributedLink:
		if node.href != "" {
			return node.href
		}
	case multiLink:
		for _, link := range node {
			if link.rel == "alternate" && link.href != "" {
				return link.href
			}
		}
	}

	if e.videoID != "" {
		return fmt.Sprintf(youtubeWatchURL, url.QueryEscape(e.videoID))
	}

	return ""
}

func resolveContent(e entry) string {
	for _, candidate := range []string{e.description, e.summary, e.content, e.mediaDescription} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

func resolvePublished(e entry, now time.Time) time.Time {
	if e.pubDateParsed != nil {
		return *e.pubDateParsed
	}
	if published, ok := parseDate(e.pubDate); ok {
		return published
	}
	if published, ok := parseDate(e.created); ok {
		return published
	}
	return now
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// resolveEmbed builds an embeddable fragment from the video id or, failing
// that, from the resolved link.
func resolveEmbed(videoID, link string) string {
	if videoID != "" {
		return fmt.Sprintf(youtubeEmbed, url.PathEscape(videoID))
	}

	if link == "" {
		return ""
	}

	if strings.HasPrefix(link, nitterPrefix) {
		return iframe(strings.Replace(link, "#m", "", 1) + "/embed")
	}

	return iframe(link)
}

func iframe(src string) string {
	return fmt.Sprintf(`<iframe src="%s"></iframe>`, html.EscapeString(src))
}
