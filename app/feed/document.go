package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"
	"golang.org/x/net/html/charset"
)

// document is either an RSS channel or an Atom feed, decided once per parse.
type document interface {
	isDocument()
}

type rssDocument struct {
	channel *rss.Feed
}

type atomDocument struct {
	feed    *atom.Feed
	created []string
}

func (rssDocument) isDocument()  {}
func (atomDocument) isDocument() {}

// entry is the format-neutral view of one RSS item or Atom entry, before
// field resolution.
type entry struct {
	id    string
	guid  string
	title string
	link  linkNode

	description      string
	summary          string
	content          string
	mediaDescription string

	pubDate       string
	pubDateParsed *time.Time
	created       string

	videoID string
}

// shape is what a token scan learns about the document root.
type shape struct {
	root            string
	channels        int
	firstChannelEnd int64
}

func decodeDocument(data []byte) (document, error) {
	feedType := gofeed.DetectFeedType(bytes.NewReader(data))
	if feedType != gofeed.FeedTypeRSS && feedType != gofeed.FeedTypeAtom {
		return nil, fmt.Errorf("%w: unrecognized document", ErrInvalidDocument)
	}

	s, err := inspectShape(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	switch {
	case s.root == "rss" && s.channels > 0:
		body := data
		if s.channels > 1 {
			body = firstChannelOnly(data, s.firstChannelEnd)
		}
		channel, err := (&rss.Parser{}).Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return rssDocument{channel: channel}, nil

	case s.root == "feed":
		feed, err := (&atom.Parser{}).Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return atomDocument{feed: feed, created: atomCreatedDates(data)}, nil

	case s.root == "rss":
		return nil, fmt.Errorf("%w: rss document has no channel", ErrInvalidDocument)

	default:
		return nil, fmt.Errorf("%w: unexpected root element <%s>", ErrInvalidDocument, s.root)
	}
}

// inspectShape scans tokens to find the root element and, for RSS, how many
// channels it holds and where the first one ends. The scan runs over an ASCII
// copy of data so that decoder offsets are offsets into data whatever the
// declared encoding.
func inspectShape(data []byte) (shape, error) {
	decoder := xml.NewDecoder(bytes.NewReader(asciiOnly(data)))
	decoder.Strict = false
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	s := shape{firstChannelEnd: -1}
	depth := 0
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			depth++
			name := strings.ToLower(t.Name.Local)
			if depth == 1 {
				s.root = name
				if name != "rss" {
					return s, nil
				}
			} else if depth == 2 && name == "channel" {
				s.channels++
			}
		case xml.EndElement:
			if depth == 2 && s.channels == 1 && s.firstChannelEnd < 0 && strings.EqualFold(t.Name.Local, "channel") {
				s.firstChannelEnd = decoder.InputOffset()
			}
			depth--
		}
	}

	if s.root == "" {
		return s, errors.New("no root element")
	}
	return s, nil
}

// asciiOnly replaces every non-ASCII byte with 'x'. Element names the shape
// scan looks for are ASCII, and byte positions are preserved.
func asciiOnly(data []byte) []byte {
	masked := make([]byte, len(data))
	for i, b := range data {
		if b >= utf8.RuneSelf {
			b = 'x'
		}
		masked[i] = b
	}
	return masked
}

func firstChannelOnly(data []byte, end int64) []byte {
	if end <= 0 || end > int64(len(data)) {
		return data
	}
	cut := int(end)
	trimmed := make([]byte, 0, cut+len("</rss>"))
	trimmed = append(trimmed, data[:cut]...)
	return append(trimmed, "</rss>"...)
}

// atomCreatedDates reads the <created> element of each entry (Atom 0.3),
// which the atom parser skips. Dates line up with parsed entries by position.
func atomCreatedDates(data []byte) []string {
	var doc struct {
		Entries []struct {
			Created string `xml:"created"`
		} `xml:"entry"`
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil
	}

	created := make([]string, len(doc.Entries))
	for i, e := range doc.Entries {
		created[i] = strings.TrimSpace(e.Created)
	}
	return created
}

func entries(doc document) []entry {
	switch d := doc.(type) {
	case rssDocument:
		result := make([]entry, 0, len(d.channel.Items))
		for _, item := range d.channel.Items {
			if item != nil {
				result = append(result, rssEntry(item))
			}
		}
		return result
	case atomDocument:
		result := make([]entry, 0, len(d.feed.Entries))
		for i, e := range d.feed.Entries {
			if e == nil {
				continue
			}
			converted := atomEntry(e)
			if i < len(d.created) {
				converted.created = d.created[i]
			}
			result = append(result, converted)
		}
		return result
	default:
		return nil
	}
}

func rssEntry(item *rss.Item) entry {
	e := entry{
		id:               item.Custom["id"],
		title:            item.Title,
		description:      item.Description,
		summary:          item.Custom["summary"],
		content:          item.Content,
		mediaDescription: mediaGroupDescription(item.Extensions),
		pubDate:          item.PubDate,
		pubDateParsed:    item.PubDateParsed,
		created:          item.Custom["created"],
		videoID:          extensionValue(item.Extensions, "yt", "videoId"),
	}

	if e.content == "" {
		e.content = extensionValue(item.Extensions, "content", "encoded")
	}
	if item.GUID != nil {
		e.guid = item.GUID.Value
	}
	if item.Link != "" {
		e.link = textLink(item.Link)
	}

	return e
}

func atomEntry(item *atom.Entry) entry {
	e := entry{
		id:               item.ID,
		title:            item.Title,
		link:             atomLinkNode(item.Links),
		summary:          item.Summary,
		mediaDescription: mediaGroupDescription(item.Extensions),
		pubDate:          item.Published,
		pubDateParsed:    item.PublishedParsed,
		videoID:          extensionValue(item.Extensions, "yt", "videoId"),
	}

	if item.Content != nil {
		e.content = item.Content.Value
	}

	return e
}

func extensionValue(extensions ext.Extensions, namespace, name string) string {
	values := extensions[namespace][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// mediaGroupDescription reads media:group/media:description.
func mediaGroupDescription(extensions ext.Extensions) string {
	groups := extensions["media"]["group"]
	if len(groups) == 0 {
		return ""
	}
	descriptions := groups[0].Children["description"]
	if len(descriptions) == 0 {
		return ""
	}
	return descriptions[0].Value
}
