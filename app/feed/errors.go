package feed

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is returned when data holds neither an RSS channel nor
// an Atom feed.
var ErrInvalidDocument = errors.New("feed is not valid RSS or Atom")

// FetchError is a failed feed request. StatusCode is set when the server
// answered with anything but 200; otherwise Err holds the transport failure.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsBadStatus reports whether err is a FetchError caused by a non-200 response.
func IsBadStatus(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr) && fetchErr.StatusCode != 0
}

// SourceError attributes a fetch or parse failure to its source.
type SourceError struct {
	Source *Source
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source '%s' (%s): %v", e.Source.Name, e.Source.RSSURL, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
