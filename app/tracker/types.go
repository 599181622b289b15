package tracker

// Issue is a GitHub issue as returned by the issues endpoints. Pull requests
// are listed there too and carry a non-nil PullRequest.
type Issue struct {
	Number      int               `json:"number"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	HTMLURL     string            `json:"html_url"`
	PullRequest *PullRequestLinks `json:"pull_request,omitempty"`
}

type PullRequestLinks struct {
	URL string `json:"url"`
}

// Ticket is the read-only view of an existing issue used for deduplication.
type Ticket struct {
	Title         string
	Body          string
	IsPullRequest bool
}

func (issue Issue) Ticket() Ticket {
	return Ticket{
		Title:         issue.Title,
		Body:          issue.Body,
		IsPullRequest: issue.PullRequest != nil,
	}
}
