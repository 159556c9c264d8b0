package domain

// Bookmark is one saved URL together with the metadata the bookmark service
// extracted for it. Records are never modified after they are received.
type Bookmark struct {
	// URL identifies the bookmark. Uniqueness is left to the service.
	URL string `json:"url"`

	// Title scraped from the page's <title> tag.
	Title string `json:"title"`

	// Description from the page's meta description or og:description.
	Description string `json:"description"`

	// Favicon is an absolute URL to the site's icon.
	Favicon string `json:"favicon"`

	// ScreenshotURL points at a rendered screenshot of the page.
	ScreenshotURL string `json:"screenshot_url"`

	// ArchiveURL points at the Wayback Machine capture, empty if archiving failed.
	ArchiveURL string `json:"archive_url"`

	// GeneratedBy is the display name the service attributed the save to.
	GeneratedBy string `json:"generated_by"`

	// OGThumbnail is the page's og:image, if it declared one.
	OGThumbnail string `json:"og_thumbnail,omitempty"`
}

// Outcome is the service's verdict on a save request.
type Outcome int

const (
	// Accepted means the service stored the bookmark.
	Accepted Outcome = iota
	// Rejected means the service understood the request but declined it.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SaveOutcome is the result of a save request that reached the service.
type SaveOutcome struct {
	Outcome Outcome
	// Reason is the service-supplied explanation for a rejection, if any.
	Reason string
}

// IsAccepted reports whether the bookmark was stored.
func (s SaveOutcome) IsAccepted() bool {
	return s.Outcome == Accepted
}
