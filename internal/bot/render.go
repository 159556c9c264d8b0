package bot

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"linkshelf/internal/domain"
	"linkshelf/internal/service"
	"linkshelf/internal/submission"
	"linkshelf/internal/viewstate"
)

// maxMessageLen stays under Telegram's 4096 character limit for one message.
const maxMessageLen = 4000

const (
	welcomeText = "Welcome to linkshelf! Send me a website link and I'll save it as a bookmark.\n\n" +
		"/list shows your saved bookmarks, /reload fetches them again."
	emptyGalleryText = "No bookmarks saved yet."
	pendingText      = "⏳ Still saving your previous link, please wait."
)

// noticeText is the dismissible message shown when a submission finishes.
func noticeText(state submission.State) string {
	switch state.Phase {
	case submission.PhaseSucceeded:
		return "✅ Bookmark added successfully!"
	case submission.PhaseFailed:
		return "❌ Sorry, something went wrong. " + html.EscapeString(failureDetail(state.Reason))
	default:
		return ""
	}
}

func failureDetail(err error) string {
	switch {
	case errors.Is(err, submission.ErrRejected):
		detail := strings.TrimPrefix(err.Error(), submission.ErrRejected.Error())
		detail = strings.TrimPrefix(detail, ": ")
		if detail == "" {
			return "The service refused this link."
		}
		return "The service refused this link: " + detail
	case errors.Is(err, service.ErrUnreachable):
		return "The bookmark service could not be reached."
	case errors.Is(err, service.ErrDecode):
		return "The bookmark service sent an unexpected reply."
	default:
		return "Please try again."
	}
}

// renderGallery renders the view state as one or more HTML messages.
// A refresh failure becomes a banner above the last good list.
func renderGallery(state viewstate.ViewState) []string {
	var header strings.Builder
	if state.Err != nil {
		header.WriteString("⚠️ <i>Could not refresh bookmarks (")
		header.WriteString(html.EscapeString(bannerReason(state.Err)))
		header.WriteString("). Showing the last loaded list.</i>\n\n")
	}
	if state.Loading {
		header.WriteString("<i>Refreshing…</i>\n\n")
	}
	fmt.Fprintf(&header, "<b>Stored Bookmarks</b> (%d)\n", len(state.Bookmarks))

	if len(state.Bookmarks) == 0 {
		header.WriteString("\n" + emptyGalleryText)
		return []string{header.String()}
	}

	var pages []string
	page := header.String()
	for _, b := range state.Bookmarks {
		entry := "\n" + renderBookmark(b)
		if len(page)+len(entry) > maxMessageLen && page != "" {
			pages = append(pages, page)
			page = ""
			entry = strings.TrimPrefix(entry, "\n")
		}
		page += entry
	}
	return append(pages, page)
}

func renderBookmark(b domain.Bookmark) string {
	var sb strings.Builder

	title := b.Title
	if title == "" {
		title = b.URL
	}
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(title))
	if b.Description != "" {
		fmt.Fprintf(&sb, "%s\n", html.EscapeString(b.Description))
	}
	if b.GeneratedBy != "" {
		fmt.Fprintf(&sb, "Saved by: %s\n", html.EscapeString(b.GeneratedBy))
	}

	links := []string{link(b.URL, "Visit Website")}
	if b.ArchiveURL != "" {
		links = append(links, link(b.ArchiveURL, "Wayback Machine"))
	}
	if b.ScreenshotURL != "" {
		links = append(links, link(b.ScreenshotURL, "Screenshot"))
	}
	sb.WriteString(strings.Join(links, " · "))
	sb.WriteString("\n")
	return sb.String()
}

func link(href, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), label)
}

func bannerReason(err error) string {
	switch {
	case errors.Is(err, service.ErrUnreachable):
		return "service unreachable"
	case errors.Is(err, service.ErrDecode):
		return "unexpected reply"
	default:
		return err.Error()
	}
}
