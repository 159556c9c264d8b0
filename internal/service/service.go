package service

import (
	"context"

	"linkshelf/internal/domain"
)

// Service defines the remote calls the client makes against the bookmark service.
// All errors returned by implementations are *Error values.
type Service interface {
	// ListBookmarks returns every bookmark the service holds, in service order.
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)

	// SaveBookmark asks the service to extract metadata for url and store it.
	// url must be non-empty; callers validate before calling.
	SaveBookmark(ctx context.Context, url string) (domain.SaveOutcome, error)

	// Ping checks that the service answers at all.
	Ping(ctx context.Context) error
}
