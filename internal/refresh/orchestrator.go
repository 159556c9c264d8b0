package refresh

import (
	"context"

	"github.com/sirupsen/logrus"

	"linkshelf/internal/domain"
	"linkshelf/internal/viewstate"
)

// Lister is the part of the bookmark service the orchestrator needs.
type Lister interface {
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)
}

// Orchestrator reloads the bookmark list into the view state store.
// Refreshes are latest-wins: a refresh started later supersedes every earlier
// one still in flight, and the store drops the superseded results.
type Orchestrator struct {
	lister Lister
	store  *viewstate.Store
	log    logrus.FieldLogger
}

// NewOrchestrator creates an orchestrator writing into store.
func NewOrchestrator(lister Lister, store *viewstate.Store, logger logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		lister: lister,
		store:  store,
		log:    logger.WithField("component", "refresh"),
	}
}

// Refresh fetches the bookmark list and applies it to the store.
// A failed fetch keeps the current list and is recorded in the view state; the
// error is also returned. A superseded refresh returns nil whatever its outcome.
// Failures are not retried.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	epoch := o.store.BeginLoad()
	log := o.log.WithField("epoch", epoch)
	log.Debug("Refreshing bookmarks")

	bookmarks, err := o.lister.ListBookmarks(ctx)
	if !o.store.ApplyResult(epoch, bookmarks, err) {
		log.Info("Refresh superseded by a newer one, result discarded")
		return nil
	}

	if err != nil {
		log.WithError(err).Warn("Failed to refresh bookmarks")
		return err
	}
	log.WithField("bookmark_count", len(bookmarks)).Info("Bookmarks refreshed")
	return nil
}
