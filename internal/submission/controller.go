package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"linkshelf/internal/domain"
)

var (
	// ErrInvalidTransition is returned when Dismiss is called with no finished submission.
	ErrInvalidTransition = errors.New("invalid submission state transition")
	// ErrRejected is the failure reason when the service declined the bookmark.
	ErrRejected = errors.New("bookmark rejected by service")
)

// Saver is the part of the bookmark service the controller needs.
type Saver interface {
	SaveBookmark(ctx context.Context, url string) (domain.SaveOutcome, error)
}

// Refresher is notified once after every accepted submission.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Controller runs at most one save at a time.
//
//	idle --Submit--> pending --accepted--> succeeded --Dismiss--> idle
//	                 pending --rejected/error--> failed --Dismiss--> idle
type Controller struct {
	saver     Saver
	refresher Refresher
	log       logrus.FieldLogger

	mu    sync.Mutex
	state State
}

// NewController creates an idle controller. refresher may be nil.
func NewController(saver Saver, refresher Refresher, logger logrus.FieldLogger) *Controller {
	return &Controller{
		saver:     saver,
		refresher: refresher,
		log:       logger.WithField("component", "submission"),
		state:     idle(),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit saves url and blocks until the service answers.
// It is ignored, returning false, when url is blank or another submission is
// pending. Otherwise it returns the state this submission finished in and true.
// A finished earlier submission is reset before the new one starts.
func (c *Controller) Submit(ctx context.Context, url string) (State, bool) {
	url = strings.TrimSpace(url)
	log := c.log.WithField("url", url)

	if url == "" {
		log.Debug("Ignoring empty submission")
		return c.State(), false
	}

	c.mu.Lock()
	if c.state.Phase == PhasePending {
		current := c.state
		c.mu.Unlock()
		log.WithField("pending_url", current.URL).Info("Submission already pending, ignoring")
		return current, false
	}
	c.state = pending(url)
	c.mu.Unlock()

	log.Info("Submitting bookmark")
	outcome, err := c.saver.SaveBookmark(ctx, url)

	var final State
	switch {
	case err != nil:
		log.WithError(err).Warn("Bookmark submission failed")
		final = failed(url, err)
	case !outcome.IsAccepted():
		reason := ErrRejected
		if outcome.Reason != "" {
			reason = fmt.Errorf("%w: %s", ErrRejected, outcome.Reason)
		}
		log.WithError(reason).WithField("outcome", outcome.Outcome.String()).Warn("Bookmark rejected")
		final = failed(url, reason)
	default:
		log.Info("Bookmark accepted")
		final = succeeded(url)
	}

	c.mu.Lock()
	c.state = final
	c.mu.Unlock()

	if final.Phase == PhaseSucceeded && c.refresher != nil {
		// The refresh records its own failure in the view state.
		if err := c.refresher.Refresh(ctx); err != nil {
			log.WithError(err).Debug("Refresh after submission failed")
		}
	}
	return final, true
}

// Dismiss acknowledges a finished submission and returns to idle.
// Calling it while idle or pending is a caller bug and returns ErrInvalidTransition.
func (c *Controller) Dismiss() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Finished() {
		c.log.WithFields(logrus.Fields{
			"url":   c.state.URL,
			"phase": c.state.Phase.String(),
		}).Debug("Submission dismissed")
		c.state = idle()
		return nil
	}

	err := fmt.Errorf("%w: dismiss while %s", ErrInvalidTransition, c.state.Phase)
	c.log.WithError(err).Error("Dismiss called without a finished submission")
	return err
}
