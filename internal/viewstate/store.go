package viewstate

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"linkshelf/internal/domain"
)

// ViewState is everything the gallery view renders.
type ViewState struct {
	Bookmarks []domain.Bookmark
	Loading   bool
	// Err is the failure of the latest refresh, nil once a refresh succeeds.
	Err error
	// Epoch identifies the most recently started refresh.
	Epoch uint64
	// UpdatedAt is when Bookmarks was last replaced; zero before the first success.
	UpdatedAt time.Time
}

// Store owns the ViewState. BeginLoad and ApplyResult are the only mutators.
type Store struct {
	mu    sync.Mutex
	state ViewState
	now   func() time.Time
	log   logrus.FieldLogger
}

// NewStore creates an empty store.
func NewStore(logger logrus.FieldLogger) *Store {
	return &Store{
		state: ViewState{Bookmarks: []domain.Bookmark{}},
		now:   time.Now,
		log:   logger.WithField("component", "view_state"),
	}
}

// BeginLoad starts a refresh attempt and returns its epoch.
// It must be called exactly once per attempt, before the list request is sent.
func (s *Store) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Epoch++
	s.state.Loading = true
	s.state.Err = nil
	return s.state.Epoch
}

// ApplyResult records the outcome of the refresh started at epoch.
// Results for any epoch but the current one are discarded and false is returned.
// On success the bookmark list is replaced wholesale; on failure the previous
// list is kept and err is recorded.
func (s *Store) ApplyResult(epoch uint64, bookmarks []domain.Bookmark, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.state.Epoch {
		s.log.WithFields(logrus.Fields{
			"epoch":         epoch,
			"current_epoch": s.state.Epoch,
		}).Debug("Discarding stale refresh result")
		return false
	}

	s.state.Loading = false
	if err != nil {
		s.state.Err = err
		return true
	}

	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	s.state.Bookmarks = bookmarks
	s.state.Err = nil
	s.state.UpdatedAt = s.now()
	return true
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.state
	snap.Bookmarks = make([]domain.Bookmark, len(s.state.Bookmarks))
	copy(snap.Bookmarks, s.state.Bookmarks)
	return snap
}

// Epoch returns the current epoch.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Epoch
}
