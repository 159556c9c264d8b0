package refresh

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"linkshelf/internal/domain"
	"linkshelf/internal/service"
	"linkshelf/internal/viewstate"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bookmark), args.Error(1)
}

type listResult struct {
	bookmarks []domain.Bookmark
	err       error
}

// gatedLister blocks every call until the test sends its result on the
// channel published through calls.
type gatedLister struct {
	calls chan chan listResult
}

func newGatedLister() *gatedLister {
	return &gatedLister{calls: make(chan chan listResult)}
}

func (g *gatedLister) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	reply := make(chan listResult)
	g.calls <- reply
	r := <-reply
	return r.bookmarks, r.err
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	bookmarkA = domain.Bookmark{URL: "https://a.com", Title: "A"}
	bookmarkB = domain.Bookmark{URL: "https://b.com", Title: "B"}
)

func TestOrchestrator_RefreshSuccess(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListBookmarks", mock.Anything).Return([]domain.Bookmark{bookmarkA}, nil).Once()

	store := viewstate.NewStore(discardLogger())
	o := NewOrchestrator(lister, store, discardLogger())

	require.NoError(t, o.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, []domain.Bookmark{bookmarkA}, snap.Bookmarks)
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	assert.Equal(t, uint64(1), snap.Epoch)
	lister.AssertExpectations(t)
}

func TestOrchestrator_RefreshFailureKeepsBookmarks(t *testing.T) {
	failure := &service.Error{Kind: service.KindUnreachable, Op: "list bookmarks", Err: errors.New("status 500")}

	lister := new(MockLister)
	lister.On("ListBookmarks", mock.Anything).Return([]domain.Bookmark{bookmarkA}, nil).Once()
	lister.On("ListBookmarks", mock.Anything).Return(nil, failure).Once()

	store := viewstate.NewStore(discardLogger())
	o := NewOrchestrator(lister, store, discardLogger())

	require.NoError(t, o.Refresh(context.Background()))

	err := o.Refresh(context.Background())
	assert.ErrorIs(t, err, service.ErrUnreachable)

	snap := store.Snapshot()
	assert.Equal(t, []domain.Bookmark{bookmarkA}, snap.Bookmarks, "A failed refresh never clears the list")
	assert.ErrorIs(t, snap.Err, service.ErrUnreachable)
	assert.False(t, snap.Loading)
	lister.AssertNumberOfCalls(t, "ListBookmarks", 2)
}

func TestOrchestrator_LatestWins(t *testing.T) {
	lister := newGatedLister()
	store := viewstate.NewStore(discardLogger())
	o := NewOrchestrator(lister, store, discardLogger())

	firstDone := make(chan error, 1)
	go func() { firstDone <- o.Refresh(context.Background()) }()
	firstReply := <-lister.calls
	require.Equal(t, uint64(1), store.Epoch())

	secondDone := make(chan error, 1)
	go func() { secondDone <- o.Refresh(context.Background()) }()
	secondReply := <-lister.calls
	require.Equal(t, uint64(2), store.Epoch())

	// Second resolves first, then the first arrives late.
	secondReply <- listResult{bookmarks: []domain.Bookmark{bookmarkB}}
	require.NoError(t, <-secondDone)

	firstReply <- listResult{bookmarks: []domain.Bookmark{bookmarkA}}
	require.NoError(t, <-firstDone)

	snap := store.Snapshot()
	assert.Equal(t, []domain.Bookmark{bookmarkB}, snap.Bookmarks)
	assert.False(t, snap.Loading)
}

func TestOrchestrator_SupersededFailureIsSilent(t *testing.T) {
	lister := newGatedLister()
	store := viewstate.NewStore(discardLogger())
	o := NewOrchestrator(lister, store, discardLogger())

	firstDone := make(chan error, 1)
	go func() { firstDone <- o.Refresh(context.Background()) }()
	firstReply := <-lister.calls

	secondDone := make(chan error, 1)
	go func() { secondDone <- o.Refresh(context.Background()) }()
	secondReply := <-lister.calls

	firstReply <- listResult{err: errors.New("connection reset")}
	assert.NoError(t, <-firstDone)
	assert.True(t, store.Snapshot().Loading, "Second refresh is still pending")

	secondReply <- listResult{bookmarks: []domain.Bookmark{bookmarkA}}
	require.NoError(t, <-secondDone)

	snap := store.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, []domain.Bookmark{bookmarkA}, snap.Bookmarks)
}
