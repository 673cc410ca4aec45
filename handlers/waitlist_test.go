package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/models"
	"librarydesk/store"
)

type fakeWaitlistService struct {
	entry     *models.WaitlistEntry
	joinErr   error
	cancelErr error
}

func (f *fakeWaitlistService) JoinWaitlist(_ context.Context, _ string, _ int64) (*models.WaitlistEntry, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return f.entry, nil
}

func (f *fakeWaitlistService) CancelWaitlist(_ context.Context, _ string, _ int64) error {
	return f.cancelErr
}

type fakeWaitlistReader struct {
	entries []models.WaitlistEntry
}

func (f *fakeWaitlistReader) ListWaitlistByMember(_ context.Context, _ string) ([]models.WaitlistEntry, error) {
	return f.entries, nil
}

type fakeBookGetter struct {
	book *models.Book
}

func (f *fakeBookGetter) GetBookByID(_ context.Context, _ int64) (*models.Book, error) {
	if f.book == nil {
		return nil, store.ErrBookNotFound
	}
	return f.book, nil
}

func TestJoinWaitlistCreated(t *testing.T) {
	svc := &fakeWaitlistService{entry: &models.WaitlistEntry{ID: 5, MemberID: "m1", BookID: 7, JoinedAt: time.Now()}}
	h := NewWaitlistHandler(svc, &fakeWaitlistReader{}, &fakeBookGetter{})

	w := httptest.NewRecorder()
	h.Join(w, authedRequest(http.MethodPost, "/api/waitlist", `{"book_id":7}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var entry models.WaitlistEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	assert.Equal(t, int64(5), entry.ID)
}

func TestJoinWaitlistAdvisoryWhenAvailable(t *testing.T) {
	// copies_available=2 means no entry: a 200 with a warning, not an error.
	svc := &fakeWaitlistService{joinErr: store.ErrBookAvailable}
	books := &fakeBookGetter{book: &models.Book{ID: 7, Title: "Dune", CopiesAvailable: 2}}
	h := NewWaitlistHandler(svc, &fakeWaitlistReader{}, books)

	w := httptest.NewRecorder()
	h.Join(w, authedRequest(http.MethodPost, "/api/waitlist", `{"book_id":7}`))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["warning"], "Dune")
	assert.Empty(t, body["error"])
}

func TestJoinWaitlistAlreadyEnrolled(t *testing.T) {
	svc := &fakeWaitlistService{joinErr: store.ErrAlreadyWaitlisted}
	h := NewWaitlistHandler(svc, &fakeWaitlistReader{}, &fakeBookGetter{})

	w := httptest.NewRecorder()
	h.Join(w, authedRequest(http.MethodPost, "/api/waitlist", `{"book_id":7}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinWaitlistBookNotFound(t *testing.T) {
	svc := &fakeWaitlistService{joinErr: store.ErrBookNotFound}
	h := NewWaitlistHandler(svc, &fakeWaitlistReader{}, &fakeBookGetter{})

	w := httptest.NewRecorder()
	h.Join(w, authedRequest(http.MethodPost, "/api/waitlist", `{"book_id":404}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelWaitlistOK(t *testing.T) {
	h := NewWaitlistHandler(&fakeWaitlistService{}, &fakeWaitlistReader{}, &fakeBookGetter{})

	r := authedRequest(http.MethodDelete, "/api/waitlist/5", "")
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Cancel(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelWaitlistNotOwned(t *testing.T) {
	h := NewWaitlistHandler(&fakeWaitlistService{cancelErr: store.ErrWaitlistNotFound}, &fakeWaitlistReader{}, &fakeBookGetter{})

	r := authedRequest(http.MethodDelete, "/api/waitlist/5", "")
	r.SetPathValue("id", "5")
	w := httptest.NewRecorder()
	h.Cancel(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
