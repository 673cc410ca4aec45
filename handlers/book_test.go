package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/models"
	"librarydesk/store"
)

type fakeBookStore struct {
	lastFilter models.CatalogFilter
	page       *models.CatalogPage
	book       *models.Book
	createErr  error
}

func (f *fakeBookStore) SearchBooks(_ context.Context, filter models.CatalogFilter) (*models.CatalogPage, error) {
	f.lastFilter = filter
	if f.page == nil {
		return &models.CatalogPage{Books: []models.Book{}, Page: 1, PageSize: 20}, nil
	}
	return f.page, nil
}

func (f *fakeBookStore) GetBookByID(_ context.Context, _ int64) (*models.Book, error) {
	if f.book == nil {
		return nil, store.ErrBookNotFound
	}
	return f.book, nil
}

func (f *fakeBookStore) CreateBook(_ context.Context, book *models.Book) error {
	if f.createErr != nil {
		return f.createErr
	}
	book.ID = 1
	f.book = book
	return nil
}

func (f *fakeBookStore) UpdateBook(_ context.Context, book *models.Book) error { return nil }
func (f *fakeBookStore) DeleteBook(_ context.Context, _ int64) error           { return nil }
func (f *fakeBookStore) AddCopies(_ context.Context, _ int64, _ int) error     { return nil }

func TestGetBooksParsesFilters(t *testing.T) {
	st := &fakeBookStore{}
	h := NewBookHandler(st)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet,
		"/api/books?search=dune&author=herbert&isbn=9780441013593&available=true&ordering=-published_date&page=2&page_size=10", nil)
	h.GetBooks(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CatalogFilter{
		Search:        "dune",
		Author:        "herbert",
		ISBN:          "9780441013593",
		AvailableOnly: true,
		Ordering:      "-published_date",
		Page:          2,
		PageSize:      10,
	}, st.lastFilter)
}

func TestGetBooksDefaults(t *testing.T) {
	st := &fakeBookStore{}
	h := NewBookHandler(st)

	w := httptest.NewRecorder()
	h.GetBooks(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, st.lastFilter.AvailableOnly)
	assert.Empty(t, st.lastFilter.Search)
}

func TestCreateBookValidation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"missing title", `{"author":"a","isbn":"1","published_date":"2000-01-01"}`},
		{"negative copies", `{"title":"t","author":"a","isbn":"1","published_date":"2000-01-01","copies_available":-1}`},
		{"bad date", `{"title":"t","author":"a","isbn":"1","published_date":"01/01/2000"}`},
		{"future date", `{"title":"t","author":"a","isbn":"1","published_date":"2999-01-01"}`},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBookHandler(&fakeBookStore{})
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(tt.body))
			h.CreateBook(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateBookOK(t *testing.T) {
	h := NewBookHandler(&fakeBookStore{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/books",
		strings.NewReader(`{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","published_date":"1965-08-01","copies_available":3}`))
	h.CreateBook(w, r)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateBookDuplicateISBN(t *testing.T) {
	h := NewBookHandler(&fakeBookStore{createErr: store.ErrISBNExists})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/books",
		strings.NewReader(`{"title":"Dune","author":"Frank Herbert","isbn":"9780441013593","published_date":"1965-08-01"}`))
	h.CreateBook(w, r)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetBookNotFound(t *testing.T) {
	h := NewBookHandler(&fakeBookStore{})
	r := httptest.NewRequest(http.MethodGet, "/api/books/9", nil)
	r.SetPathValue("id", "9")
	w := httptest.NewRecorder()
	h.GetBook(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
