package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"librarydesk/models"
	"librarydesk/store"
	"librarydesk/utils"
)

type BookStore interface {
	SearchBooks(ctx context.Context, f models.CatalogFilter) (*models.CatalogPage, error)
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id int64) error
	AddCopies(ctx context.Context, id int64, delta int) error
}

type BookHandler struct {
	store BookStore
}

func NewBookHandler(store BookStore) *BookHandler {
	return &BookHandler{store: store}
}

// GetBooks is the public catalog listing.
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filter := models.CatalogFilter{
		Search:        q.Get("search"),
		Author:        q.Get("author"),
		ISBN:          q.Get("isbn"),
		AvailableOnly: q.Get("available") == "true",
		Ordering:      q.Get("ordering"),
		Page:          page,
		PageSize:      pageSize,
	}

	result, err := h.store.SearchBooks(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching books")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	book, err := h.store.GetBookByID(r.Context(), id)
	if errors.Is(err, store.ErrBookNotFound) {
		utils.WriteError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching book")
		return
	}
	utils.WriteJSON(w, http.StatusOK, book)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var payload models.BookRequest
	if err := utils.ReadJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	book, errMsg := bookFromRequest(payload)
	if errMsg != "" {
		utils.WriteError(w, http.StatusBadRequest, errMsg)
		return
	}

	if err := h.store.CreateBook(r.Context(), book); err != nil {
		if errors.Is(err, store.ErrISBNExists) {
			utils.WriteError(w, http.StatusConflict, "isbn already registered")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error creating book")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, book)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	book, err := h.store.GetBookByID(r.Context(), id)
	if errors.Is(err, store.ErrBookNotFound) {
		utils.WriteError(w, http.StatusNotFound, "book not found")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching book")
		return
	}

	var payload models.BookRequest
	if err := utils.ReadJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Title != "" {
		book.Title = payload.Title
	}
	if payload.Author != "" {
		book.Author = payload.Author
	}
	if payload.ISBN != "" {
		book.ISBN = payload.ISBN
	}
	if payload.PublishedDate != "" {
		pub, err := time.Parse("2006-01-02", payload.PublishedDate)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "published_date must be YYYY-MM-DD")
			return
		}
		book.PublishedDate = pub
	}

	if err := h.store.UpdateBook(r.Context(), book); err != nil {
		if errors.Is(err, store.ErrISBNExists) {
			utils.WriteError(w, http.StatusConflict, "isbn already registered")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error updating book")
		return
	}
	utils.WriteJSON(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			utils.WriteError(w, http.StatusNotFound, "book not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "error deleting book")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// Restock adjusts copies outside the loan path.
func (h *BookHandler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var payload struct {
		Delta int `json:"delta"`
	}
	if err := utils.ReadJSON(r, &payload); err != nil || payload.Delta == 0 {
		utils.WriteError(w, http.StatusBadRequest, "delta required")
		return
	}
	if err := h.store.AddCopies(r.Context(), id, payload.Delta); err != nil {
		switch {
		case errors.Is(err, store.ErrBookNotFound):
			utils.WriteError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, store.ErrNoCopiesAvailable):
			utils.WriteError(w, http.StatusBadRequest, "copies cannot go negative")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "error adjusting copies")
		}
		return
	}
	book, err := h.store.GetBookByID(r.Context(), id)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching book")
		return
	}
	utils.WriteJSON(w, http.StatusOK, book)
}

func bookFromRequest(payload models.BookRequest) (*models.Book, string) {
	if payload.Title == "" || payload.Author == "" || payload.ISBN == "" {
		return nil, "title, author and isbn required"
	}
	if payload.CopiesAvailable < 0 {
		return nil, "copies_available must be >= 0"
	}
	pub, err := time.Parse("2006-01-02", payload.PublishedDate)
	if err != nil {
		return nil, "published_date must be YYYY-MM-DD"
	}
	if pub.After(time.Now()) {
		return nil, "published_date cannot be in the future"
	}
	return &models.Book{
		Title:           payload.Title,
		Author:          payload.Author,
		ISBN:            payload.ISBN,
		PublishedDate:   pub,
		CopiesAvailable: payload.CopiesAvailable,
	}, ""
}
