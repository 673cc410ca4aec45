package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"librarydesk/coordinator"
	"librarydesk/middleware"
	"librarydesk/models"
	"librarydesk/store"
	"librarydesk/utils"
)

type WaitlistService interface {
	JoinWaitlist(ctx context.Context, memberID string, bookID int64) (*models.WaitlistEntry, error)
	CancelWaitlist(ctx context.Context, memberID string, entryID int64) error
}

type WaitlistReader interface {
	ListWaitlistByMember(ctx context.Context, memberID string) ([]models.WaitlistEntry, error)
}

type BookGetter interface {
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
}

type WaitlistHandler struct {
	svc     WaitlistService
	entries WaitlistReader
	books   BookGetter
}

func NewWaitlistHandler(svc WaitlistService, entries WaitlistReader, books BookGetter) *WaitlistHandler {
	return &WaitlistHandler{svc: svc, entries: entries, books: books}
}

func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload models.WaitlistRequest
	if err := utils.ReadJSON(r, &payload); err != nil || payload.BookID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "book_id required")
		return
	}

	entry, err := h.svc.JoinWaitlist(r.Context(), claims.MemberID, payload.BookID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBookAvailable):
			// Advisory, not an error: the book can be borrowed right now.
			h.writeAdvisory(w, r, payload.BookID)
		case errors.Is(err, store.ErrAlreadyWaitlisted):
			utils.WriteError(w, http.StatusBadRequest, "already on the waitlist for this book")
		case errors.Is(err, store.ErrBookNotFound):
			utils.WriteError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, coordinator.ErrMembershipInactive):
			utils.WriteError(w, http.StatusForbidden, "membership is not active")
		case errors.Is(err, store.ErrMemberNotFound):
			utils.WriteError(w, http.StatusNotFound, "member not found")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "waitlist join failed, try again")
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, entry)
}

func (h *WaitlistHandler) writeAdvisory(w http.ResponseWriter, r *http.Request, bookID int64) {
	warning := "book has copies available, borrow it directly"
	if book, err := h.books.GetBookByID(r.Context(), bookID); err == nil {
		warning = coordinator.Describe(book)
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"warning": warning})
}

func (h *WaitlistHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.svc.CancelWaitlist(r.Context(), claims.MemberID, id); err != nil {
		if errors.Is(err, store.ErrWaitlistNotFound) {
			utils.WriteError(w, http.StatusNotFound, "waitlist entry not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "waitlist cancel failed, try again")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "waitlist entry canceled"})
}

func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, err := h.entries.ListWaitlistByMember(r.Context(), claims.MemberID)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching waitlist")
		return
	}
	utils.WriteJSON(w, http.StatusOK, entries)
}
