package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"librarydesk/middleware"
	"librarydesk/models"
	"librarydesk/store"
	"librarydesk/utils"
)

const tokenTTL = 24 * time.Hour

type MemberStore interface {
	CreateMember(ctx context.Context, username, email, hashedPassword, role string) (*models.Member, error)
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)
	GetMemberByUsername(ctx context.Context, username string) (*models.Member, error)
	ListMembers(ctx context.Context) ([]models.Member, error)
	UpdateMember(ctx context.Context, m *models.Member) error
}

type AuthHandler struct {
	store MemberStore
}

func NewAuthHandler(store MemberStore) *AuthHandler {
	return &AuthHandler{store: store}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.RegisterRequest
	if err := utils.ReadJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Username == "" || payload.Password == "" || payload.Email == "" {
		utils.WriteError(w, http.StatusBadRequest, "username, email and password required")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error hashing password")
		return
	}

	member, err := h.store.CreateMember(r.Context(), payload.Username, payload.Email, string(hashed), "member")
	if errors.Is(err, store.ErrMemberExists) {
		utils.WriteError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error creating member")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, member)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload models.LoginRequest
	if err := utils.ReadJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	member, err := h.store.GetMemberByUsername(r.Context(), payload.Username)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.Password), []byte(payload.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(member.ID, member.Username, member.Role, tokenTTL)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error generating token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(tokenTTL),
	})
	utils.WriteJSON(w, http.StatusOK, models.LoginResponse{
		Token:    token,
		Username: member.Username,
		Role:     member.Role,
	})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	member, err := h.store.GetMemberByID(r.Context(), claims.MemberID)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "member not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, member)
}

// ListMembers is the admin membership roster.
func (h *AuthHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListMembers(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching members")
		return
	}
	utils.WriteJSON(w, http.StatusOK, members)
}

// UpdateMember lets an admin flip the active flag or change the role.
func (h *AuthHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	member, err := h.store.GetMemberByID(r.Context(), id)
	if errors.Is(err, store.ErrMemberNotFound) {
		utils.WriteError(w, http.StatusNotFound, "member not found")
		return
	}
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching member")
		return
	}

	var payload models.MemberUpdateRequest
	if err := utils.ReadJSON(r, &payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if payload.Role != nil {
		if *payload.Role != "member" && *payload.Role != "admin" {
			utils.WriteError(w, http.StatusBadRequest, "role must be member or admin")
			return
		}
		member.Role = *payload.Role
	}
	if payload.Active != nil {
		member.Active = *payload.Active
	}

	if err := h.store.UpdateMember(r.Context(), member); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error updating member")
		return
	}
	utils.WriteJSON(w, http.StatusOK, member)
}
