package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/qrdine/qrdine/internal/httpx"
	"github.com/qrdine/qrdine/internal/storage"
)

type Handler struct {
	store  *storage.Store
	svc    *Service
	logger *logrus.Logger
}

func NewHandler(store *storage.Store, svc *Service, logger *logrus.Logger) *Handler {
	return &Handler{store: store, svc: svc, logger: logger}
}

// Register creates the user, and for hotel owners their hotel, in one
// transaction; a super-admin registration burns its dev key in the same
// unit.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var result *AuthResult
	err := h.store.WithinTx(r.Context(), func(ctx context.Context, q *storage.Queries) error {
		var err error
		result, err = h.svc.Register(ctx, q, req)
		return err
	})
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "User registered successfully", result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), h.store.Queries(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Logged in successfully", result)
}

// ListUsers returns hotel-owner accounts for the approval dashboard.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListOwners(r.Context(), h.store.Queries())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Users fetched successfully", users)
}

func (h *Handler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	user, err := h.svc.ApproveUser(r.Context(), h.store.Queries(), userID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}

	httpx.OK(w, http.StatusOK, "User approved successfully", user)
}
