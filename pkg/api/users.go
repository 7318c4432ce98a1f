package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hyperctl/hypervisor/pkg/auth"
	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/hyperctl/hypervisor/pkg/types"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	OrganizationID string `json:"organization_id,omitempty"`
}

type tokenResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func toUserResponse(u *types.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, OrganizationID: u.OrganizationID}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	u := &types.User{
		ID:             uuid.New().String(),
		Username:       req.Username,
		HashedPassword: hashed,
		CreatedAt:      time.Now(),
	}

	if err := s.controller.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	u, err := s.controller.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	if !auth.VerifyPassword(req.Password, u.HashedPassword) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.controller.issuer.IssueToken(u.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		ID:          u.ID,
		Username:    u.Username,
		AccessToken: token,
		TokenType:   "bearer",
	})
}
