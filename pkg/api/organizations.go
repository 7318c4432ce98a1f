package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hyperctl/hypervisor/pkg/types"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type organizationResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type joinOrganizationRequest struct {
	InviteCode string `json:"invite_code"`
}

type joinOrganizationResponse struct {
	Message string `json:"message"`
}

func toOrganizationResponse(o *types.Organization) organizationResponse {
	return organizationResponse{ID: o.ID, Name: o.Name, InviteCode: o.InviteCode}
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	o := &types.Organization{
		ID:         uuid.New().String(),
		Name:       req.Name,
		InviteCode: fmt.Sprintf("org-%s", uuid.New().String()[:8]),
		CreatedAt:  time.Now(),
	}

	if err := s.controller.store.CreateOrganization(r.Context(), o); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrganizationResponse(o))
}

func (s *Server) handleJoinOrganization(w http.ResponseWriter, r *http.Request) {
	var req joinOrganizationRequest
	if err := decodeJSON(r, &req); err != nil || req.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "invite_code is required")
		return
	}

	username, _ := requestUsername(r.Context())
	u, err := s.controller.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	org, err := s.controller.store.GetOrganizationByInviteCode(r.Context(), req.InviteCode)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invite code")
		return
	}

	u.OrganizationID = org.ID
	if err := s.controller.store.UpdateUser(r.Context(), u); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, joinOrganizationResponse{
		Message: fmt.Sprintf("user %s joined organization %s", u.Username, org.Name),
	})
}
