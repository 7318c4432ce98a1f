package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hyperctl/hypervisor/pkg/types"
)

type createDeploymentRequest struct {
	Name        string `json:"name"`
	ImagePath   string `json:"image_path"`
	ClusterID   string `json:"cluster_id"`
	RAMRequired int    `json:"ram_required"`
	CPURequired int    `json:"cpu_required"`
	GPURequired int    `json:"gpu_required"`
	Priority    int64  `json:"priority"`
}

type deploymentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ImagePath   string `json:"image_path"`
	ClusterID   string `json:"cluster_id"`
	RAMRequired int    `json:"ram_required"`
	CPURequired int    `json:"cpu_required"`
	GPURequired int    `json:"gpu_required"`
	Priority    int64  `json:"priority"`
	Status      string `json:"status"`
}

func toDeploymentResponse(d *types.Deployment) deploymentResponse {
	return deploymentResponse{
		ID: d.ID, Name: d.Name, ImagePath: d.ImagePath, ClusterID: d.ClusterID,
		RAMRequired: d.RAMRequired, CPURequired: d.CPURequired, GPURequired: d.GPURequired,
		Priority: d.Priority, Status: string(d.Status),
	}
}

func (s *Server) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req createDeploymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.ImagePath == "" || req.ClusterID == "" {
		writeError(w, http.StatusBadRequest, "name, image_path and cluster_id are required")
		return
	}
	if req.RAMRequired < 0 || req.CPURequired < 0 || req.GPURequired < 0 {
		writeError(w, http.StatusBadRequest, "resource requirements must be non-negative")
		return
	}

	d := &types.Deployment{
		ID:          uuid.New().String(),
		Name:        req.Name,
		ImagePath:   req.ImagePath,
		ClusterID:   req.ClusterID,
		RAMRequired: req.RAMRequired,
		CPURequired: req.CPURequired,
		GPURequired: req.GPURequired,
		Priority:    req.Priority,
		Status:      types.DeploymentPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	logger := requestLogger(r.Context())

	if err := s.controller.Admit(r.Context(), d); err != nil {
		switch {
		case errors.Is(err, ErrExceedsCapacity):
			writeError(w, http.StatusUnprocessableEntity, "deployment exceeds cluster capacity")
		default:
			logger.Error().Err(err).Str("deployment_id", d.ID).Msg("admission failed")
			writeStoreOrSchedulerError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toDeploymentResponse(d))
}

func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := s.controller.store.GetDeployment(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeploymentResponse(d))
}

func (s *Server) handleCompleteDeployment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	d, err := s.controller.store.GetDeployment(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	logger := requestLogger(r.Context())

	if err := s.controller.Complete(r.Context(), d); err != nil {
		switch {
		case errors.Is(err, ErrNotRunning):
			writeError(w, http.StatusBadRequest, "deployment is not running")
		default:
			logger.Error().Err(err).Str("deployment_id", d.ID).Msg("completion failed")
			writeStoreOrSchedulerError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toDeploymentResponse(d))
}
