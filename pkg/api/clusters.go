package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hyperctl/hypervisor/pkg/metrics"
	"github.com/hyperctl/hypervisor/pkg/types"
)

type createClusterRequest struct {
	Name     string `json:"name"`
	TotalRAM int    `json:"total_ram"`
	TotalCPU int    `json:"total_cpu"`
	TotalGPU int    `json:"total_gpu"`
}

type clusterResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TotalRAM int    `json:"total_ram"`
	TotalCPU int    `json:"total_cpu"`
	TotalGPU int    `json:"total_gpu"`
	AvailRAM int    `json:"available_ram"`
	AvailCPU int    `json:"available_cpu"`
	AvailGPU int    `json:"available_gpu"`
}

func toClusterResponse(c *types.Cluster) clusterResponse {
	return clusterResponse{
		ID: c.ID, Name: c.Name,
		TotalRAM: c.TotalRAM, TotalCPU: c.TotalCPU, TotalGPU: c.TotalGPU,
		AvailRAM: c.AvailRAM, AvailCPU: c.AvailCPU, AvailGPU: c.AvailGPU,
	}
}

func (s *Server) handleCreateCluster(w http.ResponseWriter, r *http.Request) {
	var req createClusterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.TotalRAM < 0 || req.TotalCPU < 0 || req.TotalGPU < 0 {
		writeError(w, http.StatusBadRequest, "name and non-negative total_ram/total_cpu/total_gpu are required")
		return
	}

	c := &types.Cluster{
		ID:        uuid.New().String(),
		Name:      req.Name,
		TotalRAM:  req.TotalRAM,
		TotalCPU:  req.TotalCPU,
		TotalGPU:  req.TotalGPU,
		AvailRAM:  req.TotalRAM,
		AvailCPU:  req.TotalCPU,
		AvailGPU:  req.TotalGPU,
		CreatedAt: time.Now(),
	}

	if err := s.controller.store.CreateCluster(r.Context(), c); err != nil {
		writeStoreError(w, err)
		return
	}

	metrics.ClustersTotal.Inc()
	metrics.ClusterAvailableResources.WithLabelValues(c.ID, "ram").Set(float64(c.AvailRAM))
	metrics.ClusterAvailableResources.WithLabelValues(c.ID, "cpu").Set(float64(c.AvailCPU))
	metrics.ClusterAvailableResources.WithLabelValues(c.ID, "gpu").Set(float64(c.AvailGPU))

	writeJSON(w, http.StatusCreated, toClusterResponse(c))
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.controller.store.GetCluster(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toClusterResponse(c))
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.controller.store.ListClusters(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	out := make([]clusterResponse, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, toClusterResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}
