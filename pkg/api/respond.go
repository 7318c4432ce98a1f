package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperctl/hypervisor/pkg/scheduler"
	"github.com/hyperctl/hypervisor/pkg/storage"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeStoreError maps a storage error to the matching HTTP status.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeSchedulerError maps a scheduler error to the matching HTTP status.
func writeSchedulerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduler.ErrQueueStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "queue store unavailable")
	case errors.Is(err, scheduler.ErrInvariantViolation):
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeStoreOrSchedulerError picks the right mapping for an error that may
// have originated from either Store or Scheduler.
func writeStoreOrSchedulerError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrConflict) {
		writeStoreError(w, err)
		return
	}
	writeSchedulerError(w, err)
}
