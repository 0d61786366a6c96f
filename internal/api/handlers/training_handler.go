package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/Botforge/internal/api/middlewares"
	"github.com/markdave123-py/Botforge/internal/services"
)

type TrainingHandler struct {
	dispatcher *services.Dispatcher
}

func NewTrainingHandler(dispatcher *services.Dispatcher) *TrainingHandler {
	return &TrainingHandler{dispatcher: dispatcher}
}

type queueTrainingRequest struct {
	SourceIDs []string `json:"source_ids"`
}

// QueueTraining accepts a batch of source ids and queues one training job for
// the bot. A bot with a job already queued or processing gets a 409.
func (h *TrainingHandler) QueueTraining(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrganizationID(r.Context())
	botID := chi.URLParam(r, "bot_id")

	var req queueTrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	job, err := h.dispatcher.QueueTraining(r.Context(), orgID, botID, req.SourceIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// QueueDeletion queues a purge job for a source already marked deleted.
func (h *TrainingHandler) QueueDeletion(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrganizationID(r.Context())
	botID := chi.URLParam(r, "bot_id")
	sourceID := chi.URLParam(r, "source_id")

	job, err := h.dispatcher.QueueDeletion(r.Context(), orgID, botID, sourceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

// JobStatus returns the current state of a job for polling clients.
func (h *TrainingHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrganizationID(r.Context())
	botID := chi.URLParam(r, "bot_id")
	jobID := chi.URLParam(r, "job_id")

	job, err := h.dispatcher.JobStatus(r.Context(), jobID, orgID, botID)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}
