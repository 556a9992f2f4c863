package handler

import (
	"context"
	"net/http"

	"livepoll/internal/model"
)

// PollReader is the snapshot surface the REST layer needs from the
// coordinator.
type PollReader interface {
	GetActivePoll(ctx context.Context) (*model.PollView, error)
	GetPollHistory(ctx context.Context) ([]*model.PollView, error)
}

// PollHandler handles the snapshot read endpoints
type PollHandler struct {
	polls PollReader
}

// NewPollHandler creates a new poll handler
func NewPollHandler(polls PollReader) *PollHandler {
	return &PollHandler{polls: polls}
}

// Active handles GET /polls/active. A null data field means no poll is
// currently active; the read itself completes a poll whose time budget
// has elapsed.
func (h *PollHandler) Active(w http.ResponseWriter, r *http.Request) {
	view, err := h.polls.GetActivePoll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: view})
}

// History handles GET /polls/history
func (h *PollHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.polls.GetPollHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, response{Success: true, Data: history})
}
