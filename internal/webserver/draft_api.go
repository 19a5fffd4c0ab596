package webserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nantokaworks/betboard/internal/auth"
	"github.com/nantokaworks/betboard/internal/draft"
)

// handleDrafts serves POST (start) and DELETE (cancel) on /api/drafts.
// Drafts are an operator-only surface; the answers feed the same open
// operation as a direct POST /api/events once the last step completes.
func handleDrafts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if !store.IsOperator(actor) {
		writeError(w, auth.ErrNotOperator)
		return
	}

	switch r.Method {
	case http.MethodPost:
		prompt := draftManager.Start(actor)
		writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})

	case http.MethodDelete:
		if !draftManager.Cancel(actor) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": draft.ErrNoDraft.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type draftInputRequest struct {
	Text string `json:"text"`
}

// handleDraftInput feeds one answer into the caller's draft.
func handleDraftInput(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req draftInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	done, prompt, err := draftManager.Input(actor, req.Text)
	switch {
	case errors.Is(err, draft.ErrNoDraft):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	case err != nil:
		// Validation failure keeps the draft on the same step.
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  err.Error(),
			"prompt": prompt,
		})
		return
	}

	if done == nil {
		writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
		return
	}

	openEvent(w, actor, openEventRequest{
		Home:        done.Home,
		Away:        done.Away,
		ScheduledAt: done.ScheduledAt(),
		Prize:       done.Prize,
		MaxWinners:  done.MaxWinners,
	})
}
