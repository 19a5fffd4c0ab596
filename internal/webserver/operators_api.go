package webserver

import (
	"encoding/json"
	"net/http"
	"strings"
)

type operatorRequest struct {
	UserID string `json:"user_id"`
}

// handleOperators serves GET (roster) and POST (add) on /api/operators.
func handleOperators(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		ids, err := store.Operators(actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"operators": ids})

	case http.MethodPost:
		var req operatorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		added, err := store.AddOperator(actor, strings.TrimSpace(req.UserID))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user_id": req.UserID,
			"added":   added,
		})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleOperatorByPath serves DELETE /api/operators/{id}.
func handleOperatorByPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	target := strings.TrimPrefix(r.URL.Path, "/api/operators/")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing operator id"})
		return
	}

	if err := store.RemoveOperator(actor, target); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": target})
}
