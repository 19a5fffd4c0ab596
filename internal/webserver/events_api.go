package webserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/nantokaworks/betboard/internal/auth"
	"github.com/nantokaworks/betboard/internal/draw"
	"github.com/nantokaworks/betboard/internal/eventstore"
	"github.com/nantokaworks/betboard/internal/types"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the engine's rejection kinds onto HTTP statuses so the
// front end can phrase authorization, not-found and conflict failures
// differently.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrNotOperator),
		errors.Is(err, auth.ErrSelfRemoval),
		errors.Is(err, auth.ErrLastOperator):
		status = http.StatusForbidden
	case errors.Is(err, eventstore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, eventstore.ErrWinnerCount),
		errors.Is(err, eventstore.ErrBadOutcome):
		status = http.StatusBadRequest
	case errors.Is(err, eventstore.ErrClosed),
		errors.Is(err, eventstore.ErrAlreadyBet),
		errors.Is(err, eventstore.ErrAlreadyClosed),
		errors.Is(err, eventstore.ErrAlreadyResolved),
		errors.Is(err, eventstore.ErrNoOutcome),
		errors.Is(err, draw.ErrNoCandidates):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// requireIdentity extracts the acting identity from the request.
func requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get("X-User-ID"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing X-User-ID header"})
		return "", false
	}
	return id, true
}

// boardRef returns the ref of the live betting board, which is the first
// announcement ever published for the event.
func boardRef(ev *types.Event) string {
	if len(ev.Announcements) == 0 {
		return ""
	}
	return ev.Announcements[0]
}

type openEventRequest struct {
	Home        string `json:"home"`
	Away        string `json:"away"`
	ScheduledAt string `json:"scheduled_at"`
	Prize       string `json:"prize"`
	MaxWinners  int    `json:"max_winners"`
}

// handleEvents serves POST (open) and GET (list) on /api/events.
func handleEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req openEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		openEvent(w, actor, req)

	case http.MethodGet:
		events, err := store.List(actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// openEvent runs the open operation and publishes the betting board.
// Shared by the direct POST and the completed draft flow.
func openEvent(w http.ResponseWriter, actor string, req openEventRequest) {
	ev, err := store.Open(actor, req.Home, req.Away, req.ScheduledAt, req.Prize, req.MaxWinners)
	if err != nil {
		writeError(w, err)
		return
	}

	ref := publishAnnouncement("betting_open", ev.ID, formatter.OpenText(ev))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event": ev,
		"ref":   ref,
	})
}

// handleEventByPath routes /api/events/{id} and its sub-resources.
func handleEventByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
	parts := strings.SplitN(rest, "/", 2)

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed event id"})
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "bets" && r.Method == http.MethodPost:
		handleRegisterBet(w, r, id)
	case sub == "close" && r.Method == http.MethodPost:
		handleClose(w, r, id)
	case sub == "result" && r.Method == http.MethodPost:
		handleDeclare(w, r, id)
	case sub == "reroll" && r.Method == http.MethodPost:
		handleReroll(w, r, id)
	case sub == "members" && r.Method == http.MethodGet:
		handleMembers(w, r, id)
	case sub == "" && r.Method == http.MethodGet:
		handleGetEvent(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		handleDeleteEvent(w, r, id)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

type betRequest struct {
	Outcome types.Outcome `json:"outcome"`
}

func handleRegisterBet(w http.ResponseWriter, r *http.Request, id int64) {
	userID, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	displayName := strings.TrimSpace(r.Header.Get("X-User-Name"))
	if displayName == "" {
		displayName = userID
	}

	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ev, err := store.RegisterBet(id, types.Participant{UserID: userID, DisplayName: displayName}, req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}

	// Refresh the live board with the new tally.
	if ref := boardRef(ev); ref != "" {
		publishEdit("tally_update", ev.ID, ref, formatter.OpenText(ev))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":       req.Outcome,
		"total_bettors": ev.TotalBettors(),
	})
}

func handleClose(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ev, err := store.Close(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	if ref := boardRef(ev); ref != "" {
		publishEdit("betting_closed", ev.ID, ref, formatter.ClosedText(ev))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"event": ev})
}

type declareRequest struct {
	Outcome types.Outcome `json:"outcome"`
}

func handleDeclare(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req declareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	res, err := store.Declare(actor, id, req.Outcome)
	if err != nil {
		writeError(w, err)
		return
	}

	// Board freezes, then the result and winner announcements follow as
	// separate messages (the board edit reuses the original ref).
	if ref := boardRef(res.Event); ref != "" {
		publishEdit("betting_closed", res.Event.ID, ref, formatter.ClosedText(res.Event))
	}
	publishAnnouncement("result", res.Event.ID, formatter.ResultText(res.Event, res.Outcome))
	if res.NoWinner {
		publishAnnouncement("no_winner", res.Event.ID, formatter.NoWinnerText(res.Event, res.Outcome))
	} else {
		publishAnnouncement("winners", res.Event.ID, formatter.WinnerText(res.Event, res.Outcome, res.Winners))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":   res.Outcome,
		"winners":   res.Winners,
		"no_winner": res.NoWinner,
	})
}

func handleReroll(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	res, err := store.Reroll(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	publishAnnouncement("reroll", res.Event.ID, formatter.RerollText(res.Event, res.Outcome, res.Winners))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": res.Outcome,
		"winners": res.Winners,
	})
}

func handleGetEvent(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ev, err := store.Get(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func handleDeleteEvent(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	refs, err := store.Delete(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	publishRetraction(refs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted":   id,
		"retracted": len(refs),
	})
}

// handleMembers lists the bettor roster, optionally restricted to one
// outcome via ?side=home|draw|away.
func handleMembers(w http.ResponseWriter, r *http.Request, id int64) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	ev, err := store.Get(actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	side := r.URL.Query().Get("side")
	if side != "" {
		outcome := types.Outcome(side)
		if !types.ValidOutcome(outcome) {
			writeError(w, eventstore.ErrBadOutcome)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"event_id": ev.ID,
			"side":     outcome,
			"members":  ev.Bets[outcome],
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"event_id": ev.ID,
		"members":  ev.Bets,
		"total":    ev.TotalBettors(),
	})
}
