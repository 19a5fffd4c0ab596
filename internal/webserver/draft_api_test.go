package webserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nantokaworks/betboard/internal/types"
)

func startDraft(t *testing.T, actor string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/drafts", nil)
	req.Header.Set("X-User-ID", actor)
	rec := httptest.NewRecorder()
	handleDrafts(rec, req)
	return rec
}

func feedDraft(t *testing.T, actor, text string) *httptest.ResponseRecorder {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"text": text})
	req := httptest.NewRequest(http.MethodPost, "/api/drafts/input", strings.NewReader(string(body)))
	req.Header.Set("X-User-ID", actor)
	rec := httptest.NewRecorder()
	handleDraftInput(rec, req)
	return rec
}

func TestHandleDrafts_FullConversation(t *testing.T) {
	setupAPITest(t)

	if rec := startDraft(t, "op1"); rec.Code != http.StatusOK {
		t.Fatalf("start status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	answers := []string{"Sono", "Samsung", "2026-02-19", "19:00", "Coffee"}
	for _, answer := range answers {
		rec := feedDraft(t, "op1", answer)
		if rec.Code != http.StatusOK {
			t.Fatalf("answer %q status mismatch: got=%d body=%s", answer, rec.Code, rec.Body.String())
		}
	}

	// Out-of-range winner count keeps the draft on the same step.
	rec := feedDraft(t, "op1", "99")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad winner count status mismatch: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}

	rec = feedDraft(t, "op1", "3")
	if rec.Code != http.StatusCreated {
		t.Fatalf("final answer status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Event types.Event `json:"event"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode completion failed: %v", err)
	}
	if resp.Event.Home != "Sono" || resp.Event.Away != "Samsung" {
		t.Fatalf("unexpected sides: %q vs %q", resp.Event.Home, resp.Event.Away)
	}
	if resp.Event.ScheduledAt != "2026-02-19 19:00" {
		t.Fatalf("unexpected schedule: %q", resp.Event.ScheduledAt)
	}
	if resp.Event.MaxWinners != 3 {
		t.Fatalf("unexpected max winners: got=%d want=%d", resp.Event.MaxWinners, 3)
	}

	// The draft is consumed once the event opens.
	if rec := feedDraft(t, "op1", "extra"); rec.Code != http.StatusNotFound {
		t.Fatalf("consumed draft status mismatch: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleDrafts_NonOperator(t *testing.T) {
	setupAPITest(t)

	if rec := startDraft(t, "mallory"); rec.Code != http.StatusForbidden {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", rec.Code, http.StatusForbidden, rec.Body.String())
	}
}

func TestHandleDrafts_Cancel(t *testing.T) {
	setupAPITest(t)

	startDraft(t, "op1")

	req := httptest.NewRequest(http.MethodDelete, "/api/drafts", nil)
	req.Header.Set("X-User-ID", "op1")
	rec := httptest.NewRecorder()
	handleDrafts(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status mismatch: got=%d want=%d", rec.Code, http.StatusOK)
	}

	// Cancelling again finds nothing.
	req = httptest.NewRequest(http.MethodDelete, "/api/drafts", nil)
	req.Header.Set("X-User-ID", "op1")
	rec = httptest.NewRecorder()
	handleDrafts(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat cancel status mismatch: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}
