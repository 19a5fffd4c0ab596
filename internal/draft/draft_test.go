package draft

import (
	"errors"
	"testing"
)

func TestManager_FullWalkthrough(t *testing.T) {
	m := NewManager()

	prompt := m.Start("op")
	if prompt != prompts[StepHome] {
		t.Fatalf("unexpected first prompt: %q", prompt)
	}

	answers := []string{"Sono", "Samsung", "2026-02-19", "19:00", "gift card"}
	for _, answer := range answers {
		done, _, err := m.Input("op", answer)
		if err != nil {
			t.Fatalf("Input(%q) failed: %v", answer, err)
		}
		if done != nil {
			t.Fatalf("draft completed early at %q", answer)
		}
	}

	done, _, err := m.Input("op", "3")
	if err != nil {
		t.Fatalf("final Input failed: %v", err)
	}
	if done == nil {
		t.Fatalf("draft should be complete")
	}
	if done.Home != "Sono" || done.Away != "Samsung" || done.Prize != "gift card" {
		t.Fatalf("draft fields mismatch: %+v", done)
	}
	if done.MaxWinners != 3 {
		t.Fatalf("unexpected MaxWinners: got=%d want=3", done.MaxWinners)
	}
	if done.ScheduledAt() != "2026-02-19 19:00" {
		t.Fatalf("unexpected ScheduledAt: %q", done.ScheduledAt())
	}

	// The finished draft is removed; further input has nothing to feed.
	if _, _, err := m.Input("op", "extra"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManager_BadWinnerCountRetries(t *testing.T) {
	m := NewManager()
	m.Start("op")

	for _, answer := range []string{"a", "b", "c", "d", "e"} {
		if _, _, err := m.Input("op", answer); err != nil {
			t.Fatalf("Input(%q) failed: %v", answer, err)
		}
	}

	for _, bad := range []string{"0", "11", "abc", "-1"} {
		_, prompt, err := m.Input("op", bad)
		if !errors.Is(err, ErrBadWinners) {
			t.Fatalf("winner input %q: unexpected error: %v", bad, err)
		}
		if prompt != prompts[StepWinners] {
			t.Fatalf("rejected input must re-prompt the same step")
		}
	}

	done, _, err := m.Input("op", "10")
	if err != nil || done == nil {
		t.Fatalf("valid retry failed: done=%v err=%v", done, err)
	}
}

func TestManager_CancelAndIsolation(t *testing.T) {
	m := NewManager()

	if m.Cancel("op") {
		t.Fatalf("cancel without draft should report false")
	}

	m.Start("op")
	m.Start("other")

	if _, _, err := m.Input("op", "Sono"); err != nil {
		t.Fatalf("Input failed: %v", err)
	}

	if !m.Cancel("op") {
		t.Fatalf("cancel should succeed")
	}
	if _, _, err := m.Input("op", "Samsung"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("cancelled draft should be gone: %v", err)
	}

	// The other operator's draft is untouched.
	if _, _, err := m.Input("other", "KCC"); err != nil {
		t.Fatalf("other draft should continue: %v", err)
	}

	_, _, err := m.Input("op", "")
	if !errors.Is(err, ErrNoDraft) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestManager_EmptyInputRejected(t *testing.T) {
	m := NewManager()
	m.Start("op")

	_, prompt, err := m.Input("op", "   ")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("unexpected error: %v", err)
	}
	if prompt != prompts[StepHome] {
		t.Fatalf("empty input must re-prompt the same step")
	}
}
