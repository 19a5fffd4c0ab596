// Package draft collects the fields of a new event one answer at a time,
// the way the conversational front end asks for them. Only a completed,
// validated draft ever reaches the event store; the engine never sees a
// partial event.
package draft

import (
	"errors"
	"strconv"
	"strings"
	"sync"
)

type Step int

const (
	StepHome Step = iota
	StepAway
	StepDate
	StepTime
	StepPrize
	StepWinners
	StepDone
)

var (
	ErrNoDraft    = errors.New("no draft in progress")
	ErrEmptyInput = errors.New("input must not be empty")
	// ErrBadWinners rejects a winner count outside 1..10; the draft stays
	// on the same step so the operator can retry.
	ErrBadWinners = errors.New("winner count must be a number between 1 and 10")
)

// Prompts shown for each step, in order.
var prompts = map[Step]string{
	StepHome:    "Enter the home side name.",
	StepAway:    "Enter the away side name.",
	StepDate:    "Enter the match date (e.g. 2026-02-19).",
	StepTime:    "Enter the match time (e.g. 19:00).",
	StepPrize:   "Enter the prize description.",
	StepWinners: "Enter the number of winners (1-10).",
}

// Draft is one in-progress event creation.
type Draft struct {
	Step       Step
	Home       string
	Away       string
	Date       string
	Time       string
	Prize      string
	MaxWinners int
}

// ScheduledAt joins the date and time answers into the stored label.
func (d *Draft) ScheduledAt() string {
	return d.Date + " " + d.Time
}

// Manager tracks at most one draft per operator identity.
type Manager struct {
	mu     sync.Mutex
	drafts map[string]*Draft
}

func NewManager() *Manager {
	return &Manager{drafts: make(map[string]*Draft)}
}

// Start begins (or restarts) a draft and returns the first prompt.
func (m *Manager) Start(operatorID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drafts[operatorID] = &Draft{Step: StepHome}
	return prompts[StepHome]
}

// Cancel discards the operator's draft. Returns false when there was none.
func (m *Manager) Cancel(operatorID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drafts[operatorID]; !ok {
		return false
	}
	delete(m.drafts, operatorID)
	return true
}

// Input feeds the next answer. When the draft completes, the finished
// Draft is returned and removed from the manager; otherwise the next
// prompt comes back. A rejected answer leaves the draft on its current
// step.
func (m *Manager) Input(operatorID, text string) (*Draft, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[operatorID]
	if !ok {
		return nil, "", ErrNoDraft
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, prompts[d.Step], ErrEmptyInput
	}

	switch d.Step {
	case StepHome:
		d.Home = text
	case StepAway:
		d.Away = text
	case StepDate:
		d.Date = text
	case StepTime:
		d.Time = text
	case StepPrize:
		d.Prize = text
	case StepWinners:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 10 {
			return nil, prompts[StepWinners], ErrBadWinners
		}
		d.MaxWinners = n
	}

	d.Step++
	if d.Step == StepDone {
		delete(m.drafts, operatorID)
		return d, "", nil
	}
	return nil, prompts[d.Step], nil
}
