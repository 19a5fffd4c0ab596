package types

// Participant is one bettor as captured at bet time. DisplayName is a
// snapshot; it is never re-resolved even if the user renames later.
type Participant struct {
	UserID      string `json:"user_id" db:"user_id"`
	DisplayName string `json:"display_name" db:"display_name"`
}

// Outcome is one of the three possible results of an event.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// ValidOutcome reports whether o is one of home/draw/away.
func ValidOutcome(o Outcome) bool {
	return o == OutcomeHome || o == OutcomeDraw || o == OutcomeAway
}

// Outcomes lists the three tags in ballot order.
var Outcomes = []Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}

// Event is one betting round with two named sides and three possible
// outcomes. Outcome == "" means the result has not been declared yet.
type Event struct {
	ID          int64                     `json:"id"`
	Home        string                    `json:"home"`
	Away        string                    `json:"away"`
	ScheduledAt string                    `json:"scheduled_at"`
	Prize       string                    `json:"prize"`
	MaxWinners  int                       `json:"max_winners"`
	Bets        map[Outcome][]Participant `json:"bets"`
	Closed      bool                      `json:"closed"`
	Outcome     Outcome                   `json:"outcome,omitempty"`
	// Announcements holds opaque refs of channel messages published for
	// this event, in publish order. Used only for retraction on delete.
	Announcements []string `json:"announcements,omitempty"`
}

// NewBallot returns the three empty ballot sequences of a fresh event.
func NewBallot() map[Outcome][]Participant {
	return map[Outcome][]Participant{
		OutcomeHome: {},
		OutcomeDraw: {},
		OutcomeAway: {},
	}
}

// TotalBettors counts participants across all three ballot sequences.
func (e *Event) TotalBettors() int {
	return len(e.Bets[OutcomeHome]) + len(e.Bets[OutcomeDraw]) + len(e.Bets[OutcomeAway])
}

// HasBet reports whether the identity already appears in any ballot
// sequence of this event.
func (e *Event) HasBet(userID string) bool {
	for _, outcome := range Outcomes {
		for _, p := range e.Bets[outcome] {
			if p.UserID == userID {
				return true
			}
		}
	}
	return false
}

// Label is the "Home vs Away" identifier used in history records and
// channel messages.
func (e *Event) Label() string {
	return e.Home + " vs " + e.Away
}

// OutcomeLabel renders an outcome tag with the side it refers to, e.g.
// "Home win (Sono)". The rendered form is what gets persisted in winner
// history, so it stays stable even if the event is later deleted.
func (e *Event) OutcomeLabel(o Outcome) string {
	switch o {
	case OutcomeHome:
		return "Home win (" + e.Home + ")"
	case OutcomeAway:
		return "Away win (" + e.Away + ")"
	default:
		return "Draw"
	}
}

// Clone returns a deep copy safe to hand to callers outside the store lock.
func (e *Event) Clone() *Event {
	cp := *e
	cp.Bets = make(map[Outcome][]Participant, len(e.Bets))
	for outcome, seq := range e.Bets {
		cp.Bets[outcome] = append([]Participant(nil), seq...)
	}
	cp.Announcements = append([]string(nil), e.Announcements...)
	return &cp
}

// WinnerRecord is one entry of the append-only winner history.
type WinnerRecord struct {
	EventLabel   string `json:"event_label"`
	WinnerName   string `json:"winner_name"`
	Prize        string `json:"prize"`
	OutcomeLabel string `json:"outcome_label"`
}

// Aggregate holds running totals across all resolved events.
type Aggregate struct {
	TotalEvents  int            `json:"total_events"`
	TotalBettors int            `json:"total_bettors"`
	TotalWinners int            `json:"total_winners"`
	History      []WinnerRecord `json:"history"`
}

// Snapshot is the full persisted document: everything the engine needs
// to survive a restart.
type Snapshot struct {
	IDCounter int64            `json:"id_counter"`
	Events    map[int64]*Event `json:"events"`
	Aggregate Aggregate        `json:"aggregate"`
	Operators []string         `json:"operators"`
}
