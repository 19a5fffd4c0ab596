// Package announce renders the channel-facing message texts: the live
// betting board with its text bars, close/result notices and winner
// listings. Pure formatting, no state.
package announce

import (
	"fmt"
	"math"
	"strings"

	"github.com/nantokaworks/betboard/internal/types"
)

const barLength = 12

// Formatter carries the operator contact line injected into public texts.
type Formatter struct {
	Contact string
}

func New(contact string) *Formatter {
	return &Formatter{Contact: contact}
}

// Bar renders a text progress bar like "███░░░░░░░░░ 25%". Exact halves
// round to even, so 2.5 cells render as 2.
func Bar(count, total int) string {
	filled := 0
	pct := 0
	if total > 0 {
		filled = int(math.RoundToEven(float64(count) / float64(total) * barLength))
		pct = int(math.RoundToEven(float64(count) / float64(total) * 100))
	}
	return fmt.Sprintf("%s%s %d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", barLength-filled),
		pct)
}

func tallySection(ev *types.Event, header string) string {
	home := len(ev.Bets[types.OutcomeHome])
	draw := len(ev.Bets[types.OutcomeDraw])
	away := len(ev.Bets[types.OutcomeAway])
	total := home + draw + away

	var b strings.Builder
	fmt.Fprintf(&b, "%s (total %d)\n", header, total)
	fmt.Fprintf(&b, "Home win: %s (%d)\n", Bar(home, total), home)
	fmt.Fprintf(&b, "Draw:     %s (%d)\n", Bar(draw, total), draw)
	fmt.Fprintf(&b, "Away win: %s (%d)", Bar(away, total), away)
	return b.String()
}

// OpenText is the live betting announcement, re-rendered after every bet.
func (f *Formatter) OpenText(ev *types.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s\n\n", ev.Home, ev.Away)
	fmt.Fprintf(&b, "Scheduled: %s\n", ev.ScheduledAt)
	b.WriteString("-----------------------------------\n")
	fmt.Fprintf(&b, "Up to %d correct picks win at random!\n", ev.MaxWinners)
	fmt.Fprintf(&b, "Prize: %s\n", ev.Prize)
	b.WriteString("Winners are announced after the result is in.\n")
	fmt.Fprintf(&b, "Questions: %s\n", f.Contact)
	b.WriteString("-----------------------------------\n")
	b.WriteString(tallySection(ev, "Current standings"))
	return b.String()
}

// ClosedText replaces the live board once betting is shut.
func (f *Formatter) ClosedText(ev *types.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s vs %s\n\n", ev.Home, ev.Away)
	fmt.Fprintf(&b, "Scheduled: %s\n", ev.ScheduledAt)
	b.WriteString("-----------------------------------\n")
	b.WriteString("Betting is closed.\n")
	b.WriteString("-----------------------------------\n")
	b.WriteString(tallySection(ev, "Final standings"))
	return b.String()
}

// ResultText announces the declared outcome.
func (f *Formatter) ResultText(ev *types.Event, outcome types.Outcome) string {
	return fmt.Sprintf("Result is in!\n\n(%s) vs (%s)\n-----------------------------------\nResult: %s",
		ev.Home, ev.Away, ev.OutcomeLabel(outcome))
}

// WinnerText lists the drawn winners with their prize.
func (f *Formatter) WinnerText(ev *types.Event, outcome types.Outcome, winners []types.Participant) string {
	var b strings.Builder
	b.WriteString("Winner announcement!\n")
	fmt.Fprintf(&b, "(%s) vs (%s)\n", ev.Home, ev.Away)
	b.WriteString("-----------------------------------\n")
	fmt.Fprintf(&b, "Result: %s\n", ev.OutcomeLabel(outcome))
	fmt.Fprintf(&b, "Winners: %d\n", len(winners))
	for i, w := range winners {
		fmt.Fprintf(&b, "%d. @%s : %s\n", i+1, w.DisplayName, ev.Prize)
	}
	fmt.Fprintf(&b, "\nQuestions: %s", f.Contact)
	return b.String()
}

// NoWinnerText covers the outcome nobody bet on.
func (f *Formatter) NoWinnerText(ev *types.Event, outcome types.Outcome) string {
	return fmt.Sprintf("No winners this time.\n\n(%s) vs (%s)\n-----------------------------------\nResult: %s\n\nNobody bet on this outcome.",
		ev.Home, ev.Away, ev.OutcomeLabel(outcome))
}

// RerollText announces a re-drawn winner set.
func (f *Formatter) RerollText(ev *types.Event, outcome types.Outcome, winners []types.Participant) string {
	var b strings.Builder
	b.WriteString("Winners re-drawn!\n")
	fmt.Fprintf(&b, "(%s) vs (%s)\n", ev.Home, ev.Away)
	b.WriteString("-----------------------------------\n")
	fmt.Fprintf(&b, "Result: %s\n", ev.OutcomeLabel(outcome))
	fmt.Fprintf(&b, "New winners: %d\n", len(winners))
	for i, w := range winners {
		fmt.Fprintf(&b, "%d. @%s : %s\n", i+1, w.DisplayName, ev.Prize)
	}
	fmt.Fprintf(&b, "\nQuestions: %s", f.Contact)
	return b.String()
}
