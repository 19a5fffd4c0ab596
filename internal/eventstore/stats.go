package eventstore

import "github.com/nantokaworks/betboard/internal/types"

// RecentHistoryLimit caps how many winner records the dashboard surfaces.
const RecentHistoryLimit = 5

// StatsView is the read-only dashboard: live counts plus the cumulative
// totals the aggregate has accrued across resolved events.
type StatsView struct {
	ActiveEvents  int                  `json:"active_events"`
	ClosedEvents  int                  `json:"closed_events"`
	LiveBettors   int                  `json:"live_bettors"`
	TotalEvents   int                  `json:"total_events"`
	TotalBettors  int                  `json:"total_bettors"`
	TotalWinners  int                  `json:"total_winners"`
	RecentWinners []types.WinnerRecord `json:"recent_winners"`
}

// Stats assembles the dashboard. Open to anyone; all writes to the
// aggregate happen inside Declare, never here.
func (s *Store) Stats() StatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := StatsView{
		TotalEvents:  s.aggregate.TotalEvents,
		TotalBettors: s.aggregate.TotalBettors,
		TotalWinners: s.aggregate.TotalWinners,
	}
	for _, ev := range s.events {
		if ev.Closed {
			view.ClosedEvents++
		} else {
			view.ActiveEvents++
			view.LiveBettors += ev.TotalBettors()
		}
	}

	// Most recent entries first.
	history := s.aggregate.History
	start := len(history) - RecentHistoryLimit
	if start < 0 {
		start = 0
	}
	for i := len(history) - 1; i >= start; i-- {
		view.RecentWinners = append(view.RecentWinners, history[i])
	}
	return view
}
