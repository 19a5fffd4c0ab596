package localdb

import (
	"database/sql"
	"fmt"

	"github.com/nantokaworks/betboard/internal/shared/logger"
	"github.com/nantokaworks/betboard/internal/types"
	"go.uber.org/zap"
)

// Gateway adapts the snapshot database to the eventstore's persistence
// contract. One value wraps the shared connection so the store never
// touches SQL directly.
type Gateway struct {
	db *sql.DB
}

func NewGateway(db *sql.DB) *Gateway {
	return &Gateway{db: db}
}

// Save rewrites the full snapshot in a single transaction. The previous
// snapshot only disappears when the commit lands, so a crash mid-write
// leaves the last known good state on disk.
func (g *Gateway) Save(snap *types.Snapshot) error {
	tx, err := g.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"meta", "events", "bets", "announcements", "operators", "aggregate", "winner_history"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta (id, id_counter) VALUES (1, ?)`, snap.IDCounter); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}

	for id, ev := range snap.Events {
		if _, err := tx.Exec(`
			INSERT INTO events (id, home, away, scheduled_at, prize, max_winners, closed, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, ev.Home, ev.Away, ev.ScheduledAt, ev.Prize, ev.MaxWinners, ev.Closed, string(ev.Outcome),
		); err != nil {
			return fmt.Errorf("failed to write event %d: %w", id, err)
		}

		for _, outcome := range types.Outcomes {
			for pos, p := range ev.Bets[outcome] {
				if _, err := tx.Exec(`
					INSERT INTO bets (event_id, outcome, position, user_id, display_name)
					VALUES (?, ?, ?, ?, ?)`,
					id, string(outcome), pos, p.UserID, p.DisplayName,
				); err != nil {
					return fmt.Errorf("failed to write bet for event %d: %w", id, err)
				}
			}
		}

		for pos, ref := range ev.Announcements {
			if _, err := tx.Exec(`
				INSERT INTO announcements (event_id, position, ref) VALUES (?, ?, ?)`,
				id, pos, ref,
			); err != nil {
				return fmt.Errorf("failed to write announcement for event %d: %w", id, err)
			}
		}
	}

	for _, identity := range snap.Operators {
		if _, err := tx.Exec(`INSERT INTO operators (identity) VALUES (?)`, identity); err != nil {
			return fmt.Errorf("failed to write operator: %w", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO aggregate (id, total_events, total_bettors, total_winners)
		VALUES (1, ?, ?, ?)`,
		snap.Aggregate.TotalEvents, snap.Aggregate.TotalBettors, snap.Aggregate.TotalWinners,
	); err != nil {
		return fmt.Errorf("failed to write aggregate: %w", err)
	}

	for _, rec := range snap.Aggregate.History {
		if _, err := tx.Exec(`
			INSERT INTO winner_history (event_label, winner_name, prize, outcome_label)
			VALUES (?, ?, ?, ?)`,
			rec.EventLabel, rec.WinnerName, rec.Prize, rec.OutcomeLabel,
		); err != nil {
			return fmt.Errorf("failed to write winner history: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	logger.Debug("Snapshot saved",
		zap.Int("events", len(snap.Events)),
		zap.Int64("id_counter", snap.IDCounter))
	return nil
}

// Load reconstructs the last snapshot. Returns nil when the database is
// fresh (no meta row), which the store treats as start-empty.
func (g *Gateway) Load() (*types.Snapshot, error) {
	snap := &types.Snapshot{Events: make(map[int64]*types.Event)}

	err := g.db.QueryRow(`SELECT id_counter FROM meta WHERE id = 1`).Scan(&snap.IDCounter)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta: %w", err)
	}

	if err := g.loadEvents(snap); err != nil {
		return nil, err
	}
	if err := g.loadBets(snap); err != nil {
		return nil, err
	}
	if err := g.loadAnnouncements(snap); err != nil {
		return nil, err
	}
	if err := g.loadOperators(snap); err != nil {
		return nil, err
	}
	if err := g.loadAggregate(snap); err != nil {
		return nil, err
	}

	return snap, nil
}

func (g *Gateway) loadEvents(snap *types.Snapshot) error {
	rows, err := g.db.Query(`
		SELECT id, home, away, scheduled_at, prize, max_winners, closed, outcome
		FROM events`)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		ev := &types.Event{Bets: types.NewBallot()}
		var outcome string
		if err := rows.Scan(&ev.ID, &ev.Home, &ev.Away, &ev.ScheduledAt, &ev.Prize,
			&ev.MaxWinners, &ev.Closed, &outcome); err != nil {
			return fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Outcome = types.Outcome(outcome)
		snap.Events[ev.ID] = ev
	}
	return rows.Err()
}

func (g *Gateway) loadBets(snap *types.Snapshot) error {
	// Position order restores the original append order of each ballot.
	rows, err := g.db.Query(`
		SELECT event_id, outcome, user_id, display_name
		FROM bets ORDER BY event_id, outcome, position`)
	if err != nil {
		return fmt.Errorf("failed to read bets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var outcome string
		var p types.Participant
		if err := rows.Scan(&eventID, &outcome, &p.UserID, &p.DisplayName); err != nil {
			return fmt.Errorf("failed to scan bet: %w", err)
		}
		ev, ok := snap.Events[eventID]
		if !ok {
			logger.Warn("Orphan bet row ignored", zap.Int64("event_id", eventID))
			continue
		}
		ev.Bets[types.Outcome(outcome)] = append(ev.Bets[types.Outcome(outcome)], p)
	}
	return rows.Err()
}

func (g *Gateway) loadAnnouncements(snap *types.Snapshot) error {
	rows, err := g.db.Query(`
		SELECT event_id, ref FROM announcements ORDER BY event_id, position`)
	if err != nil {
		return fmt.Errorf("failed to read announcements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var ref string
		if err := rows.Scan(&eventID, &ref); err != nil {
			return fmt.Errorf("failed to scan announcement: %w", err)
		}
		if ev, ok := snap.Events[eventID]; ok {
			ev.Announcements = append(ev.Announcements, ref)
		}
	}
	return rows.Err()
}

func (g *Gateway) loadOperators(snap *types.Snapshot) error {
	rows, err := g.db.Query(`SELECT identity FROM operators ORDER BY identity`)
	if err != nil {
		return fmt.Errorf("failed to read operators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return fmt.Errorf("failed to scan operator: %w", err)
		}
		snap.Operators = append(snap.Operators, identity)
	}
	return rows.Err()
}

func (g *Gateway) loadAggregate(snap *types.Snapshot) error {
	err := g.db.QueryRow(`
		SELECT total_events, total_bettors, total_winners FROM aggregate WHERE id = 1`).
		Scan(&snap.Aggregate.TotalEvents, &snap.Aggregate.TotalBettors, &snap.Aggregate.TotalWinners)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read aggregate: %w", err)
	}

	rows, err := g.db.Query(`
		SELECT event_label, winner_name, prize, outcome_label
		FROM winner_history ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to read winner history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec types.WinnerRecord
		if err := rows.Scan(&rec.EventLabel, &rec.WinnerName, &rec.Prize, &rec.OutcomeLabel); err != nil {
			return fmt.Errorf("failed to scan winner history: %w", err)
		}
		snap.Aggregate.History = append(snap.Aggregate.History, rec)
	}
	return rows.Err()
}
