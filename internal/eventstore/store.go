// Package eventstore is the engine behind every betting command: it owns
// the event map, the monotonic id counter, the aggregate statistics and
// the operator set, and it is the only place any of them are mutated.
package eventstore

import (
	"sort"
	"sync"

	"github.com/nantokaworks/betboard/internal/auth"
	"github.com/nantokaworks/betboard/internal/draw"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"github.com/nantokaworks/betboard/internal/types"
	"go.uber.org/zap"
)

// Gateway persists the full engine state. Save runs synchronously inside
// the mutation's critical section (write-through): a crash after an
// operation reported success never loses it, a crash mid-write leaves the
// previous snapshot intact.
type Gateway interface {
	Save(snap *types.Snapshot) error
	// Load returns nil when no snapshot exists yet.
	Load() (*types.Snapshot, error)
}

// Store is the single-writer state engine. One exclusive critical section
// per mutating operation keeps the duplicate-bet check and the ballot
// append atomic even when bets for the same event race.
type Store struct {
	mu           sync.RWMutex
	events       map[int64]*types.Event
	counter      int64
	aggregate    types.Aggregate
	gate         *auth.Gate
	gateway      Gateway
	defaultPrize string
}

// New restores the engine from the gateway's last snapshot. A missing
// snapshot means start empty with the bootstrap operators; an unreadable
// one is logged and treated the same way.
func New(gateway Gateway, defaultPrize string, bootstrapOperators []string) *Store {
	s := &Store{
		events:       make(map[int64]*types.Event),
		gate:         auth.NewGate(bootstrapOperators),
		gateway:      gateway,
		defaultPrize: defaultPrize,
	}

	if gateway == nil {
		return s
	}

	snap, err := gateway.Load()
	if err != nil {
		logger.Error("Failed to restore snapshot, starting empty", zap.Error(err))
		return s
	}
	if snap == nil {
		logger.Info("No snapshot found, starting empty")
		return s
	}

	s.counter = snap.IDCounter
	s.aggregate = snap.Aggregate
	if snap.Events != nil {
		s.events = snap.Events
	}
	if len(snap.Operators) > 0 {
		s.gate.Restore(snap.Operators)
	}

	logger.Info("Snapshot restored",
		zap.Int("events", len(s.events)),
		zap.Int64("id_counter", s.counter),
		zap.Int("operators", s.gate.Len()))
	return s
}

// persist snapshots the full state. Must be called with the write lock
// held. A failed write is logged and the in-memory mutation stands.
func (s *Store) persist() {
	if s.gateway == nil {
		return
	}
	snap := &types.Snapshot{
		IDCounter: s.counter,
		Events:    s.events,
		Aggregate: s.aggregate,
		Operators: s.gate.List(),
	}
	if err := s.gateway.Save(snap); err != nil {
		logger.Error("Snapshot write failed, in-memory state retained", zap.Error(err))
	}
}

func (s *Store) requireOperator(actor string) error {
	if !s.gate.IsOperator(actor) {
		return auth.ErrNotOperator
	}
	return nil
}

// Open creates a new event with empty ballots and allocates the next id.
// Ids are never reused, even after deletion. An empty prize falls back to
// the configured default.
func (s *Store) Open(actor, home, away, scheduledAt, prize string, maxWinners int) (*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}
	if maxWinners < MinWinners || maxWinners > MaxWinners {
		return nil, ErrWinnerCount
	}
	if prize == "" {
		prize = s.defaultPrize
	}

	s.counter++
	ev := &types.Event{
		ID:          s.counter,
		Home:        home,
		Away:        away,
		ScheduledAt: scheduledAt,
		Prize:       prize,
		MaxWinners:  maxWinners,
		Bets:        types.NewBallot(),
	}
	s.events[ev.ID] = ev
	s.persist()

	logger.Info("Event opened",
		zap.Int64("event_id", ev.ID),
		zap.String("home", home),
		zap.String("away", away),
		zap.Int("max_winners", maxWinners))
	return ev.Clone(), nil
}

// RegisterBet appends the participant to the chosen ballot sequence.
// Open to anyone. The duplicate check and the append run under one lock
// so the same identity can never land in two sequences.
func (s *Store) RegisterBet(id int64, p types.Participant, outcome types.Outcome) (*types.Event, error) {
	if !types.ValidOutcome(outcome) {
		return nil, ErrBadOutcome
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ev.Closed {
		return nil, ErrClosed
	}
	if ev.HasBet(p.UserID) {
		return nil, ErrAlreadyBet
	}

	ev.Bets[outcome] = append(ev.Bets[outcome], p)
	s.persist()

	logger.Debug("Bet registered",
		zap.Int64("event_id", id),
		zap.String("user_id", p.UserID),
		zap.String("outcome", string(outcome)))
	return ev.Clone(), nil
}

// Close stops further betting. Closing an already-closed event is the
// no-op conflict ErrAlreadyClosed.
func (s *Store) Close(actor string, id int64) (*types.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ev.Closed {
		return nil, ErrAlreadyClosed
	}

	ev.Closed = true
	s.persist()

	logger.Info("Betting closed", zap.Int64("event_id", id))
	return ev.Clone(), nil
}

// DeclareResult carries everything the transport needs to announce a
// declared (or re-rolled) result.
type DeclareResult struct {
	Event    *types.Event
	Outcome  types.Outcome
	Winners  []types.Participant
	NoWinner bool
}

// Declare closes the event if needed, records the outcome, draws up to
// MaxWinners winners from the matching ballot and updates the aggregate.
// A second call on a resolved event is rejected with ErrAlreadyResolved
// instead of re-drawing, so the aggregate is counted exactly once.
func (s *Store) Declare(actor string, id int64, outcome types.Outcome) (*DeclareResult, error) {
	if !types.ValidOutcome(outcome) {
		return nil, ErrBadOutcome
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ev.Outcome != "" {
		return nil, ErrAlreadyResolved
	}

	candidates := ev.Bets[outcome]

	// Draw before touching any state so an RNG failure rejects cleanly.
	var winners []types.Participant
	if len(candidates) > 0 {
		picked, err := draw.Sample(candidates, ev.MaxWinners)
		if err != nil {
			return nil, err
		}
		winners = picked
	}

	ev.Closed = true
	ev.Outcome = outcome

	s.aggregate.TotalEvents++
	s.aggregate.TotalBettors += ev.TotalBettors()
	s.aggregate.TotalWinners += len(winners)
	for _, w := range winners {
		s.aggregate.History = append(s.aggregate.History, types.WinnerRecord{
			EventLabel:   ev.Label(),
			WinnerName:   w.DisplayName,
			Prize:        ev.Prize,
			OutcomeLabel: ev.OutcomeLabel(outcome),
		})
	}
	s.persist()

	logger.Info("Outcome declared",
		zap.Int64("event_id", id),
		zap.String("outcome", string(outcome)),
		zap.Int("winners", len(winners)))
	return &DeclareResult{
		Event:    ev.Clone(),
		Outcome:  outcome,
		Winners:  winners,
		NoWinner: len(winners) == 0,
	}, nil
}

// Reroll draws a fresh, independent winner subset from the stored
// outcome's ballot. Event state and aggregate are left untouched, so
// repeated rerolls never double-count anything.
func (s *Store) Reroll(actor string, id int64) (*DeclareResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ev.Outcome == "" {
		return nil, ErrNoOutcome
	}

	winners, err := draw.Sample(ev.Bets[ev.Outcome], ev.MaxWinners)
	if err != nil {
		return nil, err
	}

	logger.Info("Winners re-drawn",
		zap.Int64("event_id", id),
		zap.Int("winners", len(winners)))
	return &DeclareResult{
		Event:   ev.Clone(),
		Outcome: ev.Outcome,
		Winners: winners,
	}, nil
}

// Delete removes the event and returns the announcement refs the caller
// should attempt to retract. Retraction failures are the caller's
// problem and never resurrect the event.
func (s *Store) Delete(actor string, id int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}

	refs := append([]string(nil), ev.Announcements...)
	delete(s.events, id)
	s.persist()

	logger.Info("Event deleted",
		zap.Int64("event_id", id),
		zap.Int("announcements", len(refs)))
	return refs, nil
}

// RecordAnnouncement appends a published message ref to the event. Called
// by the transport after a successful publish; a deleted event just
// reports ErrNotFound and the orphan message stays the caller's to clean.
func (s *Store) RecordAnnouncement(id int64, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.Announcements = append(ev.Announcements, ref)
	s.persist()
	return nil
}

// Get returns a consistent copy of one event.
func (s *Store) Get(actor string, id int64) (*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ev, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ev.Clone(), nil
}

// List returns copies of all events ordered by id.
func (s *Store) List(actor string) ([]*types.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*types.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.events[id].Clone())
	}
	return out, nil
}
