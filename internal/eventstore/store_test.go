package eventstore

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/nantokaworks/betboard/internal/auth"
	"github.com/nantokaworks/betboard/internal/draw"
	"github.com/nantokaworks/betboard/internal/types"
)

// memoryGateway records snapshots so tests can assert on write-through
// behavior without touching sqlite.
type memoryGateway struct {
	saved   *types.Snapshot
	saves   int
	initial *types.Snapshot
	saveErr error
	loadErr error
}

func (m *memoryGateway) Save(snap *types.Snapshot) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = snap
	return nil
}

func (m *memoryGateway) Load() (*types.Snapshot, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.initial, nil
}

func newTestStore(t *testing.T) (*Store, *memoryGateway) {
	t.Helper()
	gw := &memoryGateway{}
	return New(gw, "default prize", []string{"op"}), gw
}

func openTestEvent(t *testing.T, s *Store, maxWinners int) *types.Event {
	t.Helper()
	ev, err := s.Open("op", "Sono", "Samsung", "2026-02-19 19:00", "gift card", maxWinners)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return ev
}

func participant(i int) types.Participant {
	return types.Participant{
		UserID:      fmt.Sprintf("user-%d", i),
		DisplayName: fmt.Sprintf("User %d", i),
	}
}

func TestOpen_Validation(t *testing.T) {
	s, gw := newTestStore(t)

	for _, bad := range []int{0, -1, 11, 100} {
		if _, err := s.Open("op", "a", "b", "t", "p", bad); !errors.Is(err, ErrWinnerCount) {
			t.Fatalf("maxWinners=%d: unexpected error: %v", bad, err)
		}
	}
	if gw.saves != 0 {
		t.Fatalf("rejected open must not persist, got %d saves", gw.saves)
	}

	ev := openTestEvent(t, s, 3)
	if ev.ID != 1 {
		t.Fatalf("first event id should be 1, got %d", ev.ID)
	}
	if ev.Closed || ev.Outcome != "" {
		t.Fatalf("fresh event must be open with no outcome: %+v", ev)
	}
	if gw.saves != 1 {
		t.Fatalf("open must write through, got %d saves", gw.saves)
	}
}

func TestOpen_DefaultPrize(t *testing.T) {
	s, _ := newTestStore(t)

	ev, err := s.Open("op", "a", "b", "t", "", 1)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if ev.Prize != "default prize" {
		t.Fatalf("unexpected prize: got=%q", ev.Prize)
	}
}

func TestRegisterBet_Rejections(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	if _, err := s.RegisterBet(999, participant(1), types.OutcomeHome); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.RegisterBet(ev.ID, participant(1), "upside-down"); !errors.Is(err, ErrBadOutcome) {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeHome); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}

	// Same identity on any outcome is a duplicate.
	for _, outcome := range types.Outcomes {
		if _, err := s.RegisterBet(ev.ID, participant(1), outcome); !errors.Is(err, ErrAlreadyBet) {
			t.Fatalf("outcome=%s: unexpected error: %v", outcome, err)
		}
	}

	got, err := s.Get("op", ev.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.TotalBettors() != 1 {
		t.Fatalf("rejected bets must not mutate ballots: total=%d", got.TotalBettors())
	}
}

func TestRegisterBet_ClosedEvent(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	if _, err := s.Close("op", ev.ID); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeDraw); !errors.Is(err, ErrClosed) {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Get("op", ev.ID)
	if got.TotalBettors() != 0 {
		t.Fatalf("bet on closed event must not mutate ballots")
	}
}

func TestRegisterBet_ConcurrentSameIdentity(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	// One identity races itself across all three outcomes; exactly one
	// registration may win.
	var wg sync.WaitGroup
	successes := make(chan types.Outcome, 30)
	for i := 0; i < 10; i++ {
		for _, outcome := range types.Outcomes {
			wg.Add(1)
			go func(o types.Outcome) {
				defer wg.Done()
				if _, err := s.RegisterBet(ev.ID, participant(7), o); err == nil {
					successes <- o
				}
			}(outcome)
		}
	}
	wg.Wait()
	close(successes)

	var won []types.Outcome
	for o := range successes {
		won = append(won, o)
	}
	if len(won) != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", len(won))
	}

	got, _ := s.Get("op", ev.ID)
	count := 0
	for _, outcome := range types.Outcomes {
		count += len(got.Bets[outcome])
	}
	if count != 1 {
		t.Fatalf("identity appears %d times across ballots", count)
	}
}

func TestRegisterBet_ConcurrentDistinctIdentities(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome := types.Outcomes[i%3]
			if _, err := s.RegisterBet(ev.ID, participant(i), outcome); err != nil {
				t.Errorf("RegisterBet(%d) failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.Get("op", ev.ID)
	if got.TotalBettors() != 60 {
		t.Fatalf("unexpected bettor count: got=%d want=60", got.TotalBettors())
	}
}

func TestDeclare_DrawsAndAggregates(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 2)

	for i := 1; i <= 3; i++ {
		if _, err := s.RegisterBet(ev.ID, participant(i), types.OutcomeHome); err != nil {
			t.Fatalf("RegisterBet failed: %v", err)
		}
	}
	if _, err := s.RegisterBet(ev.ID, participant(4), types.OutcomeDraw); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}

	res, err := s.Declare("op", ev.ID, types.OutcomeHome)
	if err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if len(res.Winners) != 2 {
		t.Fatalf("unexpected winner count: got=%d want=2", len(res.Winners))
	}
	homeBettors := map[string]bool{"user-1": true, "user-2": true, "user-3": true}
	for _, w := range res.Winners {
		if !homeBettors[w.UserID] {
			t.Fatalf("winner %q did not bet on home", w.UserID)
		}
	}
	if !res.Event.Closed || res.Event.Outcome != types.OutcomeHome {
		t.Fatalf("declare must close and record the outcome: %+v", res.Event)
	}

	stats := s.Stats()
	if stats.TotalEvents != 1 {
		t.Fatalf("unexpected TotalEvents: got=%d want=1", stats.TotalEvents)
	}
	if stats.TotalBettors != 4 {
		t.Fatalf("unexpected TotalBettors: got=%d want=4", stats.TotalBettors)
	}
	if stats.TotalWinners != 2 {
		t.Fatalf("unexpected TotalWinners: got=%d want=2", stats.TotalWinners)
	}
	if len(stats.RecentWinners) != 2 {
		t.Fatalf("unexpected history length: got=%d want=2", len(stats.RecentWinners))
	}
	if stats.RecentWinners[0].EventLabel != "Sono vs Samsung" {
		t.Fatalf("unexpected history label: %q", stats.RecentWinners[0].EventLabel)
	}
}

func TestDeclare_NoCandidates(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 3)

	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeAway); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}

	res, err := s.Declare("op", ev.ID, types.OutcomeHome)
	if err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if !res.NoWinner || len(res.Winners) != 0 {
		t.Fatalf("expected a no-winner result: %+v", res)
	}

	stats := s.Stats()
	if stats.TotalEvents != 1 || stats.TotalBettors != 1 {
		t.Fatalf("resolved event must still be counted: %+v", stats)
	}
	if stats.TotalWinners != 0 || len(stats.RecentWinners) != 0 {
		t.Fatalf("no-winner result must not touch winner accounting: %+v", stats)
	}
}

func TestDeclare_RepeatIsRejected(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)
	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeHome); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}

	if _, err := s.Declare("op", ev.ID, types.OutcomeHome); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	if _, err := s.Declare("op", ev.ID, types.OutcomeAway); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.Get("op", ev.ID)
	if got.Outcome != types.OutcomeHome {
		t.Fatalf("repeat declare must not change the outcome: %q", got.Outcome)
	}
	if stats := s.Stats(); stats.TotalEvents != 1 {
		t.Fatalf("repeat declare must not re-count the event: %+v", stats)
	}
}

func TestDeclare_BadOutcome(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	if _, err := s.Declare("op", ev.ID, "sideways"); !errors.Is(err, ErrBadOutcome) {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Get("op", ev.ID)
	if got.Closed {
		t.Fatalf("rejected declare must not close the event")
	}
}

func TestReroll(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 2)

	if _, err := s.Reroll("op", ev.ID); !errors.Is(err, ErrNoOutcome) {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i <= 5; i++ {
		if _, err := s.RegisterBet(ev.ID, participant(i), types.OutcomeDraw); err != nil {
			t.Fatalf("RegisterBet failed: %v", err)
		}
	}
	if _, err := s.Declare("op", ev.ID, types.OutcomeDraw); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	statsBefore := s.Stats()
	before, _ := s.Get("op", ev.ID)

	for i := 0; i < 10; i++ {
		res, err := s.Reroll("op", ev.ID)
		if err != nil {
			t.Fatalf("Reroll failed: %v", err)
		}
		if len(res.Winners) != 2 {
			t.Fatalf("unexpected reroll winner count: got=%d want=2", len(res.Winners))
		}
		if res.Outcome != types.OutcomeDraw {
			t.Fatalf("reroll must reuse the stored outcome: %q", res.Outcome)
		}
	}

	after, _ := s.Get("op", ev.ID)
	if after.Outcome != before.Outcome || after.Closed != before.Closed {
		t.Fatalf("reroll must not mutate event state")
	}
	if after.TotalBettors() != before.TotalBettors() {
		t.Fatalf("reroll must not mutate ballots")
	}
	statsAfter := s.Stats()
	if statsAfter.TotalWinners != statsBefore.TotalWinners || statsAfter.TotalEvents != statsBefore.TotalEvents {
		t.Fatalf("reroll must not touch the aggregate: before=%+v after=%+v", statsBefore, statsAfter)
	}
}

func TestReroll_NoCandidates(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeAway); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}
	if _, err := s.Declare("op", ev.ID, types.OutcomeHome); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	if _, err := s.Reroll("op", ev.ID); !errors.Is(err, draw.ErrNoCandidates) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_ReturnsRefsAndNeverReusesIDs(t *testing.T) {
	s, _ := newTestStore(t)
	ev := openTestEvent(t, s, 1)

	if err := s.RecordAnnouncement(ev.ID, "msg-1"); err != nil {
		t.Fatalf("RecordAnnouncement failed: %v", err)
	}
	if err := s.RecordAnnouncement(ev.ID, "msg-2"); err != nil {
		t.Fatalf("RecordAnnouncement failed: %v", err)
	}

	refs, err := s.Delete("op", ev.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(refs) != 2 || refs[0] != "msg-1" || refs[1] != "msg-2" {
		t.Fatalf("unexpected refs: %v", refs)
	}

	if _, err := s.Get("op", ev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted event should be gone: %v", err)
	}
	if _, err := s.Delete("op", ev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}

	next := openTestEvent(t, s, 1)
	if next.ID != ev.ID+1 {
		t.Fatalf("deleted id must not be reused: got=%d want=%d", next.ID, ev.ID+1)
	}
}

func TestPrivilegedOperationsRejectNonOperators(t *testing.T) {
	s, gw := newTestStore(t)
	ev := openTestEvent(t, s, 1)
	savesBefore := gw.saves

	calls := map[string]func() error{
		"open":    func() error { _, err := s.Open("mallory", "a", "b", "t", "p", 1); return err },
		"close":   func() error { _, err := s.Close("mallory", ev.ID); return err },
		"declare": func() error { _, err := s.Declare("mallory", ev.ID, types.OutcomeHome); return err },
		"reroll":  func() error { _, err := s.Reroll("mallory", ev.ID); return err },
		"delete":  func() error { _, err := s.Delete("mallory", ev.ID); return err },
		"list":    func() error { _, err := s.List("mallory"); return err },
		"get":     func() error { _, err := s.Get("mallory", ev.ID); return err },
		"addop":   func() error { _, err := s.AddOperator("mallory", "x"); return err },
		"rmop":    func() error { return s.RemoveOperator("mallory", "op") },
		"listop":  func() error { _, err := s.Operators("mallory"); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, auth.ErrNotOperator) {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
	}
	if gw.saves != savesBefore {
		t.Fatalf("rejected operations must not persist")
	}
}

func TestOperatorManagement(t *testing.T) {
	s, _ := newTestStore(t)

	added, err := s.AddOperator("op", "op2")
	if err != nil || !added {
		t.Fatalf("AddOperator failed: added=%v err=%v", added, err)
	}
	added, err = s.AddOperator("op", "op2")
	if err != nil || added {
		t.Fatalf("duplicate add should be a no-op warning: added=%v err=%v", added, err)
	}

	if err := s.RemoveOperator("op", "op"); !errors.Is(err, auth.ErrSelfRemoval) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RemoveOperator("op", "op2"); err != nil {
		t.Fatalf("RemoveOperator failed: %v", err)
	}
	if err := s.RemoveOperator("op", "op"); !errors.Is(err, auth.ErrSelfRemoval) {
		t.Fatalf("unexpected error: %v", err)
	}

	ops, err := s.Operators("op")
	if err != nil {
		t.Fatalf("Operators failed: %v", err)
	}
	if len(ops) != 1 || ops[0] != "op" {
		t.Fatalf("unexpected operator set: %v", ops)
	}
	if !s.IsOperator("op") || s.IsOperator("op2") {
		t.Fatalf("membership probe out of sync")
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	gw := &memoryGateway{}
	s := New(gw, "p", []string{"op"})

	ev := openTestEvent(t, s, 2)
	if _, err := s.RegisterBet(ev.ID, participant(1), types.OutcomeHome); err != nil {
		t.Fatalf("RegisterBet failed: %v", err)
	}
	if _, err := s.Declare("op", ev.ID, types.OutcomeHome); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	restored := New(&memoryGateway{initial: gw.saved}, "p", nil)
	got, err := restored.Get("op", ev.ID)
	if err != nil {
		t.Fatalf("Get after restore failed: %v", err)
	}
	if got.Outcome != types.OutcomeHome || !got.Closed {
		t.Fatalf("restored event state mismatch: %+v", got)
	}
	if stats := restored.Stats(); stats.TotalEvents != 1 || stats.TotalWinners != 1 {
		t.Fatalf("restored aggregate mismatch: %+v", stats)
	}

	next := openTestEvent(t, restored, 1)
	if next.ID != ev.ID+1 {
		t.Fatalf("restored counter must continue: got=%d", next.ID)
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	gw := &memoryGateway{loadErr: errors.New("database disk image is malformed")}
	s := New(gw, "p", []string{"op"})

	events, err := s.List("op")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("unreadable snapshot must start empty, got %d events", len(events))
	}
	if stats := s.Stats(); stats.TotalEvents != 0 || stats.TotalBettors != 0 {
		t.Fatalf("aggregate must start zeroed: %+v", stats)
	}

	// Bootstrap operators stay in force and the counter starts at zero.
	ev := openTestEvent(t, s, 1)
	if ev.ID != 1 {
		t.Fatalf("counter must start fresh: got=%d", ev.ID)
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	gw := &memoryGateway{saveErr: errors.New("disk full")}
	s := New(gw, "p", []string{"op"})

	ev, err := s.Open("op", "a", "b", "t", "p", 1)
	if err != nil {
		t.Fatalf("Open must succeed despite snapshot failure: %v", err)
	}
	if _, err := s.Get("op", ev.ID); err != nil {
		t.Fatalf("in-memory mutation must survive a failed snapshot: %v", err)
	}
}
