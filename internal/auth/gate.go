// Package auth answers "is this identity allowed to run privileged
// commands" and guards mutation of the operator set itself.
package auth

import (
	"errors"
	"sort"
)

var (
	ErrNotOperator  = errors.New("identity is not an operator")
	ErrSelfRemoval  = errors.New("operators cannot remove themselves")
	ErrLastOperator = errors.New("cannot remove the last operator")
)

// Gate holds the operator identity set. It carries no lock of its own:
// the owning store serializes all access (single-writer model), so the
// gate stays a plain value type that snapshots cleanly.
type Gate struct {
	ids map[string]bool
}

// NewGate bootstraps the gate from the configured identities.
func NewGate(initial []string) *Gate {
	g := &Gate{ids: make(map[string]bool, len(initial))}
	for _, id := range initial {
		g.ids[id] = true
	}
	return g
}

func (g *Gate) IsOperator(id string) bool {
	return g.ids[id]
}

// Add registers a new operator. Returns false when the identity is
// already present, which callers report as a warning rather than an error.
func (g *Gate) Add(id string) bool {
	if g.ids[id] {
		return false
	}
	g.ids[id] = true
	return true
}

// Remove drops target from the set. The requester cannot remove itself,
// and the removal that would empty the set is rejected, so a bootstrapped
// gate always keeps at least one member.
func (g *Gate) Remove(target, requestedBy string) error {
	if !g.ids[target] {
		return ErrNotOperator
	}
	// Self-removal is checked first: a one-member set always trips it
	// before the last-operator guard when the requester is the target.
	if target == requestedBy {
		return ErrSelfRemoval
	}
	if len(g.ids) <= 1 {
		return ErrLastOperator
	}
	delete(g.ids, target)
	return nil
}

// List returns the operator identities in sorted order.
func (g *Gate) List() []string {
	out := make([]string, 0, len(g.ids))
	for id := range g.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (g *Gate) Len() int {
	return len(g.ids)
}

// Restore replaces the whole set from a persisted snapshot.
func (g *Gate) Restore(ids []string) {
	g.ids = make(map[string]bool, len(ids))
	for _, id := range ids {
		g.ids[id] = true
	}
}
