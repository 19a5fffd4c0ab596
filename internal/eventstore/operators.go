package eventstore

import (
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"go.uber.org/zap"
)

// Operator-set mutations route through the store so they share its
// critical section and write-through persistence with everything else.

// AddOperator grants the identity privileged access. Returns false when
// it was already an operator (reported as a warning, not an error).
func (s *Store) AddOperator(actor, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return false, err
	}

	added := s.gate.Add(id)
	if added {
		s.persist()
		logger.Info("Operator added",
			zap.String("operator", id),
			zap.String("by", actor))
	}
	return added, nil
}

// RemoveOperator revokes the identity. Self-removal and removing the
// last operator are rejected by the gate with the set unchanged.
func (s *Store) RemoveOperator(actor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperator(actor); err != nil {
		return err
	}

	if err := s.gate.Remove(id, actor); err != nil {
		return err
	}
	s.persist()
	logger.Info("Operator removed",
		zap.String("operator", id),
		zap.String("by", actor))
	return nil
}

// Operators lists the current operator identities, sorted.
func (s *Store) Operators(actor string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireOperator(actor); err != nil {
		return nil, err
	}
	return s.gate.List(), nil
}

// IsOperator answers the unprivileged membership probe (the /whoami path).
func (s *Store) IsOperator(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gate.IsOperator(id)
}
