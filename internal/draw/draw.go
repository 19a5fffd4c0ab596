package draw

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/nantokaworks/betboard/internal/types"
)

var (
	ErrNoCandidates = errors.New("no candidates")

	errInvalidBound = errors.New("invalid random bound")
)

var sampleRandomInt = secureRandomInt

// Sample returns a uniformly random subset of min(k, len(candidates))
// participants without replacement. Every call is an independent draw:
// two calls with the same input are not expected to agree, which is what
// makes a re-draw meaningful.
func Sample(candidates []types.Participant, k int) ([]types.Participant, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	if k <= 0 {
		return []types.Participant{}, nil
	}

	// Partial Fisher-Yates over a copy; the first k slots end up holding
	// the selected subset.
	pool := append([]types.Participant(nil), candidates...)
	for i := 0; i < k; i++ {
		j, err := sampleRandomInt(len(pool) - i)
		if err != nil {
			return nil, fmt.Errorf("failed to pick random index: %w", err)
		}
		pool[i], pool[i+j] = pool[i+j], pool[i]
	}

	return pool[:k], nil
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidBound
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
