package engine

import (
	"sync"

	"github.com/pable/go-match-sim/internal/chance"
)

// lockedRand makes a Rand safe to share between games simulated in parallel.
type lockedRand struct {
	mu  sync.Mutex
	rng chance.Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
