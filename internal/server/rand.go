package server

import (
	"math/rand/v2"
	"sync"

	"github.com/victornm/quizladder/internal/game"
)

// lockedRand shares a seeded generator between request goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

type runtimeRand struct{}

func (runtimeRand) IntN(n int) int { return rand.IntN(n) }

// newRand returns the source shared by the game and question services. Both take the same
// IntN shape, so game.Rand serves either.
func newRand(seed uint64) game.Rand {
	if seed == 0 {
		return runtimeRand{}
	}

	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed))}
}
