package selector

import (
	"math/rand/v2"
	"sync"
)

// Policy picks an index in [0, n). n is always positive.
type Policy interface {
	Intn(n int) int
}

type uniformPolicy struct{}

// NewUniformPolicy returns the production policy backed by the runtime's
// goroutine-safe random source.
func NewUniformPolicy() Policy { return uniformPolicy{} }

func (uniformPolicy) Intn(n int) int { return rand.IntN(n) }

// SeededPolicy is deterministic for a given seed. It is safe for concurrent
// use, though interleaving across goroutines makes the sequence order-dependent.
type SeededPolicy struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeededPolicy(seed uint64) *SeededPolicy {
	return &SeededPolicy{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *SeededPolicy) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.IntN(n)
}
