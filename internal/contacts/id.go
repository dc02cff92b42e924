package contacts

import (
	"math/rand/v2"
	"sync"
	"time"
)

// idGenerator issues epochMillis*10000 + random ids. Ids are strictly
// increasing within a process, so same-millisecond calls never collide.
type idGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
	rand func(n int) int
}

func newIDGenerator() *idGenerator {
	return &idGenerator{now: time.Now, rand: rand.IntN}
}

func (g *idGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()*10000 + int64(g.rand(10000))
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
