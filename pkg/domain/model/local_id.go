package model

import "sync"

// LocalIDGenerator hands out ids in the local range. It is owned by whichever
// gateway creates items the remote resource will not remember.
type LocalIDGenerator struct {
	mu   sync.Mutex
	last ItemID
}

// NewLocalIDGenerator starts the sequence right after seed. Seeds below
// LocalIDThreshold are raised to it so generated ids never fall into the
// remote range.
func NewLocalIDGenerator(seed int64) *LocalIDGenerator {
	start := ItemID(seed)
	if start < LocalIDThreshold {
		start = LocalIDThreshold
	}
	return &LocalIDGenerator{last: start}
}

func (g *LocalIDGenerator) Next() ItemID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last++
	return g.last
}
