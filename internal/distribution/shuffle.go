package distribution

import "math/rand/v2"

// Shuffler produces uniform random permutations. A Shuffler is not safe for
// concurrent use; create one per distribution call.
type Shuffler struct {
	rng *rand.Rand
}

// NewShuffler returns a Shuffler seeded from the runtime's random source.
func NewShuffler() *Shuffler {
	return NewSeededShuffler(rand.Uint64(), rand.Uint64())
}

// NewSeededShuffler returns a deterministic Shuffler.
func NewSeededShuffler(seed1, seed2 uint64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Shuffle permutes xs in place (Fisher-Yates, last index down to 1).
func (s *Shuffler) Shuffle(xs []int) {
	for i := len(xs) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
