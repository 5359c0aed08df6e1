package scheduler

import "math/rand"

// rng wraps a seeded source so every shuffle/choice in a run is
// reproducible given the same seed (a round-trip property).
type rng struct {
	*rand.Rand
}

func newRNG(seed int64) *rng {
	return &rng{rand.New(rand.NewSource(seed))}
}

// shuffleStrings permutes a []string in place using Fisher-Yates.
func (r *rng) shuffleStrings(s []string) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// shuffleInts permutes a []int in place.
func (r *rng) shuffleInts(s []int) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// choicePosition picks a uniformly random element from a non-empty slice
// of candidate positions.
func (r *rng) choicePosition(positions []Position) Position {
	return positions[r.Intn(len(positions))]
}
