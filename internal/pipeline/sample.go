package pipeline

import (
	"math"
	"math/rand"
	"sort"
)

// sampleIndices picks a random spot-check subset of candidates. The subset
// size is fraction of the candidate count, clamped to [min, max] and to the
// number of candidates available. Results are sorted for stable iteration.
func sampleIndices(rng *rand.Rand, candidates []int, fraction float64, min, max int) []int {
	if len(candidates) == 0 {
		return nil
	}

	n := int(math.Round(float64(len(candidates)) * fraction))
	if n < min {
		n = min
	}
	if n > max {
		n = max
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}

	pool := make([]int, len(candidates))
	copy(pool, candidates)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	picked := pool[:n]
	sort.Ints(picked)
	return picked
}
