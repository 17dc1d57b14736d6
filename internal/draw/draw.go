// Package draw provides seeded weighted selection and shuffling.
package draw

import (
	"math"
	"math/rand"
)

// PickWeighted picks one item with probability proportional to its weight.
// Non-finite or non-positive weights count as 1. Returns (zero, false) on an
// empty slice. If the weight total itself is unusable, the pick falls back to
// a uniform index.
func PickWeighted[T any](rnd *rand.Rand, items []T, weightOf func(T) float64) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	total := 0.0
	for _, item := range items {
		total += safeWeight(weightOf(item))
	}
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return items[rnd.Intn(len(items))], true
	}
	remainder := rnd.Float64() * total
	for _, item := range items {
		remainder -= safeWeight(weightOf(item))
		if remainder <= 0 {
			return item, true
		}
	}
	// float rounding can leave a sliver of remainder
	return items[len(items)-1], true
}

// Shuffle permutes items in place with a Fisher-Yates walk from last to first.
func Shuffle[T any](rnd *rand.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

func safeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 1
	}
	return w
}
