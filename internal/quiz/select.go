package quiz

import (
	"math/rand"
	"strings"
)

// MinQuestions is the floor for a game's question count.
const MinQuestions = 5

// Select derives a game's question order from the static bank. The requested
// count is clamped to [MinQuestions, len(pool)], and the returned order is a
// uniformly random permutation of the pool's indices truncated to that count.
// Select never fails; unknown difficulties fall back to the mixed pool.
func Select(difficulty string, requested int) (order []int, pool []Question) {
	pool = Pool(strings.ToLower(strings.TrimSpace(difficulty)))

	count := requested
	if count < MinQuestions {
		count = MinQuestions
	}
	if count > len(pool) {
		count = len(pool)
	}

	order = make([]int, len(pool))
	for i := range order {
		order[i] = i
	}
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order[:count], pool
}
