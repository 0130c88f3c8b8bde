package study

import (
	"math/rand/v2"
)

// shuffleQueue permutes the queue in place with a Fisher-Yates shuffle and
// then rewrites each entry's ShuffledIndex to its new slot. Callers
// reshuffle on every due-set recompute, not once per session, so the order
// changes after each review.
func shuffleQueue(queue []QueueCard) {
	for i := len(queue) - 1; i >= 1; i-- {
		j := rand.IntN(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}
	for i := range queue {
		queue[i].ShuffledIndex = i
	}
}
