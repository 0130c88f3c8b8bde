package study

import (
	"time"

	"github.com/google/uuid"
)

// QueueCard is a due card in presentation order. ShuffledIndex is its slot
// in the current queue; Card.Index stays the authored position.
type QueueCard struct {
	Card
	ShuffledIndex int
}

// dueCards returns the cards eligible for review now: those with no state
// record, or whose due time has passed. The Finished flag is deliberately
// ignored; a card is never permanently retired, only pushed further out.
func dueCards(cards []Card, states map[uuid.UUID]CardState, now time.Time) []QueueCard {
	due := make([]QueueCard, 0, len(cards))
	for i := range cards {
		state, ok := states[cards[i].ID]
		if ok && state.DueTime.After(now) {
			continue
		}
		due = append(due, QueueCard{Card: cards[i]})
	}
	return due
}

// allCards is the "study all" queue: every card in the set, due or not.
func allCards(cards []Card) []QueueCard {
	queue := make([]QueueCard, len(cards))
	for i := range cards {
		queue[i] = QueueCard{Card: cards[i]}
	}
	return queue
}
