// Package study implements the client-side flashcard review loop: it
// filters a set down to the cards that are due, shuffles them, walks the
// user through flip-then-rate, and reports outcomes to the card state
// store. It never computes intervals itself; the store owns the schedule.
package study

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating mirrors the three recall-quality buttons shown after a flip.
type Rating string

const (
	Again Rating = "again"
	Good  Rating = "good"
	Easy  Rating = "easy"
)

func (r Rating) Valid() bool {
	switch r {
	case Again, Good, Easy:
		return true
	}
	return false
}

type Card struct {
	ID    uuid.UUID
	Front string
	Back  string
	// Index is the card's position in the set as authored, kept for
	// display ("card 3 of 20") and as a secondary signal on reviews.
	Index int
}

type Set struct {
	ID       uuid.UUID
	Name     string
	FolderID *uuid.UUID
	Cards    []Card
}

// CardState is the per-card scheduling record as served by the store. A
// card with no CardState at all has never been reviewed and is due
// immediately.
type CardState struct {
	CardID   uuid.UUID
	DueTime  time.Time
	Finished bool
}

type Review struct {
	Card      Card
	Rating    Rating
	TimeTaken time.Duration
}

// StateStore is the narrow view of the backend the engine needs.
type StateStore interface {
	GetFlashcardSet(ctx context.Context, setID uuid.UUID) (*Set, error)
	GetCardStates(ctx context.Context, setID uuid.UUID) (map[uuid.UUID]CardState, error)
	RecordReview(ctx context.Context, setID uuid.UUID, rev Review) error
}

// ErrNoCards means the set has no cards at all. This is the only failure
// that ends a session; everything else degrades so studying can continue.
var ErrNoCards = errors.New("this set has no cards; generate or add some first")

type nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}
