package cardvault

import (
	"math/rand/v2"
	"time"

	"github.com/open-spaced-repetition/go-fsrs/v3"
)

// Rating is the recall-quality signal a user submits after flipping a card.
// The interval computation from a rating lives entirely on this side; study
// clients only ever send one of these three values plus elapsed time.
type Rating string

const (
	RatingAgain Rating = "again"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

var fsrsRatings = map[Rating]fsrs.Rating{
	RatingAgain: fsrs.Again,
	RatingGood:  fsrs.Good,
	RatingEasy:  fsrs.Easy,
}

func (r Rating) valid() bool {
	_, ok := fsrsRatings[r]
	return ok
}

func schedulerParams() fsrs.Parameters {
	params := fsrs.DefaultParam()
	params.EnableShortTerm = false
	params.EnableFuzz = true
	params.MaximumInterval = 365 * 5 // Default is 100 years, which is a bit optimistic
	return params
}

func applyRating(f *fsrs.FSRS, card fsrs.Card, rating Rating, now time.Time) (fsrs.Card, fsrs.ReviewLog) {
	schedulingCards := f.Repeat(card, now)
	r := fsrsRatings[rating]
	return schedulingCards[r].Card, schedulingCards[r].ReviewLog
}

// The fsrs library fuzzes only by day. It tends to ask questions at the same
// hour and minute that they were asked last. We want to add a little bit of a fuzz
// to allow for more randomness.
func furtherFuzzDueDate(params fsrs.Parameters, now time.Time, card *fsrs.Card) {
	if !params.EnableFuzz || params.EnableShortTerm {
		return
	}
	// Find a random second in a 21,600-second interval (6 hours) centered
	// around the due date.
	fuzzFactor := 21600 // 6 hours

	if card.Due.Sub(now) > (time.Hour * 720) {
		// Fuzz by 24 hours
		fuzzFactor = 86400
	}

	d := int64(rand.Int32N(int32(fuzzFactor)))
	d -= (int64(fuzzFactor) / 2)

	card.Due = card.Due.Add(time.Duration(d) * time.Second)
}
