package stores

import (
	"github.com/open-spaced-repetition/go-fsrs/v3"
)

type Card struct {
	fsrs.Card
}

// ReviewLog is one review outcome. On top of the FSRS log we keep the
// wall-clock time the user spent looking at the card before rating it; the
// client sends it as a secondary signal.
type ReviewLog struct {
	fsrs.ReviewLog
	TimeTakenSeconds float64 `json:"time_taken,omitempty"`
}
