package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseDone
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseDone:
		return "done"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

// Session is one run through a set's due cards. It is single-user and
// single-goroutine; the UI serializes calls by disabling input while a
// method is in flight.
type Session struct {
	Nower nower

	store StateStore
	setID uuid.UUID

	set      *Set
	studyAll bool
	reviewed map[uuid.UUID]bool

	queue   []QueueCard
	cursor  int
	flipped bool
	shownAt time.Time

	phase Phase
	err   error
}

func NewSession(store StateStore, setID uuid.UUID) *Session {
	return &Session{
		Nower:    RealNower{},
		store:    store,
		setID:    setID,
		reviewed: map[uuid.UUID]bool{},
	}
}

// Start loads the set and computes the first due queue. A set that cannot
// be loaded, or has no cards, is the one fatal condition (ErrNoCards).
func (s *Session) Start(ctx context.Context) error {
	s.phase = PhaseLoading
	set, err := s.store.GetFlashcardSet(ctx, s.setID)
	if err != nil {
		s.phase = PhaseError
		s.err = fmt.Errorf("loading set: %w", err)
		return s.err
	}
	if set == nil || len(set.Cards) == 0 {
		s.phase = PhaseError
		s.err = ErrNoCards
		return s.err
	}
	s.set = set
	return s.recompute(ctx)
}

// recompute rebuilds the queue from server state: fetch card states, filter
// to due (or take everything in study-all mode), drop cards already rated
// this session, reshuffle. Always a fresh fetch; local state is never
// optimistically mutated, so the queue reflects whatever the store decided.
func (s *Session) recompute(ctx context.Context) error {
	s.phase = PhaseLoading
	s.flipped = false

	states, err := s.store.GetCardStates(ctx, s.setID)
	if err != nil {
		// Fail open: with no state every card counts as due. Studying
		// should not be blocked by a flaky backend.
		log.Err(err).Str("set", s.setID.String()).Msg("card-states-fetch-failed")
		states = nil
	}

	var queue []QueueCard
	if s.studyAll {
		queue = allCards(s.set.Cards)
	} else {
		queue = dueCards(s.set.Cards, states, s.Nower.Now())
	}
	remaining := queue[:0]
	for _, qc := range queue {
		if !s.reviewed[qc.ID] {
			remaining = append(remaining, qc)
		}
	}
	shuffleQueue(remaining)

	s.queue = remaining
	s.cursor = 0
	if len(s.queue) == 0 {
		s.phase = PhaseDone
		return nil
	}
	s.phase = PhaseReady
	s.shownAt = s.Nower.Now()
	return nil
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Err() error {
	return s.err
}

func (s *Session) Set() *Set {
	return s.set
}

// Current returns the card being shown, front first.
func (s *Session) Current() (QueueCard, bool) {
	if s.phase != PhaseReady {
		return QueueCard{}, false
	}
	return s.queue[s.cursor], true
}

func (s *Session) Remaining() int {
	if s.phase != PhaseReady {
		return 0
	}
	return len(s.queue) - s.cursor
}

func (s *Session) Flipped() bool {
	return s.flipped
}

// Flip reveals the back of the current card. Rating is only possible after
// a flip.
func (s *Session) Flip() {
	if s.phase != PhaseReady {
		return
	}
	s.flipped = true
}

// Rate submits the user's recall rating for the current card along with the
// time spent on it, then rebuilds the queue from the store. A failed
// submission is logged and swallowed; the card's schedule just doesn't
// advance, which errs on the side of more review.
func (s *Session) Rate(ctx context.Context, rating Rating) error {
	if s.phase != PhaseReady {
		return errors.New("no card is being shown")
	}
	if !s.flipped {
		return errors.New("flip the card before rating it")
	}
	if !rating.Valid() {
		return fmt.Errorf("invalid rating %q", rating)
	}
	card := s.queue[s.cursor]
	elapsed := s.Nower.Now().Sub(s.shownAt)

	// Leave the ready phase before the round trip. A second submission
	// while this one is in flight is rejected instead of racing it.
	s.phase = PhaseLoading
	s.flipped = false

	rev := Review{Card: card.Card, Rating: rating, TimeTaken: elapsed}
	if err := s.store.RecordReview(ctx, s.setID, rev); err != nil {
		log.Err(err).Str("set", s.setID.String()).Str("card", card.ID.String()).
			Msg("record-review-failed")
	}
	s.reviewed[card.ID] = true
	return s.recompute(ctx)
}

// StudyAll restarts the queue over the entire set, ignoring due times. Only
// reachable from done, as an explicit user choice.
func (s *Session) StudyAll(ctx context.Context) error {
	if s.phase != PhaseDone {
		return errors.New("study all is only available once nothing is due")
	}
	s.studyAll = true
	s.reviewed = map[uuid.UUID]bool{}
	return s.recompute(ctx)
}
