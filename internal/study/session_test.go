package study

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"
)

type FakeNower struct{ fakenow time.Time }

func (f FakeNower) Now() time.Time {
	return f.fakenow
}

type fakeStore struct {
	set    *Set
	states map[uuid.UUID]CardState

	setErr    error
	statesErr error
	recordErr error

	stateFetches int
	reviews      []Review

	// onRecord runs while a review submission is "in flight", before
	// RecordReview returns.
	onRecord func()
}

func (f *fakeStore) GetFlashcardSet(ctx context.Context, setID uuid.UUID) (*Set, error) {
	if f.setErr != nil {
		return nil, f.setErr
	}
	return f.set, nil
}

func (f *fakeStore) GetCardStates(ctx context.Context, setID uuid.UUID) (map[uuid.UUID]CardState, error) {
	f.stateFetches++
	if f.statesErr != nil {
		return nil, f.statesErr
	}
	return f.states, nil
}

func (f *fakeStore) RecordReview(ctx context.Context, setID uuid.UUID, rev Review) error {
	f.reviews = append(f.reviews, rev)
	if f.onRecord != nil {
		f.onRecord()
	}
	return f.recordErr
}

func testSet(n int) *Set {
	return &Set{ID: uuid.New(), Name: "biology", Cards: testCards(n)}
}

func newTestSession(store StateStore) (*Session, *FakeNower) {
	fakenower := &FakeNower{fakenow: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewSession(store, uuid.New())
	s.Nower = fakenower
	return s, fakenower
}

func TestSessionStart(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(3)}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseReady)
	is.Equal(s.Remaining(), 3)
	is.True(!s.Flipped())

	_, ok := s.Current()
	is.True(ok)
}

func TestSessionStartSetLoadFails(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{setErr: errors.New("boom")}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.True(err != nil)
	is.Equal(s.Phase(), PhaseError)
	is.Equal(s.Err(), err)
}

func TestSessionStartEmptySet(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(0)}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.True(errors.Is(err, ErrNoCards))
	is.Equal(s.Phase(), PhaseError)
}

func TestSessionFailsOpenOnStateFetch(t *testing.T) {
	is := is.New(t)
	// The state fetch blowing up must not block studying; every card is
	// treated as due instead.
	store := &fakeStore{set: testSet(4), statesErr: errors.New("db down")}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseReady)
	is.Equal(s.Remaining(), 4)
}

func TestSessionNothingDue(t *testing.T) {
	is := is.New(t)
	set := testSet(2)
	store := &fakeStore{set: set, states: map[uuid.UUID]CardState{}}
	s, fakenower := newTestSession(store)
	for _, c := range set.Cards {
		store.states[c.ID] = CardState{CardID: c.ID, DueTime: fakenower.fakenow.Add(time.Hour)}
	}

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseDone)
	is.Equal(s.Remaining(), 0)

	_, ok := s.Current()
	is.True(!ok)
}

func TestSessionFlipThenRate(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(2)}
	s, fakenower := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)

	// Rating before flipping is rejected.
	err = s.Rate(context.Background(), Good)
	is.True(err != nil)
	is.Equal(len(store.reviews), 0)

	s.Flip()
	is.True(s.Flipped())

	err = s.Rate(context.Background(), "sorta")
	is.True(err != nil)
	is.Equal(len(store.reviews), 0)

	fakenower.fakenow = fakenower.fakenow.Add(time.Second * 7)
	card, ok := s.Current()
	is.True(ok)
	err = s.Rate(context.Background(), Good)
	is.NoErr(err)

	is.Equal(len(store.reviews), 1)
	is.Equal(store.reviews[0].Card.ID, card.ID)
	is.Equal(store.reviews[0].Rating, Good)
	is.Equal(store.reviews[0].TimeTaken, time.Second*7)

	// The queue came back from the store and the flip state was reset.
	is.Equal(s.Phase(), PhaseReady)
	is.Equal(s.Remaining(), 1)
	is.True(!s.Flipped())
}

func TestSessionReloadsStatesAfterEveryRating(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(3)}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(store.stateFetches, 1)

	for i := 0; i < 3; i++ {
		s.Flip()
		err = s.Rate(context.Background(), Easy)
		is.NoErr(err)
		is.Equal(store.stateFetches, i+2)
	}
	is.Equal(s.Phase(), PhaseDone)
}

func TestSessionSwallowsRecordFailure(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(2), recordErr: errors.New("write failed")}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)

	s.Flip()
	// The failed submission is logged and swallowed; the session moves on.
	err = s.Rate(context.Background(), Again)
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseReady)
	is.Equal(s.Remaining(), 1)
}

func TestSessionRejectsRatingWhileSubmitting(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(3)}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)
	s.Flip()

	// A second keypress landing while the first submission is still in
	// flight must not produce a second submission for the same card.
	var reentrantErr error
	store.onRecord = func() {
		reentrantErr = s.Rate(context.Background(), Good)
	}
	card, ok := s.Current()
	is.True(ok)
	err = s.Rate(context.Background(), Good)
	is.NoErr(err)

	is.True(reentrantErr != nil)
	is.Equal(len(store.reviews), 1)
	is.Equal(store.reviews[0].Card.ID, card.ID)
}

func TestSessionStudyAll(t *testing.T) {
	is := is.New(t)
	set := testSet(3)
	store := &fakeStore{set: set, states: map[uuid.UUID]CardState{}}
	s, fakenower := newTestSession(store)
	for _, c := range set.Cards {
		store.states[c.ID] = CardState{CardID: c.ID, DueTime: fakenower.fakenow.Add(time.Hour)}
	}

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseDone)

	err = s.StudyAll(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseReady)
	is.Equal(s.Remaining(), 3)

	// Work through the whole set; rated cards don't reappear even though
	// their due times stay in the future.
	for i := 0; i < 3; i++ {
		s.Flip()
		err = s.Rate(context.Background(), Good)
		is.NoErr(err)
	}
	is.Equal(s.Phase(), PhaseDone)
	is.Equal(len(store.reviews), 3)
}

func TestSessionStudyAllOnlyFromDone(t *testing.T) {
	is := is.New(t)
	store := &fakeStore{set: testSet(2)}
	s, _ := newTestSession(store)

	err := s.Start(context.Background())
	is.NoErr(err)
	is.Equal(s.Phase(), PhaseReady)

	err = s.StudyAll(context.Background())
	is.True(err != nil)
	is.Equal(s.Phase(), PhaseReady)
}
