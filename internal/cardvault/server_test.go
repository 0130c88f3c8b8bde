package cardvault

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/matryer/is"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/config"
	"github.com/prepwise/study_server/internal/auth"
	"github.com/prepwise/study_server/internal/stores/models"
)

var DefaultConfig = &config.Config{
	DBMigrationsPath: os.Getenv("DB_MIGRATIONS_PATH"),
	MaxCardsPerSet:   500,
	MaxCardsAdd:      100,
}

func testDBURI(useDBName bool) string {
	user := os.Getenv("TEST_DBUSER")
	pass := os.Getenv("TEST_DBPASSWORD")
	dbname := os.Getenv("TEST_DBNAME")
	dbhost := os.Getenv("TEST_DBHOST")
	dbport := os.Getenv("TEST_DBPORT")
	sslmode := os.Getenv("TEST_DBSSLMODE")

	if !useDBName {
		dbname = ""
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, dbhost, dbport, dbname, sslmode)
}

func requireTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_DBHOST") == "" {
		t.Skip("TEST_DBHOST not set; skipping DB-backed test")
	}
}

func ctxForTests() context.Context {
	ctx := context.Background()
	ctx = log.Logger.WithContext(ctx)
	ctx = auth.StoreUserInContext(ctx, "user-1", "cesar")
	return ctx
}

func RecreateTestDB() error {
	ctx := context.Background()
	db, err := pgx.Connect(ctx, testDBURI(false))
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	log.Info().Msg("dropping db")
	_, err = db.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %s", os.Getenv("TEST_DBNAME")))
	if err != nil {
		return err
	}
	log.Info().Msg("creating db")
	_, err = db.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", os.Getenv("TEST_DBNAME")))
	if err != nil {
		return err
	}
	log.Info().Msg("running migrations")
	m, err := migrate.New(DefaultConfig.DBMigrationsPath, testDBURI(true))
	if err != nil {
		log.Err(err).Msg("on-new")
		return err
	}
	if err := m.Up(); err != nil {
		log.Err(err).Msg("on-up")
		return err
	}
	e1, e2 := m.Close()
	log.Err(e1).Msg("close-source")
	log.Err(e2).Msg("close-database")
	log.Info().Msg("created test db")
	return nil
}

type FakeNower struct{ fakenow time.Time }

func (f FakeNower) Now() time.Time {
	return f.fakenow
}

// seedSet inserts a set with n cards, owned by the ctxForTests user.
func seedSet(ctx context.Context, q *models.Queries, n int) (uuid.UUID, []uuid.UUID, error) {
	setID := uuid.New()
	err := q.InsertSet(ctx, models.InsertSetParams{
		ID:     setID,
		UserID: "user-1",
		Name:   "orgo reactions",
	})
	if err != nil {
		return uuid.Nil, nil, err
	}
	cardIDs := make([]uuid.UUID, n)
	for i := range cardIDs {
		cardIDs[i] = uuid.New()
		err = q.InsertCard(ctx, models.InsertCardParams{
			ID:       cardIDs[i],
			SetID:    setID,
			Position: int32(i),
			Front:    fmt.Sprintf("front %d", i),
			Back:     fmt.Sprintf("back %d", i),
		})
		if err != nil {
			return uuid.Nil, nil, err
		}
	}
	return setID, cardIDs, nil
}

func TestRecordReviewAndGetCardStates(t *testing.T) {
	requireTestDB(t)
	is := is.New(t)

	err := RecreateTestDB()
	if err != nil {
		panic(err)
	}
	ctx := ctxForTests()

	dbPool, err := pgxpool.New(ctx, testDBURI(true))
	is.NoErr(err)
	defer dbPool.Close()

	q := models.New(dbPool)
	s := NewServer(DefaultConfig, dbPool, q)
	fakenower := &FakeNower{}
	s.Nower = fakenower
	fakenower.fakenow, err = time.Parse(time.RFC3339, "2026-05-01T12:00:00Z")
	is.NoErr(err)

	setID, cardIDs, err := seedSet(ctx, q, 3)
	is.NoErr(err)

	// Never-reviewed cards have no state rows at all.
	states, err := s.GetCardStates(ctx, setID)
	is.NoErr(err)
	is.Equal(len(states), 0)

	ack, err := s.RecordReview(ctx, setID, ReviewSubmission{
		CardID:           cardIDs[1],
		Rating:           RatingGood,
		TimeTakenSeconds: 4.2,
	})
	is.NoErr(err)
	is.Equal(ack.CardID, cardIDs[1])
	is.True(ack.NextDue.After(fakenower.fakenow))

	states, err = s.GetCardStates(ctx, setID)
	is.NoErr(err)
	is.Equal(len(states), 1)
	is.Equal(states[0].CardID, cardIDs[1])
	is.Equal(states[0].CardIndex, 1)
	is.True(states[0].DueTime.After(fakenower.fakenow))
}

func TestRecordReviewBadArguments(t *testing.T) {
	requireTestDB(t)
	is := is.New(t)

	err := RecreateTestDB()
	if err != nil {
		panic(err)
	}
	ctx := ctxForTests()

	dbPool, err := pgxpool.New(ctx, testDBURI(true))
	is.NoErr(err)
	defer dbPool.Close()

	q := models.New(dbPool)
	s := NewServer(DefaultConfig, dbPool, q)

	setID, cardIDs, err := seedSet(ctx, q, 2)
	is.NoErr(err)

	_, err = s.RecordReview(ctx, setID, ReviewSubmission{
		CardID: cardIDs[0],
		Rating: "hard",
	})
	is.Equal(err, ErrInvalidRating)

	_, err = s.RecordReview(ctx, uuid.New(), ReviewSubmission{
		CardID: cardIDs[0],
		Rating: RatingGood,
	})
	is.Equal(err, ErrSetNotFound)

	_, err = s.RecordReview(ctx, setID, ReviewSubmission{
		CardID: uuid.New(),
		Rating: RatingGood,
	})
	is.Equal(err, ErrCardNotInSet)

	// A user who doesn't own the set sees it as missing.
	otherctx := auth.StoreUserInContext(context.Background(), "user-2", "jesse")
	_, err = s.RecordReview(otherctx, setID, ReviewSubmission{
		CardID: cardIDs[0],
		Rating: RatingGood,
	})
	is.Equal(err, ErrSetNotFound)

	_, err = s.GetCardStates(context.Background(), setID)
	is.Equal(err, ErrUnauthenticated)
}

func TestRecordReviewJustReviewed(t *testing.T) {
	requireTestDB(t)
	is := is.New(t)

	err := RecreateTestDB()
	if err != nil {
		panic(err)
	}
	ctx := ctxForTests()

	dbPool, err := pgxpool.New(ctx, testDBURI(true))
	is.NoErr(err)
	defer dbPool.Close()

	q := models.New(dbPool)
	s := NewServer(DefaultConfig, dbPool, q)
	fakenower := &FakeNower{}
	s.Nower = fakenower
	fakenower.fakenow, err = time.Parse(time.RFC3339, "2026-05-01T12:00:00Z")
	is.NoErr(err)

	setID, cardIDs, err := seedSet(ctx, q, 1)
	is.NoErr(err)

	_, err = s.RecordReview(ctx, setID, ReviewSubmission{
		CardID: cardIDs[0], Rating: RatingAgain,
	})
	is.NoErr(err)

	// Rating the same card again within seconds is almost certainly a
	// double-tap.
	fakenower.fakenow = fakenower.fakenow.Add(time.Second * 5)
	_, err = s.RecordReview(ctx, setID, ReviewSubmission{
		CardID: cardIDs[0], Rating: RatingAgain,
	})
	is.Equal(err, ErrJustReviewed)

	fakenower.fakenow = fakenower.fakenow.Add(time.Second * 7)
	_, err = s.RecordReview(ctx, setID, ReviewSubmission{
		CardID: cardIDs[0], Rating: RatingAgain,
	})
	is.NoErr(err)
}

func TestRecordReviewAccumulatesLog(t *testing.T) {
	requireTestDB(t)
	is := is.New(t)

	err := RecreateTestDB()
	if err != nil {
		panic(err)
	}
	ctx := ctxForTests()

	dbPool, err := pgxpool.New(ctx, testDBURI(true))
	is.NoErr(err)
	defer dbPool.Close()

	q := models.New(dbPool)
	s := NewServer(DefaultConfig, dbPool, q)
	fakenower := &FakeNower{}
	s.Nower = fakenower
	fakenower.fakenow, err = time.Parse(time.RFC3339, "2026-05-01T12:00:00Z")
	is.NoErr(err)

	setID, cardIDs, err := seedSet(ctx, q, 1)
	is.NoErr(err)

	for i := 0; i < 3; i++ {
		ack, err := s.RecordReview(ctx, setID, ReviewSubmission{
			CardID:           cardIDs[0],
			Rating:           RatingEasy,
			TimeTakenSeconds: float64(i + 1),
		})
		is.NoErr(err)
		fakenower.fakenow = ack.NextDue
	}

	srow, err := q.GetCardState(ctx, models.GetCardStateParams{
		UserID: "user-1", CardID: cardIDs[0],
	})
	is.NoErr(err)
	is.Equal(len(srow.ReviewLog), 3)
	is.Equal(srow.ReviewLog[0].TimeTakenSeconds, float64(1))
	is.Equal(srow.ReviewLog[2].TimeTakenSeconds, float64(3))
}

func TestStateSummary(t *testing.T) {
	requireTestDB(t)
	is := is.New(t)

	err := RecreateTestDB()
	if err != nil {
		panic(err)
	}
	ctx := ctxForTests()

	dbPool, err := pgxpool.New(ctx, testDBURI(true))
	is.NoErr(err)
	defer dbPool.Close()

	q := models.New(dbPool)
	s := NewServer(DefaultConfig, dbPool, q)
	fakenower := &FakeNower{}
	s.Nower = fakenower
	fakenower.fakenow, err = time.Parse(time.RFC3339, "2026-05-01T12:00:00Z")
	is.NoErr(err)

	setID, cardIDs, err := seedSet(ctx, q, 5)
	is.NoErr(err)

	// Nothing reviewed yet; every card counts as due.
	summary, err := s.StateSummary(ctx, setID)
	is.NoErr(err)
	is.Equal(summary.TotalCards, uint32(5))
	is.Equal(summary.Due, uint32(5))

	// Reviewing two cards pushes their due dates into the future.
	for _, id := range cardIDs[:2] {
		_, err = s.RecordReview(ctx, setID, ReviewSubmission{
			CardID: id, Rating: RatingEasy,
		})
		is.NoErr(err)
	}
	summary, err = s.StateSummary(ctx, setID)
	is.NoErr(err)
	is.Equal(summary.TotalCards, uint32(5))
	is.Equal(summary.Due, uint32(3))
}
