// Package cardvault owns per-card scheduling state. Study clients fetch the
// state for a set, present due cards, and report review outcomes here; this
// package computes every next due time.
package cardvault

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/open-spaced-repetition/go-fsrs/v3"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/config"
	"github.com/prepwise/study_server/internal/auth"
	"github.com/prepwise/study_server/internal/stores"
	"github.com/prepwise/study_server/internal/stores/models"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrSetNotFound     = errors.New("no such flashcard set")
	ErrCardNotInSet    = errors.New("card does not belong to this set")
	ErrInvalidRating   = errors.New("invalid rating")
	ErrJustReviewed    = errors.New("this card was just reviewed")
)

const JustReviewedInterval = time.Second * 10

type nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}

type Server struct {
	Config  *config.Config
	Queries *models.Queries
	DBPool  *pgxpool.Pool
	Nower   nower
}

func NewServer(cfg *config.Config, dbPool *pgxpool.Pool, queries *models.Queries) *Server {
	return &Server{cfg, queries, dbPool, RealNower{}}
}

// CardState is the wire view of one card's scheduling record. CardIndex is
// the card's current position in the set, sent for display purposes only;
// scheduling is keyed by CardID.
type CardState struct {
	CardID    uuid.UUID `json:"card_id"`
	CardIndex int       `json:"card_index"`
	DueTime   time.Time `json:"due_time"`
	Finished  bool      `json:"is_finished"`
}

type ReviewSubmission struct {
	CardID           uuid.UUID
	Rating           Rating
	TimeTakenSeconds float64
}

type ReviewAck struct {
	CardID  uuid.UUID
	NextDue time.Time
}

type Summary struct {
	TotalCards uint32
	Due        uint32
}

func (s *Server) GetCardStates(ctx context.Context, setID uuid.UUID) ([]CardState, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if _, err := s.Queries.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	rows, err := s.Queries.GetCardStates(ctx, models.GetCardStatesParams{
		UserID: user.UserID,
		SetID:  setID,
	})
	if err != nil {
		return nil, err
	}
	states := make([]CardState, len(rows))
	for i := range rows {
		states[i] = CardState{
			CardID:    rows[i].CardID,
			CardIndex: int(rows[i].Position),
			DueTime:   rows[i].NextDue.Time,
			Finished:  rows[i].Finished,
		}
	}
	return states, nil
}

func (s *Server) RecordReview(ctx context.Context, setID uuid.UUID, sub ReviewSubmission) (
	ReviewAck, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return ReviewAck{}, ErrUnauthenticated
	}
	if !sub.Rating.valid() {
		return ReviewAck{}, ErrInvalidRating
	}
	now := s.Nower.Now()

	tx, err := s.DBPool.Begin(ctx)
	if err != nil {
		return ReviewAck{}, err
	}
	defer tx.Rollback(ctx)
	qtx := s.Queries.WithTx(tx)

	if _, err := qtx.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReviewAck{}, ErrSetNotFound
		}
		return ReviewAck{}, err
	}
	if _, err := qtx.GetCard(ctx, models.GetCardParams{ID: sub.CardID, SetID: setID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReviewAck{}, ErrCardNotInSet
		}
		return ReviewAck{}, err
	}

	var card fsrs.Card
	srow, err := qtx.GetCardState(ctx, models.GetCardStateParams{
		UserID: user.UserID,
		CardID: sub.CardID,
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return ReviewAck{}, err
		}
		// First review for this card.
		card = fsrs.NewCard()
		card.Due = now
	} else {
		card = srow.FsrsCard.Card
		revlog := srow.ReviewLog
		if len(revlog) > 0 && now.Sub(revlog[len(revlog)-1].Review) < JustReviewedInterval {
			return ReviewAck{}, ErrJustReviewed
		}
	}

	params := schedulerParams()
	f := fsrs.NewFSRS(params)
	card, rlog := applyRating(f, card, sub.Rating, now)
	furtherFuzzDueDate(params, now, &card)

	entry := stores.ReviewLog{ReviewLog: rlog, TimeTakenSeconds: sub.TimeTakenSeconds}
	entrybts, err := json.Marshal(entry)
	if err != nil {
		return ReviewAck{}, err
	}
	cardbts, err := json.Marshal(card)
	if err != nil {
		return ReviewAck{}, err
	}
	err = qtx.UpsertCardState(ctx, models.UpsertCardStateParams{
		UserID:        user.UserID,
		CardID:        sub.CardID,
		SetID:         setID,
		FsrsCard:      cardbts,
		NextDue:       toPGTimestamp(card.Due),
		ReviewLogItem: entrybts,
	})
	if err != nil {
		return ReviewAck{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return ReviewAck{}, err
	}

	log := log.Ctx(ctx)
	log.Info().Str("card", sub.CardID.String()).Str("set", setID.String()).
		Str("rating", string(sub.Rating)).
		Float64("time-taken", sub.TimeTakenSeconds).
		Str("next-due", card.Due.String()).Msg("review-recorded")

	return ReviewAck{CardID: sub.CardID, NextDue: card.Due}, nil
}

// StateSummary counts due cards for a set. Cards that were never reviewed
// have no state row and count as due.
func (s *Server) StateSummary(ctx context.Context, setID uuid.UUID) (Summary, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return Summary{}, ErrUnauthenticated
	}
	if _, err := s.Queries.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Summary{}, ErrSetNotFound
		}
		return Summary{}, err
	}
	total, err := s.Queries.CountCards(ctx, setID)
	if err != nil {
		return Summary{}, err
	}
	counts, err := s.Queries.GetDueCounts(ctx, models.GetDueCountsParams{
		UserID: user.UserID,
		SetID:  setID,
		Now:    toPGTimestamp(s.Nower.Now()),
	})
	if err != nil {
		return Summary{}, err
	}
	untracked := total - counts.StateCount
	return Summary{
		TotalCards: uint32(total),
		Due:        uint32(counts.DueCount + untracked),
	}, nil
}
