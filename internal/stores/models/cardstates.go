package models

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/prepwise/study_server/internal/stores"
)

const getCardStates = `
SELECT cs.card_id, f.position, cs.next_due, cs.finished
FROM card_states cs
JOIN flashcards f ON f.id = cs.card_id
WHERE cs.user_id = $1 AND cs.set_id = $2
ORDER BY f.position
`

type GetCardStatesParams struct {
	UserID string
	SetID  uuid.UUID
}

type GetCardStatesRow struct {
	CardID   uuid.UUID
	Position int32
	NextDue  pgtype.Timestamptz
	Finished bool
}

// GetCardStates lists the scheduling fields for a whole set. The FSRS card
// payload stays out of the row; clients only need due times, and the
// singular GetCardState fetches the full record for rescheduling.
func (q *Queries) GetCardStates(ctx context.Context, arg GetCardStatesParams) ([]GetCardStatesRow, error) {
	rows, err := q.db.Query(ctx, getCardStates, arg.UserID, arg.SetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetCardStatesRow
	for rows.Next() {
		var i GetCardStatesRow
		if err := rows.Scan(&i.CardID, &i.Position, &i.NextDue, &i.Finished); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getCardState = `
SELECT fsrs_card, next_due, finished, review_log
FROM card_states
WHERE user_id = $1 AND card_id = $2
`

type GetCardStateParams struct {
	UserID string
	CardID uuid.UUID
}

type GetCardStateRow struct {
	FsrsCard  stores.Card
	NextDue   pgtype.Timestamptz
	Finished  bool
	ReviewLog []stores.ReviewLog
}

func (q *Queries) GetCardState(ctx context.Context, arg GetCardStateParams) (GetCardStateRow, error) {
	row := q.db.QueryRow(ctx, getCardState, arg.UserID, arg.CardID)
	var i GetCardStateRow
	var cardbts, logbts []byte
	if err := row.Scan(&cardbts, &i.NextDue, &i.Finished, &logbts); err != nil {
		return i, err
	}
	if err := json.Unmarshal(cardbts, &i.FsrsCard); err != nil {
		return i, err
	}
	if err := json.Unmarshal(logbts, &i.ReviewLog); err != nil {
		return i, err
	}
	return i, nil
}

const upsertCardState = `
INSERT INTO card_states (user_id, card_id, set_id, fsrs_card, next_due, review_log)
VALUES ($1, $2, $3, $4, $5, jsonb_build_array($6::jsonb))
ON CONFLICT (user_id, card_id) DO UPDATE
SET fsrs_card = excluded.fsrs_card,
    next_due = excluded.next_due,
    review_log = card_states.review_log || excluded.review_log
`

type UpsertCardStateParams struct {
	UserID        string
	CardID        uuid.UUID
	SetID         uuid.UUID
	FsrsCard      []byte
	NextDue       pgtype.Timestamptz
	ReviewLogItem []byte
}

func (q *Queries) UpsertCardState(ctx context.Context, arg UpsertCardStateParams) error {
	_, err := q.db.Exec(ctx, upsertCardState,
		arg.UserID, arg.CardID, arg.SetID, arg.FsrsCard, arg.NextDue, arg.ReviewLogItem)
	return err
}

const getDueCounts = `
SELECT count(*) AS state_count,
       count(*) FILTER (WHERE next_due <= $3) AS due_count
FROM card_states
WHERE user_id = $1 AND set_id = $2
`

type GetDueCountsParams struct {
	UserID string
	SetID  uuid.UUID
	Now    pgtype.Timestamptz
}

type GetDueCountsRow struct {
	StateCount int64
	DueCount   int64
}

func (q *Queries) GetDueCounts(ctx context.Context, arg GetDueCountsParams) (GetDueCountsRow, error) {
	row := q.db.QueryRow(ctx, getDueCounts, arg.UserID, arg.SetID, arg.Now)
	var i GetDueCountsRow
	err := row.Scan(&i.StateCount, &i.DueCount)
	return i, err
}
