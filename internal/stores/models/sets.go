package models

import (
	"context"

	"github.com/google/uuid"
)

const insertSet = `
INSERT INTO flashcard_sets (id, user_id, name, source_file_id, folder_id)
VALUES ($1, $2, $3, $4, $5)
`

type InsertSetParams struct {
	ID           uuid.UUID
	UserID       string
	Name         string
	SourceFileID string
	FolderID     uuid.NullUUID
}

func (q *Queries) InsertSet(ctx context.Context, arg InsertSetParams) error {
	_, err := q.db.Exec(ctx, insertSet,
		arg.ID, arg.UserID, arg.Name, arg.SourceFileID, arg.FolderID)
	return err
}

const insertCard = `
INSERT INTO flashcards (id, set_id, position, front, back)
VALUES ($1, $2, $3, $4, $5)
`

type InsertCardParams struct {
	ID       uuid.UUID
	SetID    uuid.UUID
	Position int32
	Front    string
	Back     string
}

func (q *Queries) InsertCard(ctx context.Context, arg InsertCardParams) error {
	_, err := q.db.Exec(ctx, insertCard,
		arg.ID, arg.SetID, arg.Position, arg.Front, arg.Back)
	return err
}

const getSet = `
SELECT id, user_id, name, source_file_id, folder_id, created_at
FROM flashcard_sets
WHERE id = $1 AND user_id = $2
`

type GetSetParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) GetSet(ctx context.Context, arg GetSetParams) (FlashcardSet, error) {
	row := q.db.QueryRow(ctx, getSet, arg.ID, arg.UserID)
	var i FlashcardSet
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.SourceFileID, &i.FolderID, &i.CreatedAt)
	return i, err
}

const getSetCards = `
SELECT id, set_id, position, front, back
FROM flashcards
WHERE set_id = $1
ORDER BY position
`

func (q *Queries) GetSetCards(ctx context.Context, setID uuid.UUID) ([]Flashcard, error) {
	rows, err := q.db.Query(ctx, getSetCards, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Flashcard
	for rows.Next() {
		var i Flashcard
		if err := rows.Scan(&i.ID, &i.SetID, &i.Position, &i.Front, &i.Back); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getSetsForUser = `
SELECT id, user_id, name, source_file_id, folder_id, created_at
FROM flashcard_sets
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) GetSetsForUser(ctx context.Context, userID string) ([]FlashcardSet, error) {
	rows, err := q.db.Query(ctx, getSetsForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FlashcardSet
	for rows.Next() {
		var i FlashcardSet
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.SourceFileID, &i.FolderID, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteSet = `
DELETE FROM flashcard_sets WHERE id = $1 AND user_id = $2
`

type DeleteSetParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) DeleteSet(ctx context.Context, arg DeleteSetParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSet, arg.ID, arg.UserID)
	return tag.RowsAffected(), err
}

const getCard = `
SELECT id, set_id, position, front, back
FROM flashcards
WHERE id = $1 AND set_id = $2
`

type GetCardParams struct {
	ID    uuid.UUID
	SetID uuid.UUID
}

func (q *Queries) GetCard(ctx context.Context, arg GetCardParams) (Flashcard, error) {
	row := q.db.QueryRow(ctx, getCard, arg.ID, arg.SetID)
	var i Flashcard
	err := row.Scan(&i.ID, &i.SetID, &i.Position, &i.Front, &i.Back)
	return i, err
}

const updateCard = `
UPDATE flashcards SET front = $3, back = $4
WHERE id = $1 AND set_id = $2
`

type UpdateCardParams struct {
	ID    uuid.UUID
	SetID uuid.UUID
	Front string
	Back  string
}

func (q *Queries) UpdateCard(ctx context.Context, arg UpdateCardParams) (int64, error) {
	tag, err := q.db.Exec(ctx, updateCard, arg.ID, arg.SetID, arg.Front, arg.Back)
	return tag.RowsAffected(), err
}

const deleteCard = `
DELETE FROM flashcards WHERE id = $1 AND set_id = $2
`

type DeleteCardParams struct {
	ID    uuid.UUID
	SetID uuid.UUID
}

func (q *Queries) DeleteCard(ctx context.Context, arg DeleteCardParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCard, arg.ID, arg.SetID)
	return tag.RowsAffected(), err
}

const maxCardPosition = `
SELECT coalesce(max(position), -1) FROM flashcards WHERE set_id = $1
`

func (q *Queries) MaxCardPosition(ctx context.Context, setID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, maxCardPosition, setID)
	var pos int32
	err := row.Scan(&pos)
	return pos, err
}

const countCards = `
SELECT count(*) FROM flashcards WHERE set_id = $1
`

func (q *Queries) CountCards(ctx context.Context, setID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countCards, setID)
	var n int64
	err := row.Scan(&n)
	return n, err
}
