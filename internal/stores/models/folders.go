package models

import (
	"context"

	"github.com/google/uuid"
)

const insertFolder = `
INSERT INTO folders (id, user_id, name)
VALUES ($1, $2, $3)
`

type InsertFolderParams struct {
	ID     uuid.UUID
	UserID string
	Name   string
}

func (q *Queries) InsertFolder(ctx context.Context, arg InsertFolderParams) error {
	_, err := q.db.Exec(ctx, insertFolder, arg.ID, arg.UserID, arg.Name)
	return err
}

const getFoldersForUser = `
SELECT id, user_id, name, created_at
FROM folders
WHERE user_id = $1
ORDER BY name
`

func (q *Queries) GetFoldersForUser(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := q.db.Query(ctx, getFoldersForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Folder
	for rows.Next() {
		var i Folder
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteFolder = `
DELETE FROM folders WHERE id = $1 AND user_id = $2
`

type DeleteFolderParams struct {
	ID     uuid.UUID
	UserID string
}

func (q *Queries) DeleteFolder(ctx context.Context, arg DeleteFolderParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteFolder, arg.ID, arg.UserID)
	return tag.RowsAffected(), err
}
