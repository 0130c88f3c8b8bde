package models

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Folder struct {
	ID        uuid.UUID
	UserID    string
	Name      string
	CreatedAt pgtype.Timestamptz
}

type FlashcardSet struct {
	ID           uuid.UUID
	UserID       string
	Name         string
	SourceFileID string
	FolderID     uuid.NullUUID
	CreatedAt    pgtype.Timestamptz
}

type Flashcard struct {
	ID       uuid.UUID
	SetID    uuid.UUID
	Position int32
	Front    string
	Back     string
}
