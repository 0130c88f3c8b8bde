// Package flashcards manages sets, cards and folders. Each card gets a
// stable UUID at creation; scheduling state elsewhere is keyed by that id,
// so editing or deleting cards never bleeds review history onto a neighbor.
package flashcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepwise/study_server/config"
	"github.com/prepwise/study_server/internal/auth"
	"github.com/prepwise/study_server/internal/stores/models"
)

var (
	ErrUnauthenticated = errors.New("user not authenticated")
	ErrSetNotFound     = errors.New("no such flashcard set")
	ErrCardNotFound    = errors.New("no such flashcard")
	ErrFolderNotFound  = errors.New("no such folder")
	ErrEmptySet        = errors.New("a set needs at least one card")
	ErrNeedName        = errors.New("need a name")
	ErrBlankCard       = errors.New("card front and back must not be blank")
	ErrSetFull         = errors.New("this set cannot hold any more cards")
	ErrTooManyCards    = errors.New("too many cards in one request")
)

type Service struct {
	Config  *config.Config
	Queries *models.Queries
	DBPool  *pgxpool.Pool
}

func NewService(cfg *config.Config, dbPool *pgxpool.Pool, queries *models.Queries) *Service {
	return &Service{cfg, queries, dbPool}
}

type Card struct {
	ID    uuid.UUID `json:"id"`
	Front string    `json:"front"`
	Back  string    `json:"back"`
}

type Set struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	SourceFileID string     `json:"source_file_id,omitempty"`
	FolderID     *uuid.UUID `json:"folder_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Cards        []Card     `json:"cards"`
}

type Folder struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type NewCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type NewSet struct {
	Name         string     `json:"name"`
	SourceFileID string     `json:"source_file_id"`
	FolderID     *uuid.UUID `json:"folder_id"`
	Cards        []NewCard  `json:"cards"`
}

func validateCard(c NewCard) error {
	if strings.TrimSpace(c.Front) == "" || strings.TrimSpace(c.Back) == "" {
		return ErrBlankCard
	}
	return nil
}

func (s *Service) CreateSet(ctx context.Context, req NewSet) (*Set, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNeedName
	}
	if len(req.Cards) == 0 {
		return nil, ErrEmptySet
	}
	if len(req.Cards) > s.Config.MaxCardsPerSet {
		return nil, fmt.Errorf("%w (limit %d)", ErrSetFull, s.Config.MaxCardsPerSet)
	}
	for i := range req.Cards {
		if err := validateCard(req.Cards[i]); err != nil {
			return nil, err
		}
	}

	tx, err := s.DBPool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	qtx := s.Queries.WithTx(tx)

	var folderID uuid.NullUUID
	if req.FolderID != nil {
		folderID = uuid.NullUUID{UUID: *req.FolderID, Valid: true}
	}
	set := &Set{
		ID:           uuid.New(),
		Name:         req.Name,
		SourceFileID: req.SourceFileID,
		FolderID:     req.FolderID,
		Cards:        make([]Card, len(req.Cards)),
	}
	err = qtx.InsertSet(ctx, models.InsertSetParams{
		ID:           set.ID,
		UserID:       user.UserID,
		Name:         set.Name,
		SourceFileID: set.SourceFileID,
		FolderID:     folderID,
	})
	if err != nil {
		return nil, err
	}
	for i := range req.Cards {
		set.Cards[i] = Card{
			ID:    uuid.New(),
			Front: req.Cards[i].Front,
			Back:  req.Cards[i].Back,
		}
		err = qtx.InsertCard(ctx, models.InsertCardParams{
			ID:       set.Cards[i].ID,
			SetID:    set.ID,
			Position: int32(i),
			Front:    set.Cards[i].Front,
			Back:     set.Cards[i].Back,
		})
		if err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Service) GetSet(ctx context.Context, setID uuid.UUID) (*Set, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	row, err := s.Queries.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	cards, err := s.Queries.GetSetCards(ctx, setID)
	if err != nil {
		return nil, err
	}
	set := &Set{
		ID:           row.ID,
		Name:         row.Name,
		SourceFileID: row.SourceFileID,
		CreatedAt:    row.CreatedAt.Time,
		Cards:        make([]Card, len(cards)),
	}
	if row.FolderID.Valid {
		fid := row.FolderID.UUID
		set.FolderID = &fid
	}
	for i := range cards {
		set.Cards[i] = Card{ID: cards[i].ID, Front: cards[i].Front, Back: cards[i].Back}
	}
	return set, nil
}

func (s *Service) ListSets(ctx context.Context) ([]Set, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	rows, err := s.Queries.GetSetsForUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	sets := make([]Set, len(rows))
	for i := range rows {
		sets[i] = Set{
			ID:           rows[i].ID,
			Name:         rows[i].Name,
			SourceFileID: rows[i].SourceFileID,
			CreatedAt:    rows[i].CreatedAt.Time,
		}
		if rows[i].FolderID.Valid {
			fid := rows[i].FolderID.UUID
			sets[i].FolderID = &fid
		}
	}
	return sets, nil
}

// DeleteSet removes a set, its cards and all their scheduling state.
func (s *Service) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	deleted, err := s.Queries.DeleteSet(ctx, models.DeleteSetParams{ID: setID, UserID: user.UserID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrSetNotFound
	}
	return nil
}

// AddCard appends a card at the end of the set.
func (s *Service) AddCard(ctx context.Context, setID uuid.UUID, req NewCard) (*Card, error) {
	cards, err := s.AddCards(ctx, setID, []NewCard{req})
	if err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// AddCards appends a batch of cards at the end of the set, in order. At most
// MaxCardsAdd cards per call.
func (s *Service) AddCards(ctx context.Context, setID uuid.UUID, reqs []NewCard) ([]Card, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if len(reqs) == 0 {
		return nil, ErrEmptySet
	}
	if len(reqs) > s.Config.MaxCardsAdd {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyCards, s.Config.MaxCardsAdd)
	}
	for i := range reqs {
		if err := validateCard(reqs[i]); err != nil {
			return nil, err
		}
	}

	tx, err := s.DBPool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)
	qtx := s.Queries.WithTx(tx)

	if _, err := qtx.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	count, err := qtx.CountCards(ctx, setID)
	if err != nil {
		return nil, err
	}
	if count+int64(len(reqs)) > int64(s.Config.MaxCardsPerSet) {
		return nil, fmt.Errorf("%w (limit %d)", ErrSetFull, s.Config.MaxCardsPerSet)
	}
	maxPos, err := qtx.MaxCardPosition(ctx, setID)
	if err != nil {
		return nil, err
	}
	cards := make([]Card, len(reqs))
	for i := range reqs {
		cards[i] = Card{ID: uuid.New(), Front: reqs[i].Front, Back: reqs[i].Back}
		err = qtx.InsertCard(ctx, models.InsertCardParams{
			ID:       cards[i].ID,
			SetID:    setID,
			Position: maxPos + 1 + int32(i),
			Front:    cards[i].Front,
			Back:     cards[i].Back,
		})
		if err != nil {
			return nil, err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *Service) UpdateCard(ctx context.Context, setID, cardID uuid.UUID, req NewCard) error {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if err := validateCard(req); err != nil {
		return err
	}
	if _, err := s.Queries.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSetNotFound
		}
		return err
	}
	updated, err := s.Queries.UpdateCard(ctx, models.UpdateCardParams{
		ID:    cardID,
		SetID: setID,
		Front: req.Front,
		Back:  req.Back,
	})
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrCardNotFound
	}
	return nil
}

// DeleteCard removes a card; its scheduling state goes with it (FK cascade).
// Remaining positions keep their gaps, which is fine since nothing is keyed
// by position anymore.
func (s *Service) DeleteCard(ctx context.Context, setID, cardID uuid.UUID) error {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if _, err := s.Queries.GetSet(ctx, models.GetSetParams{ID: setID, UserID: user.UserID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSetNotFound
		}
		return err
	}
	deleted, err := s.Queries.DeleteCard(ctx, models.DeleteCardParams{ID: cardID, SetID: setID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *Service) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrNeedName
	}
	folder := &Folder{ID: uuid.New(), Name: name}
	err := s.Queries.InsertFolder(ctx, models.InsertFolderParams{
		ID:     folder.ID,
		UserID: user.UserID,
		Name:   name,
	})
	if err != nil {
		return nil, err
	}
	return folder, nil
}

func (s *Service) ListFolders(ctx context.Context) ([]Folder, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	rows, err := s.Queries.GetFoldersForUser(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	folders := make([]Folder, len(rows))
	for i := range rows {
		folders[i] = Folder{ID: rows[i].ID, Name: rows[i].Name}
	}
	return folders, nil
}

// DeleteFolder removes a folder and every set inside it (FK cascade).
func (s *Service) DeleteFolder(ctx context.Context, folderID uuid.UUID) error {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	deleted, err := s.Queries.DeleteFolder(ctx, models.DeleteFolderParams{ID: folderID, UserID: user.UserID})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrFolderNotFound
	}
	return nil
}
