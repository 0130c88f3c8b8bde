package study

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client talks to the PrepWise card-state API over JSON. It implements
// StateStore. No client-side timeout is imposed; session-level policy
// already swallows or fails open on every non-fatal error.
type Client struct {
	baseURL    string
	token      string
	HTTPClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		HTTPClient: &http.Client{},
	}
}

type cardJSON struct {
	ID    uuid.UUID `json:"id"`
	Front string    `json:"front"`
	Back  string    `json:"back"`
}

type setJSON struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	FolderID *uuid.UUID `json:"folder_id,omitempty"`
	Cards    []cardJSON `json:"cards"`
}

type cardStateJSON struct {
	CardID   uuid.UUID `json:"card_id"`
	DueTime  time.Time `json:"due_time"`
	Finished bool      `json:"is_finished"`
}

type cardStatesJSON struct {
	States []cardStateJSON `json:"states"`
}

type reviewJSON struct {
	CardID    uuid.UUID `json:"card_id"`
	CardIndex int       `json:"card_index"`
	Rating    string    `json:"rating"`
	TimeTaken float64   `json:"time_taken"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var rdr io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(bts)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apierr errorJSON
		if err := json.NewDecoder(resp.Body).Decode(&apierr); err == nil && apierr.Error != "" {
			return resp.StatusCode, fmt.Errorf("%s %s: %s", method, path, apierr.Error)
		}
		return resp.StatusCode, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) GetFlashcardSet(ctx context.Context, setID uuid.UUID) (*Set, error) {
	var payload setJSON
	status, err := c.do(ctx, http.MethodGet, "/api/sets/"+setID.String(), nil, &payload)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, ErrNoCards
		}
		return nil, err
	}
	set := &Set{
		ID:       payload.ID,
		Name:     payload.Name,
		FolderID: payload.FolderID,
		Cards:    make([]Card, len(payload.Cards)),
	}
	for i := range payload.Cards {
		set.Cards[i] = Card{
			ID:    payload.Cards[i].ID,
			Front: payload.Cards[i].Front,
			Back:  payload.Cards[i].Back,
			Index: i,
		}
	}
	return set, nil
}

func (c *Client) GetCardStates(ctx context.Context, setID uuid.UUID) (map[uuid.UUID]CardState, error) {
	var payload cardStatesJSON
	_, err := c.do(ctx, http.MethodGet, "/api/sets/"+setID.String()+"/cardstates", nil, &payload)
	if err != nil {
		return nil, err
	}
	states := make(map[uuid.UUID]CardState, len(payload.States))
	for _, st := range payload.States {
		states[st.CardID] = CardState{
			CardID:   st.CardID,
			DueTime:  st.DueTime,
			Finished: st.Finished,
		}
	}
	return states, nil
}

func (c *Client) RecordReview(ctx context.Context, setID uuid.UUID, rev Review) error {
	body := reviewJSON{
		CardID:    rev.Card.ID,
		CardIndex: rev.Card.Index,
		Rating:    string(rev.Rating),
		TimeTaken: rev.TimeTaken.Seconds(),
	}
	_, err := c.do(ctx, http.MethodPost, "/api/sets/"+setID.String()+"/reviews", body, nil)
	return err
}
