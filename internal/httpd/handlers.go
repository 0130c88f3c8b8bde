package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/internal/cardvault"
	"github.com/prepwise/study_server/internal/flashcards"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("err-encoding-response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the services' sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cardvault.ErrUnauthenticated) || errors.Is(err, flashcards.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, cardvault.ErrSetNotFound) || errors.Is(err, flashcards.ErrSetNotFound) ||
		errors.Is(err, flashcards.ErrCardNotFound) || errors.Is(err, flashcards.ErrFolderNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cardvault.ErrCardNotInSet) || errors.Is(err, cardvault.ErrInvalidRating) ||
		errors.Is(err, cardvault.ErrJustReviewed) || errors.Is(err, flashcards.ErrEmptySet) ||
		errors.Is(err, flashcards.ErrBlankCard) || errors.Is(err, flashcards.ErrNeedName) ||
		errors.Is(err, flashcards.ErrSetFull) || errors.Is(err, flashcards.ErrTooManyCards):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Err(err).Msg("internal-error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(name))
}

func (s *Server) getSet(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	set, err := s.Sets.GetSet(r.Context(), setID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) listSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.Sets.ListSets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

func (s *Server) createSet(w http.ResponseWriter, r *http.Request) {
	var req flashcards.NewSet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	set, err := s.Sets.CreateSet(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (s *Server) deleteSet(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	if err := s.Sets.DeleteSet(r.Context(), setID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addCard(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	var req flashcards.NewCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	card, err := s.Sets.AddCard(r.Context(), setID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

type addCardsRequest struct {
	Cards []flashcards.NewCard `json:"cards"`
}

func (s *Server) addCards(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	var req addCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cards, err := s.Sets.AddCards(r.Context(), setID, req.Cards)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"cards": cards})
}

func (s *Server) updateCard(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	cardID, err := pathUUID(r, "cardID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	var req flashcards.NewCard
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Sets.UpdateCard(r.Context(), setID, cardID, req); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	cardID, err := pathUUID(r, "cardID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	if err := s.Sets.DeleteCard(r.Context(), setID, cardID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getCardStates(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	states, err := s.Vault.GetCardStates(r.Context(), setID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if states == nil {
		states = []cardvault.CardState{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"states": states})
}

func (s *Server) stateSummary(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	summary, err := s.Vault.StateSummary(r.Context(), setID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint32{
		"total_cards": summary.TotalCards,
		"due":         summary.Due,
	})
}

type reviewRequest struct {
	CardID    uuid.UUID `json:"card_id"`
	CardIndex int       `json:"card_index"`
	Rating    string    `json:"rating"`
	TimeTaken float64   `json:"time_taken"`
}

func (s *Server) recordReview(w http.ResponseWriter, r *http.Request) {
	setID, err := pathUUID(r, "setID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ack, err := s.Vault.RecordReview(r.Context(), setID, cardvault.ReviewSubmission{
		CardID:           req.CardID,
		Rating:           cardvault.Rating(req.Rating),
		TimeTakenSeconds: req.TimeTaken,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"card_id":  ack.CardID,
		"next_due": ack.NextDue.Format(time.RFC3339Nano),
	})
}

type folderRequest struct {
	Name string `json:"name"`
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	folder, err := s.Sets.CreateFolder(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.Sets.ListFolders(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"folders": folders})
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	folderID, err := pathUUID(r, "folderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	if err := s.Sets.DeleteFolder(r.Context(), folderID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
