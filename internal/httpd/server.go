// Package httpd exposes the flashcard and card-state services as a JSON
// API for the PrepWise web client and the terminal study client.
package httpd

import (
	"net/http"

	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/prepwise/study_server/config"
	"github.com/prepwise/study_server/internal/cardvault"
	"github.com/prepwise/study_server/internal/flashcards"
)

type Server struct {
	Config *config.Config
	Vault  *cardvault.Server
	Sets   *flashcards.Service
}

func NewServer(cfg *config.Config, vault *cardvault.Server, sets *flashcards.Service) *Server {
	return &Server{Config: cfg, Vault: vault, Sets: sets}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Sets and cards
	mux.HandleFunc("GET /api/sets", s.listSets)
	mux.HandleFunc("POST /api/sets", s.createSet)
	mux.HandleFunc("GET /api/sets/{setID}", s.getSet)
	mux.HandleFunc("DELETE /api/sets/{setID}", s.deleteSet)
	mux.HandleFunc("POST /api/sets/{setID}/cards", s.addCard)
	mux.HandleFunc("POST /api/sets/{setID}/cards/batch", s.addCards)
	mux.HandleFunc("PUT /api/sets/{setID}/cards/{cardID}", s.updateCard)
	mux.HandleFunc("DELETE /api/sets/{setID}/cards/{cardID}", s.deleteCard)

	// Scheduling state and reviews
	mux.HandleFunc("GET /api/sets/{setID}/cardstates", s.getCardStates)
	mux.HandleFunc("GET /api/sets/{setID}/cardstates/summary", s.stateSummary)
	mux.HandleFunc("POST /api/sets/{setID}/reviews", s.recordReview)

	// Folders
	mux.HandleFunc("GET /api/folders", s.listFolders)
	mux.HandleFunc("POST /api/folders", s.createFolder)
	mux.HandleFunc("DELETE /api/folders/{folderID}", s.deleteFolder)

	chain := alice.New(
		RequestLogger,
		AuthRequired([]byte(s.Config.SecretKey)),
	).Then(mux)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{s.Config.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(chain)
}
