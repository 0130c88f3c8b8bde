package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prepwise/study_server/internal/setcache"
	"github.com/prepwise/study_server/internal/study"
)

// cachingStore wraps the API client with the local set cache: fetched sets
// are remembered, and a fetch that fails over the network falls back to the
// last cached copy so a session can still start.
type cachingStore struct {
	*study.Client
	cache *setcache.Cache
}

func (cs *cachingStore) GetFlashcardSet(ctx context.Context, setID uuid.UUID) (*study.Set, error) {
	set, err := cs.Client.GetFlashcardSet(ctx, setID)
	if err != nil {
		if cs.cache == nil {
			return nil, err
		}
		cached, ok, cerr := cs.cache.Get(ctx, setID)
		if cerr != nil || !ok {
			return nil, err
		}
		log.Err(err).Msg("using-cached-set")
		return cached, nil
	}
	if cs.cache != nil {
		if cerr := cs.cache.Put(ctx, set); cerr != nil {
			log.Err(cerr).Msg("set-cache-write-failed")
		}
	}
	return set, nil
}

// usernameFromToken pulls the display name out of the bearer token. As the
// client we don't need to (and can't) verify the signature.
func usernameFromToken(token string) string {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, &claims)
	if err != nil {
		return ""
	}
	usn, _ := claims["usn"].(string)
	return usn
}

type sessionUpdated struct{}

type model struct {
	spinner  spinner.Model
	session  *study.Session
	username string
	// busy is set while a session call is in flight; input other than quit
	// is ignored until the sessionUpdated message lands, so a rating can
	// never be submitted twice.
	busy bool
}

func initialModel(session *study.Session, username string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return model{spinner: sp, session: session, username: username, busy: true}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		m.session.Start(context.Background())
		return sessionUpdated{}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "f", " ":
			m.session.Flip()
			return m, nil

		case "1", "2", "3":
			if !m.session.Flipped() {
				return m, nil
			}
			rating := map[string]study.Rating{
				"1": study.Again, "2": study.Good, "3": study.Easy,
			}[msg.String()]
			m.busy = true
			return m, func() tea.Msg {
				m.session.Rate(context.Background(), rating)
				return sessionUpdated{}
			}

		case "a":
			if m.session.Phase() != study.PhaseDone {
				return m, nil
			}
			m.busy = true
			return m, func() tea.Msg {
				m.session.StudyAll(context.Background())
				return sessionUpdated{}
			}
		}

	case sessionUpdated:
		m.busy = false
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m model) View() string {
	switch m.session.Phase() {

	case study.PhaseLoading:
		return m.spinner.View() + " Loading...\n"

	case study.PhaseError:
		return "Could not start the session: " + m.session.Err().Error() + "\n\n(Q) Quit\n"

	case study.PhaseDone:
		return "Nothing due in \"" + m.session.Set().Name + "\" right now. Nice work!\n\n" +
			"(A) Study all anyway    (Q) Quit\n"
	}

	card, ok := m.session.Current()
	if !ok {
		return m.spinner.View() + " Loading...\n"
	}

	header := fmt.Sprintf("%s | %d left | card %d",
		m.session.Set().Name, m.session.Remaining(), card.Index+1)
	if m.username != "" {
		header = "Studying as " + m.username + "\n" + header
	}
	body := strings.Repeat("-", 40) + "\n\n  " + card.Front + "\n"
	var footer string
	if m.session.Flipped() {
		body += "\n  " + card.Back + "\n"
		footer = "(1) Again    (2) Good    (3) Easy"
	} else {
		footer = "(F) Flip"
	}

	return header + "\n\n" + body + "\n" + strings.Repeat("-", 40) + "\n" +
		footer + "        (Q) Quit\n"
}

func cachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "prepwise")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "sets.db")
}

func main() {
	godotenv.Load()
	// Session internals log through zerolog; keep the TUI screen clean.
	logfile, err := os.OpenFile(filepath.Join(os.TempDir(), "studytui.log"),
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		log.Logger = zerolog.New(logfile).With().Timestamp().Logger()
		defer logfile.Close()
	}

	uri := os.Getenv("PREPWISE_URI")
	if uri == "" {
		uri = "http://localhost:8180"
	}
	token := os.Getenv("PREPWISE_TOKEN")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: studytui <set-id>")
		os.Exit(1)
	}
	setID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad set id %q: %v\n", os.Args[1], err)
		os.Exit(1)
	}

	store := &cachingStore{Client: study.NewClient(uri, token)}
	if path := cachePath(); path != "" {
		cache, err := setcache.Open(path)
		if err != nil {
			log.Err(err).Msg("set-cache-open-failed")
		} else {
			store.cache = cache
			defer cache.Close()
		}
	}

	p := tea.NewProgram(initialModel(study.NewSession(store, setID), usernameFromToken(token)))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
