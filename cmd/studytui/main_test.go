package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/matryer/is"

	"github.com/prepwise/study_server/internal/study"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestUpdateIgnoresKeysWhileBusy(t *testing.T) {
	is := is.New(t)
	m := initialModel(study.NewSession(nil, uuid.New()), "cesar")
	// The model starts busy: Start is dispatched from Init.
	is.True(m.busy)

	// Rating and study-all keys go nowhere until the in-flight call lands.
	upd, cmd := m.Update(keyMsg('1'))
	is.True(cmd == nil)
	is.True(upd.(model).busy)

	upd, cmd = upd.Update(keyMsg('a'))
	is.True(cmd == nil)
	is.True(upd.(model).busy)

	upd, _ = upd.Update(sessionUpdated{})
	is.True(!upd.(model).busy)
}

func TestUpdateQuitAlwaysWorks(t *testing.T) {
	is := is.New(t)
	m := initialModel(study.NewSession(nil, uuid.New()), "")
	is.True(m.busy)

	_, cmd := m.Update(keyMsg('q'))
	is.True(cmd != nil)
}

func TestUsernameFromToken(t *testing.T) {
	is := is.New(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"usn": "cesar",
		"iss": "prepwise.localhost",
	})
	signed, err := token.SignedString([]byte("whatever"))
	is.NoErr(err)

	is.Equal(usernameFromToken(signed), "cesar")
	is.Equal(usernameFromToken("not.a.token"), "")
	is.Equal(usernameFromToken(""), "")
}
