package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mind-engage/mindengage-worksheets/internal/auth"
	"github.com/mind-engage/mindengage-worksheets/internal/backend"
	"github.com/mind-engage/mindengage-worksheets/internal/workspace"
)

// signIn stores the backend token in the session cookie. The username shown
// on the page comes from /api/auth/me when the backend answers it.
func (s *server) signIn(w http.ResponseWriter, r *http.Request, username string, tok backend.Token) error {
	if tok.AccessToken == "" {
		return errors.New("empty access token")
	}
	ctx := backend.WithToken(r.Context(), tok.AccessToken)
	if me, err := s.Backend.Me(ctx); err == nil && me.Username != "" {
		username = me.Username
	}
	return s.Sessions.Login(w, auth.SessionFromContext(ctx), username, tok.AccessToken)
}

// POST /login  username, password
func (s *server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := formMode(r)
		user := strings.TrimSpace(r.FormValue("username"))
		pass := r.FormValue("password")
		if user == "" || pass == "" {
			s.fail(w, r, m, errors.New("missing credentials"), "Please enter username and password")
			return
		}
		tok, err := s.Backend.Login(r.Context(), user, pass)
		if err != nil {
			s.fail(w, r, m, err, "Login failed")
			return
		}
		if err := s.signIn(w, r, user, tok); err != nil {
			s.fail(w, r, m, err, "Login failed")
			return
		}
		setFlash(w, false, "Signed in as "+user)
		back(w, r, m)
	}
}

// POST /register  username, email, password
func (s *server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := formMode(r)
		user := strings.TrimSpace(r.FormValue("username"))
		email := strings.TrimSpace(r.FormValue("email"))
		pass := r.FormValue("password")
		if user == "" || email == "" || pass == "" {
			s.fail(w, r, m, errors.New("missing fields"), "Please fill in username, email and password")
			return
		}
		tok, err := s.Backend.Register(r.Context(), user, email, pass)
		if err != nil {
			s.fail(w, r, m, err, "Registration failed")
			return
		}
		if err := s.signIn(w, r, user, tok); err != nil {
			s.fail(w, r, m, err, "Registration failed")
			return
		}
		setFlash(w, false, "Welcome, "+user)
		back(w, r, m)
	}
}

// POST /logout
func (s *server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Sessions.Logout(w, auth.SessionFromContext(r.Context())); err != nil {
			http.Error(w, "logout failed", http.StatusInternalServerError)
			return
		}
		back(w, r, formMode(r))
	}
}

// POST /theme  theme=light|dark
func (s *server) ThemeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := workspace.Theme(r.FormValue("theme"))
		if !t.Valid() {
			http.Error(w, "theme must be light or dark", http.StatusBadRequest)
			return
		}
		if _, err := s.update(r.Context(), func(w *workspace.Workspace) error {
			w.Theme = t
			return nil
		}); err != nil {
			http.Error(w, "store theme", http.StatusInternalServerError)
			return
		}
		back(w, r, formMode(r))
	}
}
