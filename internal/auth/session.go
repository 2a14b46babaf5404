// Package auth keeps the browser session in a signed cookie. The cookie names
// the server-side workspace and carries the backend bearer token once the
// user has logged in.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-worksheets/internal/backend"
)

const CookieName = "ws_session"

type Claims struct {
	Sid   string `json:"sid"`
	Token string `json:"tok,omitempty"` // backend bearer token
	User  string `json:"usr,omitempty"`
	jwt.RegisteredClaims
}

type SessionService struct {
	hmac   []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionService(secret string, ttl time.Duration, secure bool) *SessionService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionService{hmac: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

func (a *SessionService) Issue(c Claims) (string, error) {
	now := a.now()
	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    "mindengage-worksheets",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	return t.SignedString(a.hmac)
}

func (a *SessionService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sid == "" {
		return nil, errors.New("invalid session")
	}
	return c, nil
}

// Write sets the session cookie for c.
func (a *SessionService) Write(w http.ResponseWriter, c Claims) error {
	tok, err := a.Issue(c)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  a.now().Add(a.ttl),
	})
	return nil
}

// Login keeps the session id and attaches the backend token.
func (a *SessionService) Login(w http.ResponseWriter, sid, user, token string) error {
	return a.Write(w, Claims{Sid: sid, User: user, Token: token})
}

// Logout drops the backend token but keeps the workspace.
func (a *SessionService) Logout(w http.ResponseWriter, sid string) error {
	return a.Write(w, Claims{Sid: sid})
}

// Middleware resolves the session from the cookie, starting a fresh anonymous
// one when the cookie is missing or invalid, and stores the session id, user
// and backend token in the request context.
func Middleware(a *SessionService, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var claims *Claims
			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				if claims, err = a.Parse(c.Value); err != nil {
					log.Debug("session cookie rejected", zap.Error(err))
				}
			}
			if claims == nil {
				claims = &Claims{Sid: uuid.NewString()}
				if err := a.Write(w, *claims); err != nil {
					http.Error(w, "issue session", http.StatusInternalServerError)
					return
				}
			}
			ctx := WithSession(r.Context(), claims.Sid)
			if claims.User != "" {
				ctx = WithUser(ctx, claims.User)
			}
			if claims.Token != "" {
				ctx = backend.WithToken(ctx, claims.Token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
