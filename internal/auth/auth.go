// Package auth issues and checks sessions. A request is signed in when it
// carries either the session cookie or a bearer token minted at login.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrOAuthDisabled      = errors.New("oauth login is not configured")
	ErrInvalidState       = errors.New("oauth state mismatch")
)

const (
	tokenIssuer   = "tsm"
	keyEmail      = "email"
	keyMethod     = "method"
	keyOAuthState = "oauth_state"
)

// Login methods recorded on a Principal.
const (
	MethodPassword = "password"
	MethodOAuth    = "oauth"
	MethodToken    = "token"
)

// Principal is the signed-in user.
type Principal struct {
	Email  string
	Method string
}

// Config configures a Manager.
type Config struct {
	Secret       []byte
	CookieName   string
	MaxAge       time.Duration
	TokenTTL     time.Duration
	SecureCookie bool

	// Email and Password enable the credentials login. Empty disables it.
	Email    string
	Password string

	OAuth OAuthConfig
}

// OAuthConfig describes an OAuth2 authorization-code provider. It is
// enabled when ClientID and AuthURL are set.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Manager issues and verifies sessions.
type Manager struct {
	store       *sessions.CookieStore
	cookieName  string
	secret      []byte
	tokenTTL    time.Duration
	email       string
	password    string
	oauth       *oauth2.Config
	userInfoURL string
	now         func() time.Time
	log         zerolog.Logger
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config, log zerolog.Logger) *Manager {
	store := sessions.NewCookieStore(cfg.Secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	m := &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		secret:     cfg.Secret,
		tokenTTL:   cfg.TokenTTL,
		email:      strings.ToLower(strings.TrimSpace(cfg.Email)),
		password:   cfg.Password,
		now:        time.Now,
		log:        log,
	}
	if m.cookieName == "" {
		m.cookieName = "tsm_session"
	}
	if m.tokenTTL <= 0 {
		m.tokenTTL = 8 * time.Hour
	}
	if cfg.OAuth.ClientID != "" && cfg.OAuth.AuthURL != "" {
		m.oauth = &oauth2.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			RedirectURL:  cfg.OAuth.RedirectURL,
			Scopes:       cfg.OAuth.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuth.AuthURL,
				TokenURL: cfg.OAuth.TokenURL,
			},
		}
		m.userInfoURL = cfg.OAuth.UserInfoURL
	}
	return m
}

// SetClock replaces the clock used for token times.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// TokenTTL is the lifetime of issued bearer tokens.
func (m *Manager) TokenTTL() time.Duration { return m.tokenTTL }

// CheckCredentials compares against the configured login.
func (m *Manager) CheckCredentials(email, password string) error {
	if m.email == "" || m.password == "" {
		return ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(m.email))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(m.password))
	if emailOK&passOK != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// StartSession writes the session cookie for p.
func (m *Manager) StartSession(w http.ResponseWriter, r *http.Request, p Principal) error {
	sess, _ := m.store.Get(r, m.cookieName)
	sess.Values[keyEmail] = p.Email
	sess.Values[keyMethod] = p.Method
	delete(sess.Values, keyOAuthState)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// EndSession expires the session cookie.
func (m *Manager) EndSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.store.Get(r, m.cookieName)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Method string `json:"method,omitempty"`
}

// IssueToken mints an HS256 bearer token for p.
func (m *Manager) IssueToken(p Principal) (string, error) {
	now := m.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
		},
		Method: p.Method,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseToken verifies a bearer token and returns its principal.
func (m *Manager) ParseToken(tokenString string) (Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{Email: claims.Subject, Method: MethodToken}, nil
}

// Authenticate returns the principal of r, from a bearer token or the
// session cookie.
func (m *Manager) Authenticate(r *http.Request) (Principal, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		p, err := m.ParseToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			m.log.Debug().Err(err).Msg("bearer token rejected")
			return Principal{}, false
		}
		return p, true
	}
	sess, err := m.store.Get(r, m.cookieName)
	if err != nil {
		return Principal{}, false
	}
	email, _ := sess.Values[keyEmail].(string)
	if email == "" {
		return Principal{}, false
	}
	method, _ := sess.Values[keyMethod].(string)
	return Principal{Email: email, Method: method}, true
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by the gating middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// RequireAPI rejects requests without a session with 401 JSON.
func (m *Manager) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := m.Authenticate(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","code":"unauthorized"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequirePage redirects requests without a session to loginPath.
func (m *Manager) RequirePage(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := m.Authenticate(r)
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
