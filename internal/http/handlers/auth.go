package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/timesheet/internal/auth"
)

// AuthHandler serves the sign-in surface.
type AuthHandler struct {
	auth     *auth.Manager
	validate *validator.Validate
	log      zerolog.Logger
}

// NewAuthHandler returns a handler issuing sessions through m.
func NewAuthHandler(m *auth.Manager, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: m, validate: validator.New(), log: log}
}

type loginPage struct {
	Title string
	Email string
	Error string
	OAuth bool
}

type loginBody struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Email     string `json:"email"`
}

// LoginPage handles GET /login.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.auth.Authenticate(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.renderLogin(w, http.StatusOK, "", "")
}

// Login handles POST /login with a form or a JSON body.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	isJSON := wantsJSON(r)
	var body loginBody
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, http.StatusBadRequest, "", "Invalid form")
			return
		}
		body.Email = r.PostForm.Get("email")
		body.Password = r.PostForm.Get("password")
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	if err := h.validate.Struct(&body); err != nil {
		if isJSON {
			writeErr(w, http.StatusBadRequest, ErrCodeInvalidRequest, "email and password are required")
			return
		}
		h.renderLogin(w, http.StatusBadRequest, body.Email, "Enter your email and password")
		return
	}

	if err := h.auth.CheckCredentials(body.Email, body.Password); err != nil {
		h.audit(r, "user.login", body.Email, false)
		if isJSON {
			writeErr(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password")
			return
		}
		h.renderLogin(w, http.StatusUnauthorized, body.Email, "Invalid email or password")
		return
	}

	p := auth.Principal{Email: body.Email, Method: auth.MethodPassword}
	if err := h.auth.StartSession(w, r, p); err != nil {
		h.log.Error().Err(err).Msg("start session")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	h.audit(r, "user.login", body.Email, true)

	if !isJSON {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	token, err := h.auth.IssueToken(p)
	if err != nil {
		h.log.Error().Err(err).Msg("issue token")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int64(h.auth.TokenTTL().Seconds()),
		Email:     p.Email,
	})
}

// Logout handles POST /logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.EndSession(w, r); err != nil {
		h.log.Error().Err(err).Msg("end session")
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Signed out"})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// OAuthBegin handles GET /login/oauth.
func (h *AuthHandler) OAuthBegin(w http.ResponseWriter, r *http.Request) {
	consentURL, err := h.auth.BeginOAuth(w, r)
	if err != nil {
		if errors.Is(err, auth.ErrOAuthDisabled) {
			renderError(w, h.log, http.StatusNotFound, "Single sign-on is not configured.")
			return
		}
		h.log.Error().Err(err).Msg("begin oauth")
		renderError(w, h.log, http.StatusInternalServerError, "Could not start sign-in.")
		return
	}
	http.Redirect(w, r, consentURL, http.StatusTemporaryRedirect)
}

// OAuthCallback handles GET /login/oauth/callback.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	p, err := h.auth.CompleteOAuth(w, r)
	if err != nil {
		h.audit(r, "user.oauth_login", "", false)
		h.log.Warn().Err(err).Msg("oauth callback")
		h.renderLogin(w, http.StatusUnauthorized, "", "Sign-in failed, please try again")
		return
	}
	h.audit(r, "user.oauth_login", p.Email, true)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, code int, email, msg string) {
	render(w, h.log, code, "login.html", loginPage{
		Title: "Sign in",
		Email: email,
		Error: msg,
		OAuth: h.auth.OAuthEnabled(),
	})
}

// audit logs sign-in attempts.
func (h *AuthHandler) audit(r *http.Request, event, email string, success bool) {
	ev := h.log.Info()
	if !success {
		ev = h.log.Warn()
	}
	ev.Str("event", event).
		Str("email", email).
		Str("ip", r.RemoteAddr).
		Str("request_id", middleware.GetReqID(r.Context())).
		Bool("success", success).
		Msg("auth_audit")
}
