package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// OAuthEnabled reports whether an OAuth provider is configured.
func (m *Manager) OAuthEnabled() bool { return m.oauth != nil }

// BeginOAuth stores a fresh state in the session and returns the
// provider's consent URL.
func (m *Manager) BeginOAuth(w http.ResponseWriter, r *http.Request) (string, error) {
	if m.oauth == nil {
		return "", ErrOAuthDisabled
	}
	state := uuid.NewString()
	sess, _ := m.store.Get(r, m.cookieName)
	sess.Values[keyOAuthState] = state
	if err := sess.Save(r, w); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return m.oauth.AuthCodeURL(state), nil
}

// CompleteOAuth checks the callback state, exchanges the code and signs in
// the email reported by the userinfo endpoint.
func (m *Manager) CompleteOAuth(w http.ResponseWriter, r *http.Request) (Principal, error) {
	if m.oauth == nil {
		return Principal{}, ErrOAuthDisabled
	}
	sess, _ := m.store.Get(r, m.cookieName)
	want, _ := sess.Values[keyOAuthState].(string)
	q := r.URL.Query()
	if want == "" || q.Get("state") != want {
		return Principal{}, ErrInvalidState
	}
	if e := q.Get("error"); e != "" {
		return Principal{}, fmt.Errorf("oauth provider: %s", e)
	}

	ctx := r.Context()
	tok, err := m.oauth.Exchange(ctx, q.Get("code"))
	if err != nil {
		return Principal{}, fmt.Errorf("exchange code: %w", err)
	}

	email, err := m.fetchEmail(r, m.oauth.Client(ctx, tok))
	if err != nil {
		return Principal{}, err
	}
	p := Principal{Email: email, Method: MethodOAuth}
	if err := m.StartSession(w, r, p); err != nil {
		return Principal{}, err
	}
	m.log.Info().Str("email", email).Msg("oauth login")
	return p, nil
}

type userInfo struct {
	Email string `json:"email"`
}

func (m *Manager) fetchEmail(r *http.Request, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading userinfo: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo error %d: %s", resp.StatusCode, string(body))
	}
	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decoding userinfo: %w", err)
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if email == "" {
		return "", fmt.Errorf("userinfo has no email")
	}
	return email, nil
}
