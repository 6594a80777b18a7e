package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"warbler/domain"
)

// fakeGithub answers the token exchange and the user lookup of the oauth flow.
func fakeGithub(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "gh-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gh-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(githubUser{ID: 4242, Login: "octocat"})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newOAuthApp(t *testing.T) *testApp {
	gh := fakeGithub(t)
	cfg := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/oauth/github/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  gh.URL + "/login/oauth/authorize",
			TokenURL: gh.URL + "/login/oauth/access_token",
		},
	}
	return newTestApp(t, Options{GithubUserURL: gh.URL + "/user"}, cfg)
}

// connect starts the oauth flow and returns the state Github would send back.
func connect(t *testing.T, c *client) string {
	t.Helper()
	resp, _ := c.get("/oauth/github/connect")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", loc.Path)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestGithubConnect(t *testing.T) {
	app := newOAuthApp(t)
	user := app.mustSignup("alice", "password1")

	resp, _ := app.client().get("/oauth/github/connect")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	c := app.client()
	c.login("alice", "password1")
	state := connect(t, c)

	resp, body := c.get("/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got domain.OAuth
	decode(t, body, &got)
	assert.Equal(t, "4242", got.ProviderUserID)
	assert.NotContains(t, string(body), "gh-token")

	stored, err := app.services.OAuth.Find(context.Background(), user.ID, domain.OAuthProviderGithub)
	require.NoError(t, err)
	assert.Equal(t, "gh-token", stored.AccessToken)

	// The state is single use.
	resp, _ = c.get("/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Connecting again refreshes the existing link.
	state = connect(t, c)
	resp, _ = c.get("/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGithubCallbackErrors(t *testing.T) {
	app := newOAuthApp(t)
	app.mustSignup("alice", "password1")
	app.mustSignup("bob", "password2")

	c := app.client()
	c.login("alice", "password1")

	connect(t, c)
	resp, _ := c.get("/oauth/github/callback?code=good-code&state=wrong")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	state := connect(t, c)
	resp, _ = c.get("/oauth/github/callback?code=bad-code&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	state = connect(t, c)
	resp, _ = c.get("/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The same Github account cannot be linked to a second user.
	other := app.client()
	other.login("bob", "password2")
	state = connect(t, other)
	resp, _ = other.get("/oauth/github/callback?code=good-code&state=" + url.QueryEscape(state))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
