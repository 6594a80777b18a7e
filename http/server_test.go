package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"warbler/auth"
	"warbler/crud"
	"warbler/database/dbtest"
	"warbler/domain"
)

var testSessionKey = []byte("0123456789abcdef0123456789abcdef")

// testApp is a running server on top of a fresh database.
type testApp struct {
	t        *testing.T
	url      string
	services *crud.Services
}

// client is a browser-like http client with its own cookie jar, so every
// client is one session.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestApp(t *testing.T, opts Options, github *oauth2.Config) *testApp {
	t.Helper()
	services, err := crud.NewServices(dbtest.New(t),
		crud.WithUser("test-pepper", bcrypt.MinCost),
		crud.WithMessage(),
		crud.WithFollow(),
		crud.WithLike(),
		crud.WithImage(t.TempDir()),
		crud.WithOAuth(),
	)
	require.NoError(t, err)
	if github == nil {
		github = &oauth2.Config{}
	}
	s := NewServer(services, auth.NewSessionManager(false, testSessionKey), github, opts)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return &testApp{t: t, url: ts.URL, services: services}
}

func newApp(t *testing.T) *testApp {
	return newTestApp(t, Options{}, nil)
}

func (a *testApp) client() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &client{
		t:    a.t,
		base: a.url,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// mustSignup signs up a user directly through the store, leaving every session anonymous.
func (a *testApp) mustSignup(username, password string) *domain.User {
	a.t.Helper()
	u, err := a.services.User.Signup(context.Background(), username, username+"@example.com", password, "")
	require.NoError(a.t, err)
	return u
}

func (a *testApp) mustPost(authorID int, text string) *domain.Message {
	a.t.Helper()
	msg, err := a.services.Message.Create(context.Background(), authorID, text)
	require.NoError(a.t, err)
	return msg
}

func (a *testApp) messageText(id int) string {
	a.t.Helper()
	msg, err := a.services.Message.ByID(context.Background(), id)
	require.NoError(a.t, err)
	return msg.Text
}

// do sends a request with an optional json body and returns the response
// along with its body.
func (c *client) do(method, path string, body interface{}) (*http.Response, []byte) {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) get(path string) (*http.Response, []byte) {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, body interface{}) (*http.Response, []byte) {
	return c.do(http.MethodPost, path, body)
}

func (c *client) login(username, password string) {
	c.t.Helper()
	resp, body := c.post("/login", loginRequest{Username: username, Password: password})
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(body))
}

func decode(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v), string(data))
}
