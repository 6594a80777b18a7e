package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

func (s *Server) registerOAuthRoutes(r *mux.Router) {
	r.HandleFunc("/oauth/github/connect", s.requireAuth(s.handleGithubConnect)).Methods("GET")
	r.HandleFunc("/oauth/github/callback", s.requireAuth(s.handleGithubCallback)).Methods("GET")
}

// githubUser is the part of Github's user resource that is needed to link accounts.
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// handleGithubConnect handles the route "GET /oauth/github/connect".
// It remembers a random state in the session and sends the user off to Github.
func (s *Server) handleGithubConnect(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	if err := s.sessions.SetOAuthState(w, r, state); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	http.Redirect(w, r, s.github.AuthCodeURL(state), http.StatusFound)
}

// handleGithubCallback handles the route "GET /oauth/github/callback".
// Github redirects here with a code, which gets exchanged for a token. The token is
// used to look up the Github account, which then gets linked to the logged in user.
func (s *Server) handleGithubCallback(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	state, err := s.sessions.PopOAuthState(w, r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if state == "" || r.FormValue("state") != state {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid oauth state provided."))
		return
	}

	token, err := s.github.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		logrus.WithError(err).Warn("github code exchange failed")
		errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Github did not accept the authorization code."))
		return
	}

	gh, err := s.fetchGithubUser(r, s.github.Client(r.Context(), token))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	providerUserID := strconv.FormatInt(gh.ID, 10)

	// Someone else may have linked that Github account already.
	linked, err := s.os.ByProviderUserID(r.Context(), domain.OAuthProviderGithub, providerUserID)
	if err != nil && errs.ErrorCode(err) != errs.ENOTFOUND {
		errs.ReturnError(w, r, err)
		return
	}
	if linked != nil && linked.UserID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.ECONFLICT, "That Github account is linked to another user."))
		return
	}

	oauth, err := s.os.Find(r.Context(), user.ID, domain.OAuthProviderGithub)
	switch {
	case err == nil:
		oauth.ProviderUserID = providerUserID
		oauth.AccessToken = token.AccessToken
		oauth.RefreshToken = token.RefreshToken
		oauth.Expiry = token.Expiry
		err = s.os.Update(r.Context(), oauth)
	case errs.ErrorCode(err) == errs.ENOTFOUND:
		oauth = &domain.OAuth{
			UserID:         user.ID,
			Provider:       domain.OAuthProviderGithub,
			ProviderUserID: providerUserID,
			AccessToken:    token.AccessToken,
			RefreshToken:   token.RefreshToken,
			Expiry:         token.Expiry,
		}
		err = s.os.Create(r.Context(), oauth)
	}
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, oauth)
}

// fetchGithubUser reads the Github account the oauth client is authorized for.
func (s *Server) fetchGithubUser(r *http.Request, client *http.Client) (*githubUser, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.githubUserURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Github refused to share the account.")
	}
	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, err
	}
	if gh.ID == 0 {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "Github returned no account.")
	}
	return &gh, nil
}
