package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"warbler/domain"
	"warbler/errs"
	"warbler/monitoring"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/signup", s.handleSignup).Methods("POST")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/logout", s.handleLogout).Methods("POST")
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	ImageURL string `json:"image_url"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// accountResponse renders the logged in user's own data, which unlike the
// public user data includes their email address.
type accountResponse struct {
	*domain.User
	Email string `json:"email"`
}

func newAccountResponse(user *domain.User) accountResponse {
	return accountResponse{User: user, Email: user.Email}
}

// handleSignup handles the route "POST /signup".
// It creates a new user and logs the session in as that user.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user, err := s.us.Signup(r.Context(), req.Username, req.Email, req.Password, req.ImageURL)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	monitoring.SignupSuccess.Inc()

	if err := s.sessions.Login(w, r, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, newAccountResponse(user))
}

// handleLogin handles the route "POST /login".
// On valid credentials the session becomes authenticated, otherwise it stays as it was.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user, err := s.us.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errs.ErrorCode(err) == errs.EUNAUTHORIZED {
			monitoring.LoginFailure.Inc()
		}
		errs.ReturnError(w, r, err)
		return
	}

	if err := s.sessions.Login(w, r, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	monitoring.LoginSuccess.Inc()
	logrus.WithField("user_id", user.ID).Debug("logged in")
	writeJSON(w, r, http.StatusOK, newAccountResponse(user))
}

// handleLogout handles the route "POST /logout". It always succeeds, whatever
// state the session was in.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(w, r); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "You were logged out."})
}
