package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/domain"
	"warbler/errs"
)

const (
	profileMessageLimit = 30
	searchLimit         = 20
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	// Search for users.
	r.HandleFunc("/users", s.handleSearchUsers).Methods("GET")

	// Update the logged in user's data.
	r.HandleFunc("/users/profile", s.handleUpdateProfile).Methods("POST")

	// Get the profile data of a specific user.
	r.HandleFunc("/users/{user_id:[0-9]+}", s.handleGetProfile).Methods("GET")

	// Get the messages a user likes.
	r.HandleFunc("/users/{user_id:[0-9]+}/likes", s.requireAuth(s.handleUserLikes)).Methods("GET")
}

// handleSearchUsers handles the route "GET /users?q=term".
// It returns the users whose name contains the term, or some users if there is none.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.us.Search(r.Context(), r.URL.Query().Get("q"), searchLimit)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

// handleGetProfile handles the route "GET /users/:user_id".
// It returns the user along with their counts and most recent messages. For a
// logged in visitor it also tells whether they follow that user.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user, err := s.us.ByID(r.Context(), userID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if user.Messages, err = s.ms.ByUserID(r.Context(), user.ID, profileMessageLimit); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err = s.setUserCounts(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if visitorID, ok := auth.IdentityFrom(r.Context()).UserID(); ok && visitorID != user.ID {
		follows, err := s.fs.IsFollowing(r.Context(), visitorID, user.ID)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		user.AuthFollows = &follows
	}
	writeJSON(w, r, http.StatusOK, user)
}

// handleUserLikes handles the route "GET /users/:user_id/likes".
func (s *Server) handleUserLikes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if _, err := s.us.ByID(r.Context(), userID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	msgs, err := s.ls.ByUserID(r.Context(), userID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msgs)
}

type profileRequest struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Bio         *string `json:"bio"`
	Password    string  `json:"password"`
	NewPassword string  `json:"new_password"`
}

// handleUpdateProfile handles the route "POST /users/profile".
// The current password must be sent along; empty fields are left as they are.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.UpdateProfile, currentUserID(r)) {
		return
	}
	user := auth.GetUser(r.Context())

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if _, err := s.us.Authenticate(r.Context(), user.Username, req.Password); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	updated := *user
	if strings.TrimSpace(req.Username) != "" {
		updated.Username = req.Username
	}
	if strings.TrimSpace(req.Email) != "" {
		updated.Email = req.Email
	}
	if req.Bio != nil {
		updated.Bio = *req.Bio
	}
	updated.Password = req.NewPassword

	if err := s.us.Update(r.Context(), &updated); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserCounts(r.Context(), &updated); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newAccountResponse(&updated))
}

// setUserCounts counts the user's messages, followers and followed users, and
// sets those numbers to the according fields.
func (s *Server) setUserCounts(ctx context.Context, user *domain.User) error {
	var err error
	if user.MessageCount, err = s.ms.CountByUserID(ctx, user.ID); err != nil {
		return err
	}
	if user.FollowerCount, err = s.fs.CountFollowers(ctx, user.ID); err != nil {
		return err
	}
	if user.FollowingCount, err = s.fs.CountFollowing(ctx, user.ID); err != nil {
		return err
	}
	return nil
}
