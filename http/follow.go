package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/users/follow/{followed_id:[0-9]+}", s.handleFollow).Methods("POST")
	r.HandleFunc("/users/stop-following/{followed_id:[0-9]+}", s.handleUnfollow).Methods("POST")
	r.HandleFunc("/users/{user_id:[0-9]+}/followers", s.handleFollowers).Methods("GET")
	r.HandleFunc("/users/{user_id:[0-9]+}/following", s.handleFollowing).Methods("GET")
}

type followResponse struct {
	FollowerID int  `json:"follower_id"`
	FollowedID int  `json:"followed_id"`
	Following  bool `json:"following"`
}

// handleFollow handles the route "POST /users/follow/:followed_id".
// The logged in user owns the edge; following someone twice is not an error.
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, auth.Follow, true)
}

// handleUnfollow handles the route "POST /users/stop-following/:followed_id".
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, auth.Unfollow, false)
}

func (s *Server) changeFollow(w http.ResponseWriter, r *http.Request, action auth.Action, follow bool) {
	followerID := currentUserID(r)
	if !s.authorize(w, r, action, followerID) {
		return
	}
	followedID, err := pathID(r, "followed_id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if follow {
		err = s.fs.Follow(r.Context(), followerID, followedID)
	} else {
		err = s.fs.Unfollow(r.Context(), followerID, followedID)
	}
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, followResponse{
		FollowerID: followerID,
		FollowedID: followedID,
		Following:  follow,
	})
}

// handleFollowers handles the route "GET /users/:user_id/followers".
func (s *Server) handleFollowers(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !s.authorize(w, r, auth.ViewFollowers, userID) {
		return
	}
	if _, err := s.us.ByID(r.Context(), userID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	users, err := s.fs.Followers(r.Context(), userID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

// handleFollowing handles the route "GET /users/:user_id/following".
func (s *Server) handleFollowing(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "user_id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !s.authorize(w, r, auth.ViewFollowing, userID) {
		return
	}
	if _, err := s.us.ByID(r.Context(), userID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	users, err := s.fs.Following(r.Context(), userID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}
