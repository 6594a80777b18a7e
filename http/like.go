package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/errs"
)

// registerLikeRoutes is a helper for registering all Like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	// Like a message, or unlike it if it is liked already.
	r.HandleFunc("/messages/{id:[0-9]+}/like", s.handleToggleLike).Methods("POST")
}

type likeResponse struct {
	MessageID int  `json:"message_id"`
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// handleToggleLike handles the route "POST /messages/:id/like".
// Users cannot like their own messages.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	msg, err := s.ms.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !s.authorize(w, r, auth.LikeMessage, msg.UserID) {
		return
	}

	liked, err := s.ls.Toggle(r.Context(), currentUserID(r), msg.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	count, err := s.ls.CountByMessageID(r.Context(), msg.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, likeResponse{MessageID: msg.ID, Liked: liked, LikeCount: count})
}
