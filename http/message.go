package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"warbler/auth"
	"warbler/errs"
	"warbler/monitoring"
)

func (s *Server) registerMessageRoutes(r *mux.Router) {
	r.HandleFunc("/messages/new", s.handleCreateMessage).Methods("POST")
	r.HandleFunc("/users/{user_id:[0-9]+}/messages/new", s.handleCreateMessage).Methods("POST")
	r.HandleFunc("/messages/{id:[0-9]+}", s.handleGetMessage).Methods("GET")
	r.HandleFunc("/messages/{id:[0-9]+}/edit", s.handleEditMessage).Methods("POST")
	r.HandleFunc("/messages/{id:[0-9]+}/delete", s.handleDeleteMessage).Methods("POST")
}

type messageRequest struct {
	Text string `json:"text"`
}

// currentUserID returns the logged in user's ID, or 0 for anonymous requests.
func currentUserID(r *http.Request) int {
	id, _ := auth.IdentityFrom(r.Context()).UserID()
	return id
}

// handleCreateMessage handles the routes "POST /messages/new" and
// "POST /users/:user_id/messages/new". Without a user ID in the url the message
// is posted as the logged in user. Posting as anybody else is forbidden.
func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	authorID := currentUserID(r)
	if _, ok := mux.Vars(r)["user_id"]; ok {
		id, err := pathID(r, "user_id")
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		authorID = id
	}
	if !s.authorize(w, r, auth.CreateMessage, authorID) {
		return
	}

	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	msg, err := s.ms.Create(r.Context(), authorID, req.Text)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	monitoring.MessagesPosted.Inc()
	writeJSON(w, r, http.StatusCreated, msg)
}

// handleGetMessage handles the route "GET /messages/:id".
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
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
	if msg.LikeCount, err = s.ls.CountByMessageID(r.Context(), msg.ID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msg)
}

// handleEditMessage handles the route "POST /messages/:id/edit".
// Only the author of a message may edit it.
func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	existing, err := s.ms.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !s.authorize(w, r, auth.EditMessage, existing.UserID) {
		return
	}

	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	msg, err := s.ms.Edit(r.Context(), id, req.Text)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, msg)
}

// handleDeleteMessage handles the route "POST /messages/:id/delete".
// Only the author of a message may delete it. Its likes go with it.
func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	existing, err := s.ms.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !s.authorize(w, r, auth.DeleteMessage, existing.UserID) {
		return
	}

	if err := s.ms.Delete(r.Context(), id); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Message deleted."})
}
