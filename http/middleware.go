package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"warbler/auth"
	"warbler/errs"
	"warbler/monitoring"
)

const requestIDHeader = "X-Request-ID"

// logRequests gives every request an ID, unless the client sent one, and logs
// the request once it has been handled.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)

		rw := &monitoring.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rw, r)

		logrus.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rw.Status,
			"duration":   time.Since(start).String(),
		}).Info("request")
	})
}

// exposeCSRFToken hands the client the token it has to send back in the
// X-CSRF-Token header of unsafe requests.
func exposeCSRFToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", csrf.Token(r))
		next.ServeHTTP(w, r)
	})
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// checkUser reads the session, and if it is logged in, loads the user into the
// request context. Sessions of users that no longer exist count as anonymous.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByID(r.Context(), id)
		if err != nil {
			if errs.ErrorCode(err) != errs.ENOTFOUND {
				errs.LogError(r, err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// requireAuth refuses anonymous requests to handlers that need a logged in
// user but no ownership check.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "You must be logged in to do that."))
			return
		}
		next(w, r)
	}
}

// authorize asks the session gate whether the current request may perform
// action on a resource owned by ownerID. If not, it writes a 403 and returns false.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, action auth.Action, ownerID int) bool {
	decision := auth.Decide(auth.IdentityFrom(r.Context()), action, ownerID)
	if decision == auth.Allow {
		return true
	}
	monitoring.Forbidden.WithLabelValues(action.String()).Inc()
	logrus.WithFields(logrus.Fields{
		"request_id": r.Header.Get(requestIDHeader),
		"action":     action.String(),
		"owner_id":   ownerID,
	}).Debug("forbidden")
	errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "You are not allowed to do that."))
	return false
}

// pathID parses a positive integer route parameter.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.EINVALID, "Invalid Id format.")
	}
	return id, nil
}

// writeJSON writes v as the json response body with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.LogError(r, err)
	}
}

// decodeJSON parses the request's json body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Errorf(errs.EINVALID, "Invalid json body.")
	}
	return nil
}
