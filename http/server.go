package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"warbler/auth"
	"warbler/crud"
	"warbler/domain"
	"warbler/monitoring"
)

// defaultGithubUserURL is where the logged in Github user is read from after
// an oauth token has been obtained.
const defaultGithubUserURL = "https://api.github.com/user"

// Options configures the parts of the Server that differ between environments.
type Options struct {
	// Prod makes the csrf cookie secure.
	Prod bool
	// CSRFEnabled wraps every route in gorilla/csrf protection using CSRFKey,
	// which must be 32 bytes long.
	CSRFEnabled bool
	CSRFKey     []byte
	// GithubUserURL overrides the Github user endpoint, for tests.
	GithubUserURL string
}

// Server provides the http functionality of this app, namely routing,
// request handling, and middleware. Every request that changes something
// passes through the session gate (auth.Decide) before any store is touched.
type Server struct {
	router   *mux.Router
	sessions *auth.SessionManager

	us domain.UserService
	ms domain.MessageService
	fs domain.FollowService
	ls domain.LikeService
	is domain.ImageService
	os domain.OAuthService

	github        *oauth2.Config
	githubUserURL string
}

// NewServer returns a new instance of the server, registers all routes and
// gives their handlers access to the crud services passed in.
func NewServer(services *crud.Services, sessions *auth.SessionManager, github *oauth2.Config, opts Options) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		sessions:      sessions,
		us:            services.User,
		ms:            services.Message,
		fs:            services.Follow,
		ls:            services.Like,
		is:            services.Image,
		os:            services.OAuth,
		github:        github,
		githubUserURL: opts.GithubUserURL,
	}
	if s.githubUserURL == "" {
		s.githubUserURL = defaultGithubUserURL
	}

	s.registerAuthRoutes(s.router)
	s.registerUserRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerMessageRoutes(s.router)
	s.registerLikeRoutes(s.router)
	s.registerImageRoutes(s.router)
	s.registerOAuthRoutes(s.router)
	s.router.Handle("/metrics", monitoring.Handler()).Methods("GET")

	// Set up middleware that needs to run on every matched request.
	mws := []mux.MiddlewareFunc{logRequests, monitoring.InstrumentHandler}
	if opts.CSRFEnabled {
		mws = append(mws,
			csrf.Protect(opts.CSRFKey, csrf.Secure(opts.Prod), csrf.Path("/")),
			exposeCSRFToken)
	}
	mws = append(mws, setContentTypeJSON, s.checkUser)
	s.router.Use(mws...)

	return s
}

// ServeHTTP makes the Server a http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens and serves on the specified port until ctx is done.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logrus.WithField("port", port).Info("Listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
