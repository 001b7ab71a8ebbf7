// Package server exposes sandbox sessions over an HTTP JSON API and a
// websocket stream of market updates.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultReapInterval is how often sessions whose identity has expired are
// logged out.
const DefaultReapInterval = time.Minute

// IdentityStore keeps the identity bound to each session. *auth.Store
// implements it.
type IdentityStore interface {
	Put(sid string, id tradesim.Identity) bool
	Get(sid string) (tradesim.Identity, bool)
	Forget(sid string)
	Close()
}

// Options configures a Server.
type Options struct {
	Session        session.Options   // template of every new session
	Tokens         *auth.Tokens      // required
	Store          IdentityStore     // required
	Analyst        *analysis.Analyst // nil disables the analysis
	GoogleClientID string            // expected audience of Google credentials, if not empty
	MaxSessions    int               // <= 0 means no limit
	ReapInterval   time.Duration     // zero means DefaultReapInterval
	Logger         *logrus.Logger
}

type Server struct {
	Router   *chi.Mux
	opts     Options
	log      *logrus.Logger
	sessions *session.Registry
	upgrader websocket.Upgrader

	closeOnce sync.Once
	stop      chan struct{}
	reaped    chan struct{}
}

// New creates a server and starts logging out the sessions whose identity
// has expired. Close stops it.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.ReapInterval <= 0 {
		opts.ReapInterval = DefaultReapInterval
	}
	s := &Server{
		Router:   chi.NewRouter(),
		opts:     opts,
		log:      opts.Logger,
		sessions: session.NewRegistry(),
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
		stop:     make(chan struct{}),
		reaped:   make(chan struct{}),
	}
	s.InitRoutes()
	go s.reap(opts.ReapInterval)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(s.requestLogger)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", Healthcheck)

	s.Router.Route("/api", func(r chi.Router) {
		r.Post("/login", s.Login)
		r.Post("/login/google", s.LoginGoogle)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.opts.Tokens.JWTAuth()))
			r.Use(jwtauth.Authenticator)
			r.Use(s.requireSession)

			r.Post("/logout", s.Logout)
			r.Get("/session", s.GetSession)

			r.Get("/market", s.GetMarket)
			r.Get("/market/search", s.SearchMarket)
			r.Get("/market/{ticker}", s.GetInstrument)

			r.Get("/portfolio", s.GetPortfolio)
			r.Get("/portfolio/history", s.GetHistory)

			r.Get("/trades", s.GetTrades)
			r.Post("/trades", s.PostTrade)

			r.Post("/analysis", s.PostAnalysis)
			r.Get("/stream", s.Stream)
		})
	})
}

// Close stops the reaper and logs out every session.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.reaped
		s.sessions.Close()
		s.opts.Store.Close()
	})
}

func (s *Server) reap(interval time.Duration) {
	defer close(s.reaped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.reapExpired()
		}
	}
}

// reapExpired logs out the sessions whose identity is no longer in the store
// and returns how many were removed.
func (s *Server) reapExpired() int {
	n := 0
	for _, sid := range s.sessions.IDs() {
		if _, ok := s.opts.Store.Get(sid); ok {
			continue
		}
		if s.sessions.Remove(sid) {
			n++
		}
	}
	if n > 0 {
		s.log.WithField("sessions", n).Info("expired sessions logged out")
	}
	return n
}

func NewHTTPServer(addr string, server *Server, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:         addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Handler:      server,
	}
}
