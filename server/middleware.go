package server

import (
	"context"
	"net/http"
	"time"

	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/logging"
	"github.com/etnz/tradesim/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// requestLogger logs one line per request and puts a request scoped logger
// in the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := s.log.WithFields(logrus.Fields{
			"request": middleware.GetReqID(r.Context()),
			"method":  r.Method,
			"path":    r.URL.Path,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), entry)))
		entry.WithFields(logrus.Fields{
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

type ctxKey string

const (
	controllerKey = ctxKey("controller")
	sidKey        = ctxKey("sid")
)

// requireSession loads the controller of the session named in the token.
// A session whose identity has expired is removed.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid, err := auth.SessionID(r.Context())
		if err != nil {
			HandleErrors(w, r, Unauthorized(err.Error()))
			return
		}
		if _, ok := s.opts.Store.Get(sid); !ok {
			s.sessions.Remove(sid)
			HandleErrors(w, r, Unauthorized("session expired"))
			return
		}
		c, ok := s.sessions.Get(sid)
		if !ok || c.State() != session.LoggedIn {
			HandleErrors(w, r, Unauthorized("no active session"))
			return
		}
		ctx := context.WithValue(r.Context(), controllerKey, c)
		ctx = context.WithValue(ctx, sidKey, sid)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithField("session", sid))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func controllerFrom(ctx context.Context) *session.Controller {
	c, _ := ctx.Value(controllerKey).(*session.Controller)
	return c
}

func sidFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sidKey).(string)
	return sid
}
