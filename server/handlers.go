package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/logging"
	"github.com/etnz/tradesim/renderer"
	"github.com/etnz/tradesim/session"
	"github.com/go-chi/chi/v5"
)

// analysisTimeout bounds a request to the analysis service.
const analysisTimeout = 60 * time.Second

func respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("invalid request body: " + err.Error())
	}
	return nil
}

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	respond(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

type loginResponse struct {
	Token string            `json:"token"`
	User  tradesim.Identity `json:"user"`
}

// Login opens a local demo session.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	// an empty body is a login with the default name
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			HandleErrors(w, r, err)
			return
		}
	}
	s.open(w, r, auth.Local(req.Name))
}

// LoginGoogle opens a session for the identity asserted by a Google
// credential.
func (s *Server) LoginGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := decode(r, &req); err != nil {
		HandleErrors(w, r, err)
		return
	}
	id, err := auth.Google(req.Credential, s.opts.GoogleClientID)
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	s.open(w, r, id)
}

// open starts a new session for id and answers its token.
func (s *Server) open(w http.ResponseWriter, r *http.Request, id tradesim.Identity) {
	sid := tradesim.NewID(time.Now())
	opts := s.opts.Session
	opts.SessionID = sid
	opts.Logger = s.log
	c, err := session.New(opts)
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	if err := c.Login(id); err != nil {
		HandleErrors(w, r, err)
		return
	}
	token, err := s.opts.Tokens.Issue(sid, id)
	if err != nil {
		c.Logout()
		HandleErrors(w, r, err)
		return
	}
	// the identity goes first: a registered session without one is reaped
	if !s.opts.Store.Put(sid, id) {
		c.Logout()
		HandleErrors(w, r, Unavailable("cannot store the session, try again later"))
		return
	}
	if !s.sessions.TryAdd(sid, c, s.opts.MaxSessions) {
		c.Logout()
		s.opts.Store.Forget(sid)
		HandleErrors(w, r, Unavailable("too many sessions, try again later"))
		return
	}

	http.SetCookie(w, s.opts.Tokens.Cookie(token))
	respond(w, r, loginResponse{Token: token, User: id}, http.StatusOK)
}

// Logout ends the session and forgets its identity.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	sid := sidFrom(r.Context())
	s.sessions.Remove(sid)
	s.opts.Store.Forget(sid)
	http.SetCookie(w, auth.ExpiredCookie())
	respond(w, r, nil, http.StatusNoContent)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	c := controllerFrom(r.Context())
	id, ok := c.Identity()
	if !ok {
		HandleErrors(w, r, session.ErrLoggedOut)
		return
	}
	respond(w, r, map[string]any{"user": id, "state": c.State()}, http.StatusOK)
}

func (s *Server) GetMarket(w http.ResponseWriter, r *http.Request) {
	instruments, err := controllerFrom(r.Context()).Instruments()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, instruments, http.StatusOK)
}

func (s *Server) SearchMarket(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			HandleErrors(w, r, BadRequest("invalid limit "+strconv.Quote(l)))
			return
		}
		limit = n
	}
	res, err := controllerFrom(r.Context()).Search(r.URL.Query().Get("q"), limit)
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	if res == nil {
		res = []tradesim.Instrument{}
	}
	respond(w, r, res, http.StatusOK)
}

func (s *Server) GetInstrument(w http.ResponseWriter, r *http.Request) {
	in, history, err := controllerFrom(r.Context()).Quote(chi.URLParam(r, "ticker"))
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, map[string]any{"instrument": in, "history": history}, http.StatusOK)
}

func (s *Server) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	v, err := controllerFrom(r.Context()).Portfolio()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, v, http.StatusOK)
}

func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	points, err := controllerFrom(r.Context()).History()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, points, http.StatusOK)
}

func (s *Server) GetTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := controllerFrom(r.Context()).Trades()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	if trades == nil {
		trades = []tradesim.Trade{}
	}
	respond(w, r, trades, http.StatusOK)
}

type tradeRequest struct {
	Side   tradesim.Side `json:"side"`
	Ticker string        `json:"ticker"`
	Shares int64         `json:"shares"`
}

type tradeResponse struct {
	Trade     tradesim.Trade     `json:"trade"`
	Portfolio tradesim.Valuation `json:"portfolio"`
}

func (s *Server) PostTrade(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decode(r, &req); err != nil {
		HandleErrors(w, r, err)
		return
	}
	if req.Side == 0 {
		HandleErrors(w, r, BadRequest("missing trade side"))
		return
	}
	c := controllerFrom(r.Context())
	trade, err := c.Trade(req.Side, req.Ticker, req.Shares)
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	v, err := c.Portfolio()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, tradeResponse{Trade: trade, Portfolio: v}, http.StatusCreated)
}

type analysisResponse struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// PostAnalysis asks for a diversification analysis of the current holdings.
// The session state is only read.
func (s *Server) PostAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.opts.Analyst == nil {
		HandleErrors(w, r, NewHTTPError(http.StatusBadGateway, "analysis service is not configured"))
		return
	}
	v, err := controllerFrom(r.Context()).Portfolio()
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	md, err := s.opts.Analyst.Analyze(ctx, analysis.FromPositions(v.Positions))
	switch {
	case err == nil:
	case statusOf(err) == http.StatusUnprocessableEntity:
		HandleErrors(w, r, err)
		return
	default:
		logging.FromContext(r.Context()).WithError(err).Warn("analysis failed")
		HandleErrors(w, r, NewHTTPError(http.StatusBadGateway, "failed to get analysis, please try again"))
		return
	}
	html, err := renderer.HTML(md)
	if err != nil {
		HandleErrors(w, r, err)
		return
	}
	respond(w, r, analysisResponse{Markdown: md, HTML: html}, http.StatusOK)
}
