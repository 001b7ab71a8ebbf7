package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/logging"
	"github.com/etnz/tradesim/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constant float64

func (c constant) Float64() float64 { return float64(c) }

func catalog() []tradesim.Instrument {
	return []tradesim.Instrument{
		{Ticker: "TCS", Name: "Tata Consultancy Services Ltd.", Industry: "Information Technology", Price: tradesim.INR(4000)},
		{Ticker: "ITC", Name: "ITC Ltd.", Industry: "FMCG", Price: tradesim.INR(400)},
		{Ticker: "SBIN", Name: "State Bank of India", Industry: "Banking", Price: tradesim.INR(800)},
	}
}

// newServer creates a test server. A nil store means an auth.Store keeping
// identities for an hour.
func newServer(t *testing.T, gen analysis.Generator, interval time.Duration, configure ...func(*Options)) *Server {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	var analyst *analysis.Analyst
	if gen != nil {
		analyst = analysis.NewAnalyst(gen, nil)
	}
	opts := Options{
		Session: session.Options{
			Catalog:  catalog(),
			Rand:     constant(1.0),
			Interval: interval,
		},
		Tokens:         tokens,
		Analyst:        analyst,
		GoogleClientID: "client-1",
		Logger:         logging.Discard(),
	}
	for _, f := range configure {
		f(&opts)
	}
	if opts.Store == nil {
		store, err := auth.NewStore(100, time.Hour)
		require.NoError(t, err)
		opts.Store = store
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s
}

// call performs a request on s and decodes the JSON answer into out if not nil.
func call(t *testing.T, s *Server, method, path, token, body string, out any) int {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
	}
	return w.Code
}

func login(t *testing.T, s *Server, name string) string {
	t.Helper()
	var res struct {
		Token string            `json:"token"`
		User  tradesim.Identity `json:"user"`
	}
	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/api/login", "", `{"name":"`+name+`"}`, &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

type money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type portfolio struct {
	Cash       money `json:"cash"`
	TotalValue money `json:"totalValue"`
	Positions  []struct {
		Ticker      string `json:"ticker"`
		Shares      int64  `json:"shares"`
		AverageCost money  `json:"averageCost"`
		Name        string `json:"name"`
	} `json:"positions"`
}

func TestAlive(t *testing.T) {
	s := newServer(t, nil, 0)
	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/alive", "", "", nil))
}

func TestLoginAndSession(t *testing.T) {
	s := newServer(t, nil, 0)

	var res loginResponse
	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/api/login", "", `{}`, &res))
	assert.Equal(t, auth.DefaultName, res.User.Name)
	assert.Equal(t, tradesim.LocalProvider, res.User.Provider)

	var got struct {
		User  tradesim.Identity `json:"user"`
		State string            `json:"state"`
	}
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/session", res.Token, "", &got))
	assert.Equal(t, res.User, got.User)
	assert.Equal(t, "logged-in", got.State)
}

func TestUnauthenticated(t *testing.T) {
	s := newServer(t, nil, 0)
	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, "/api/portfolio", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, "/api/portfolio", "garbage", "", nil))

	other, err := auth.NewTokens("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := other.Issue("unknown-session", auth.Local(""))
	require.NoError(t, err)
	var res map[string]string
	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, "/api/portfolio", token, "", &res))
	assert.NotEmpty(t, res["error"])
}

func TestLoginGoogle(t *testing.T) {
	s := newServer(t, nil, 0)
	enc := base64URL
	cred := enc(`{"alg":"RS256"}`) + "." + enc(`{"sub":"42","name":"Asha Rao","email":"asha@example.com","aud":"client-1"}`) + ".sig"

	var res loginResponse
	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/api/login/google", "", `{"credential":"`+cred+`"}`, &res))
	assert.Equal(t, "Asha Rao", res.User.Name)
	assert.Equal(t, tradesim.GoogleProvider, res.User.Provider)

	var e map[string]string
	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodPost, "/api/login/google", "", `{"credential":"not-a-jwt"}`, &e))
	assert.Contains(t, e["error"], "invalid credential")
}

func TestTrading(t *testing.T) {
	s := newServer(t, nil, 0)
	token := login(t, s, "Asha")

	var tr struct {
		Trade struct {
			ID     string `json:"id"`
			Side   string `json:"side"`
			Amount money  `json:"amount"`
		} `json:"trade"`
		Portfolio portfolio `json:"portfolio"`
	}
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"ITC","shares":10}`, &tr))
	assert.NotEmpty(t, tr.Trade.ID)
	assert.Equal(t, "buy", tr.Trade.Side)
	assert.Equal(t, 4000.0, tr.Trade.Amount.Amount)
	assert.Equal(t, 96000.0, tr.Portfolio.Cash.Amount)

	var e map[string]string
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"sell","ticker":"ITC","shares":11}`, &e))
	assert.Contains(t, e["error"], "not enough shares")
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"TCS","shares":1000}`, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"TCS","shares":0}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"NOPE","shares":1}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"hold","ticker":"ITC","shares":1}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/api/trades", token, `{"ticker":"ITC","shares":1}`, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodPost, "/api/trades", token, `{`, nil))

	var p portfolio
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/portfolio", token, "", &p))
	assert.Equal(t, 96000.0, p.Cash.Amount)
	require.Len(t, p.Positions, 1)
	assert.Equal(t, "ITC Ltd.", p.Positions[0].Name)
	assert.Equal(t, 400.0, p.Positions[0].AverageCost.Amount)

	var trades []map[string]any
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/trades", token, "", &trades))
	assert.Len(t, trades, 1)
}

func TestSessionsAreIsolated(t *testing.T) {
	s := newServer(t, nil, 0)
	a := login(t, s, "A")
	b := login(t, s, "B")
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/api/trades", a, `{"side":"buy","ticker":"ITC","shares":10}`, nil))

	var p portfolio
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/portfolio", b, "", &p))
	assert.Equal(t, 100000.0, p.Cash.Amount)
	assert.Empty(t, p.Positions)
}

func TestLogout(t *testing.T) {
	s := newServer(t, nil, 0)
	token := login(t, s, "Asha")

	r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), auth.CookieName+"=;")

	assert.Equal(t, http.StatusUnauthorized, call(t, s, http.MethodGet, "/api/portfolio", token, "", nil))
	assert.Zero(t, s.sessions.Len())
}

func TestMarket(t *testing.T) {
	s := newServer(t, nil, 0)
	token := login(t, s, "Asha")

	var instruments []tradesim.Instrument
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/market", token, "", &instruments))
	assert.Len(t, instruments, 3)

	var found []tradesim.Instrument
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/market/search?q=bank", token, "", &found))
	require.Len(t, found, 1)
	assert.Equal(t, "SBIN", found[0].Ticker)

	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/market/search?q=zzz", token, "", &found))
	assert.Empty(t, found)
	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodGet, "/api/market/search?q=a&limit=x", token, "", nil))

	var detail struct {
		Instrument tradesim.Instrument   `json:"instrument"`
		History    []tradesim.PricePoint `json:"history"`
	}
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/market/TCS", token, "", &detail))
	assert.Equal(t, "TCS", detail.Instrument.Ticker)
	assert.Len(t, detail.History, tradesim.HistoryDays+1)

	assert.Equal(t, http.StatusBadRequest, call(t, s, http.MethodGet, "/api/market/NOPE", token, "", nil))
}

func TestHistory(t *testing.T) {
	s := newServer(t, nil, 0)
	token := login(t, s, "Asha")

	var points []tradesim.HistoryPoint
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/portfolio/history", token, "", &points))
	assert.Empty(t, points)

	for _, id := range s.sessions.IDs() {
		c, _ := s.sessions.Get(id)
		_, err := c.Step()
		require.NoError(t, err)
	}
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/portfolio/history", token, "", &points))
	require.Len(t, points, 1)
	assert.Equal(t, 100000.0, points[0].Value.Float())
}

func TestAnalysis(t *testing.T) {
	var prompt string
	s := newServer(t, analysis.GeneratorFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "## Composition\n\n- Only **FMCG**\n", nil
	}), 0)
	token := login(t, s, "Asha")

	var e map[string]string
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, s, http.MethodPost, "/api/analysis", token, "", &e))
	assert.Contains(t, e["error"], "holdings")
	assert.Empty(t, prompt, "no call without holdings")

	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"ITC","shares":10}`, nil))
	var res analysisResponse
	require.Equal(t, http.StatusOK, call(t, s, http.MethodPost, "/api/analysis", token, "", &res))
	assert.Contains(t, prompt, `"industry": "FMCG"`)
	assert.Contains(t, res.HTML, "<h2>Composition</h2>")
	assert.Contains(t, res.Markdown, "## Composition")
}

func TestAnalysisFailure(t *testing.T) {
	s := newServer(t, analysis.GeneratorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("quota exceeded")
	}), 0)
	token := login(t, s, "Asha")
	require.Equal(t, http.StatusCreated, call(t, s, http.MethodPost, "/api/trades", token, `{"side":"buy","ticker":"ITC","shares":10}`, nil))

	assert.Equal(t, http.StatusBadGateway, call(t, s, http.MethodPost, "/api/analysis", token, "", nil))

	// trading state is unaffected
	var p portfolio
	require.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/portfolio", token, "", &p))
	assert.Len(t, p.Positions, 1)

	unconfigured := newServer(t, nil, 0)
	token = login(t, unconfigured, "Asha")
	assert.Equal(t, http.StatusBadGateway, call(t, unconfigured, http.MethodPost, "/api/analysis", token, "", nil))
}

func TestStream(t *testing.T) {
	s := newServer(t, nil, 10*time.Millisecond)
	ts := httptest.NewServer(s)
	defer ts.Close()
	token := login(t, s, "Asha")

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	var u struct {
		Instruments []tradesim.Instrument `json:"instruments"`
		Point       tradesim.HistoryPoint `json:"point"`
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&u))
	assert.Len(t, u.Instruments, 3)
	assert.NotEmpty(t, u.Point.Label)

	// logout closes the stream
	r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	s.ServeHTTP(httptest.NewRecorder(), r)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestStreamUnauthenticated(t *testing.T) {
	s := newServer(t, nil, 0)
	ts := httptest.NewServer(s)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestExpiredSessionsAreLoggedOut(t *testing.T) {
	s := newServer(t, nil, 10*time.Millisecond, func(o *Options) {
		store, err := auth.NewStore(100, 50*time.Millisecond)
		require.NoError(t, err)
		o.Store = store
		o.ReapInterval = 20 * time.Millisecond
	})
	var controllers []*session.Controller
	for i := range 5 {
		login(t, s, fmt.Sprintf("trader-%d", i))
	}
	for _, id := range s.sessions.IDs() {
		c, _ := s.sessions.Get(id)
		controllers = append(controllers, c)
	}

	// no further request: the reaper alone ends the sessions
	assert.Eventually(t, func() bool { return s.sessions.Len() == 0 }, 3*time.Second, 10*time.Millisecond)
	for _, c := range controllers {
		assert.Equal(t, session.LoggedOut, c.State())
	}
}

func TestReapExpired(t *testing.T) {
	store := newMemoryStore()
	s := newServer(t, nil, 0, func(o *Options) { o.Store = store })
	keep := login(t, s, "A")
	login(t, s, "B")
	require.Equal(t, 2, s.sessions.Len())

	ids := s.sessions.IDs()
	store.Forget(ids[1])
	assert.Equal(t, 1, s.reapExpired())
	assert.Equal(t, []string{ids[0]}, s.sessions.IDs())
	assert.Zero(t, s.reapExpired())

	assert.Equal(t, http.StatusOK, call(t, s, http.MethodGet, "/api/session", keep, "", nil))
}

func TestMaxSessions(t *testing.T) {
	s := newServer(t, nil, 0, func(o *Options) { o.MaxSessions = 2 })
	a := login(t, s, "A")
	login(t, s, "B")

	var e map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, call(t, s, http.MethodPost, "/api/login", "", `{"name":"C"}`, &e))
	assert.Contains(t, e["error"], "too many sessions")
	assert.Equal(t, 2, s.sessions.Len())

	require.Equal(t, http.StatusNoContent, call(t, s, http.MethodPost, "/api/logout", a, "", nil))
	login(t, s, "C")
	assert.Equal(t, 2, s.sessions.Len())
}

func TestLoginStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.refuse = true
	s := newServer(t, nil, 0, func(o *Options) { o.Store = store })

	var e map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, call(t, s, http.MethodPost, "/api/login", "", `{"name":"A"}`, &e))
	assert.NotEmpty(t, e["error"])
	assert.Zero(t, s.sessions.Len())
}
