package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/cache"
	"github.com/etnz/tradesim/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the sandbox HTTP API" }
func (*serveCmd) Usage() string {
	return `serve [-addr <address>]

  Serves the sandbox JSON API and the websocket stream of market updates.
  See 'tradesim topic api'.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address, overrides server.addr")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.addr != "" {
		cfg.Server.Addr = c.addr
	}
	if cfg.Auth.Secret == "" {
		logger.Warn("auth.secret is not set, using a random secret: tokens will not survive a restart")
		cfg.Auth.Secret = randomSecret()
	}

	tokens, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.SessionTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating session tokens: %v\n", err)
		return subcommands.ExitFailure
	}
	store, err := auth.NewStore(cfg.Sandbox.MaxSessions, cfg.Auth.SessionTTL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the session store: %v\n", err)
		return subcommands.ExitFailure
	}

	var analyst *analysis.Analyst
	if gemini, err := analysis.NewGemini(ctx, cfg.Analysis.APIKey, cfg.Analysis.Model); err != nil {
		logger.WithError(err).Warn("analysis is disabled")
	} else {
		answers, err := cache.New[string](256, cfg.Analysis.CacheTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating the analysis cache: %v\n", err)
			return subcommands.ExitFailure
		}
		defer answers.Close()
		analyst = analysis.NewAnalyst(gemini, answers)
	}

	s := server.New(server.Options{
		Session:        sandboxOptions(cfg, logger),
		Tokens:         tokens,
		Store:          store,
		MaxSessions:    int(cfg.Sandbox.MaxSessions),
		Analyst:        analyst,
		GoogleClientID: cfg.Auth.GoogleClientID,
		Logger:         logger,
	})
	defer s.Close()
	httpServer := server.NewHTTPServer(cfg.Server.Addr, s, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Addr).Info("serving")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error serving: %v\n", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdown); err != nil {
			fmt.Fprintf(os.Stderr, "Error shutting down: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
