// Package cmd implements the tradesim command line.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/config"
	"github.com/etnz/tradesim/logging"
	"github.com/etnz/tradesim/renderer"
	"github.com/etnz/tradesim/session"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "")
	c.Register(&playCmd{}, "")

	c.Register(&marketCmd{}, "market")
	c.Register(&historyCmd{}, "market")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", ".", "directory of the tradesim.yaml and .env files")
var logLevel = flag.String("log-level", "", "log level, overrides the configuration")

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if cfg.Sandbox.Currency != tradesim.Currency {
		return nil, nil, fmt.Errorf("unsupported sandbox currency %q, the market trades in %s", cfg.Sandbox.Currency, tradesim.Currency)
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// sandboxOptions returns the session options described by cfg.
func sandboxOptions(cfg *config.Config, logger logrus.FieldLogger) session.Options {
	opts := session.Options{
		InitialCash: tradesim.M(cfg.Sandbox.InitialCash, cfg.Sandbox.Currency),
		Interval:    cfg.Sandbox.TickInterval,
		Retention:   cfg.Sandbox.HistorySize,
		Logger:      logger,
	}
	if cfg.Sandbox.Seed != 0 {
		opts.Rand = tradesim.NewRand(cfg.Sandbox.Seed)
	}
	return opts
}

// printMarkdown prints md rendered for the terminal, or as is if it cannot be
// rendered.
func printMarkdown(md string) {
	out, err := renderer.Terminal(md, 100, "")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
