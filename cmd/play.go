package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/tradesim"
	"github.com/etnz/tradesim/analysis"
	"github.com/etnz/tradesim/auth"
	"github.com/etnz/tradesim/cache"
	"github.com/etnz/tradesim/docs"
	"github.com/etnz/tradesim/renderer"
	"github.com/etnz/tradesim/session"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

type playCmd struct {
	name string
	live bool
}

func (*playCmd) Name() string     { return "play" }
func (*playCmd) Synopsis() string { return "trade in an interactive sandbox" }
func (*playCmd) Usage() string {
	return `play [-name <name>] [-live]

  Opens an interactive sandbox session. See 'tradesim topic play'.
`
}

func (c *playCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "trader name")
	f.BoolVar(&c.live, "live", false, "move the market on its own, instead of on 'tick'")
}

func (c *playCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if *logLevel == "" {
		// keep the prompt readable
		logger.SetLevel(logrus.WarnLevel)
	}

	opts := sandboxOptions(cfg, logger)
	if !c.live {
		opts.Interval = 0
	}
	ctrl, err := session.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating the session: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := ctrl.Login(auth.Local(c.name)); err != nil {
		fmt.Fprintf(os.Stderr, "Error logging in: %v\n", err)
		return subcommands.ExitFailure
	}
	defer ctrl.Logout()

	var analyst *analysis.Analyst
	if gemini, err := analysis.NewGemini(ctx, cfg.Analysis.APIKey, cfg.Analysis.Model); err == nil {
		answers, err := cache.New[string](16, cfg.Analysis.CacheTTL)
		if err == nil {
			defer answers.Close()
			analyst = analysis.NewAnalyst(gemini, answers)
		}
	}

	p := newPlayer(os.Stdout, os.Stdin, ctrl, analyst)
	p.print = func(md string) { printMarkdown(md) }
	if err := p.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

const playPrompt = "tradesim> "

// player runs the interactive sandbox on a logged in session.
type player struct {
	w       io.Writer
	r       *bufio.Reader
	c       *session.Controller
	analyst *analysis.Analyst // nil if analysis is not available
	print   func(md string)
}

func newPlayer(w io.Writer, r io.Reader, c *session.Controller, analyst *analysis.Analyst) *player {
	p := &player{w: w, r: bufio.NewReader(r), c: c, analyst: analyst}
	p.print = func(md string) { fmt.Fprintln(p.w, md) }
	return p
}

// Run reads and executes commands until 'bye' or the end of input.
func (p *player) Run(ctx context.Context) error {
	v, err := p.c.Portfolio()
	if err != nil {
		return err
	}
	id, _ := p.c.Identity()
	fmt.Fprintf(p.w, "Welcome %s, you have %v to trade. Type 'help' for the commands, 'bye' to exit.\n", id.Name, v.Cash)

	for {
		fmt.Fprint(p.w, playPrompt)
		input, err := p.r.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
			if err == io.EOF {
				fmt.Fprintln(p.w)
				return nil // Clean exit on Ctrl+D
			}
			return err
		}
		args := strings.Fields(input)
		if len(args) == 0 {
			continue
		}
		if args[0] == "bye" {
			return nil
		}
		if err := p.exec(ctx, args[0], args[1:]); err != nil {
			if tradesim.IsDeclined(err) {
				fmt.Fprintf(p.w, "Declined: %v\n", errors.Unwrap(err))
			} else {
				fmt.Fprintf(p.w, "Error: %v\n", err)
			}
		}
	}
}

func (p *player) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "buy", "sell":
		return p.trade(cmd, args)
	case "tick":
		return p.tick(args)
	case "portfolio":
		s, err := p.c.Snapshot()
		if err != nil {
			return err
		}
		p.print(renderer.RenderDashboard(&renderer.Dashboard{User: s.User, Portfolio: s.Portfolio}))
	case "market":
		instruments, err := p.c.Instruments()
		if err != nil {
			return err
		}
		p.print(renderer.RenderMarket(instruments))
	case "search":
		if len(args) == 0 {
			return errors.New("usage: search <text>")
		}
		res, err := p.c.Search(strings.Join(args, " "), 0)
		if err != nil {
			return err
		}
		if len(res) == 0 {
			fmt.Fprintln(p.w, "No stock found.")
			return nil
		}
		p.print(renderer.RenderMarket(res))
	case "show":
		if len(args) != 1 {
			return errors.New("usage: show <ticker>")
		}
		return p.show(strings.ToUpper(args[0]))
	case "trades":
		trades, err := p.c.Trades()
		if err != nil {
			return err
		}
		p.print(renderer.RenderTrades(trades))
	case "chart":
		points, err := p.c.History()
		if err != nil {
			return err
		}
		p.print(renderer.RenderHistory(points))
	case "analyze":
		return p.analyze(ctx)
	case "help":
		topic := "play"
		if len(args) > 0 {
			topic = args[0]
		}
		doc, err := docs.GetTopic(topic)
		if err != nil {
			return err
		}
		p.print(doc)
	default:
		return fmt.Errorf("unknown command %q, type 'help' for the list", cmd)
	}
	return nil
}

func (p *player) trade(cmd string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: %s <ticker> <shares>", cmd)
	}
	side, err := tradesim.ParseSide(cmd)
	if err != nil {
		return err
	}
	shares, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid number of shares %q", args[1])
	}
	trade, err := p.c.Trade(side, strings.ToUpper(args[0]), shares)
	if err != nil {
		return err
	}
	v, err := p.c.Portfolio()
	if err != nil {
		return err
	}
	verb := "Bought"
	if side == tradesim.Sell {
		verb = "Sold"
	}
	fmt.Fprintf(p.w, "%s %d %s at %v for %v. Cash: %v\n", verb, trade.Shares, trade.Ticker, trade.Price, trade.Amount, v.Cash)
	return nil
}

func (p *player) tick(args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n <= 0 {
			return fmt.Errorf("invalid number of ticks %q", args[0])
		}
	}
	var u session.Update
	for range n {
		var err error
		if u, err = p.c.Step(); err != nil {
			return err
		}
	}
	fmt.Fprintf(p.w, "%s total value %v (%s)\n", u.Point.Label, u.Point.Value, u.Portfolio.TotalPLPercent.SignedString())
	return nil
}

func (p *player) show(ticker string) error {
	in, history, err := p.c.Quote(ticker)
	if err != nil {
		return err
	}
	v, err := p.c.Portfolio()
	if err != nil {
		return err
	}
	var held *tradesim.Holding
	for _, pos := range v.Positions {
		if pos.Ticker == ticker {
			h := pos.Holding
			held = &h
		}
	}
	p.print(renderer.RenderQuote(in, history, held))
	return nil
}

func (p *player) analyze(ctx context.Context) error {
	if p.analyst == nil {
		return errors.New("analysis is not available, set GEMINI_API_KEY")
	}
	v, err := p.c.Portfolio()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.w, "Analyzing...")
	md, err := p.analyst.Analyze(ctx, analysis.FromPositions(v.Positions))
	if err != nil {
		return err
	}
	p.print(md)
	return nil
}
