package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"blackjack/internal/client"
	"blackjack/internal/config"
	"blackjack/internal/game"
	"blackjack/internal/identity"
	"blackjack/internal/logging"
	"blackjack/internal/table"
	"blackjack/internal/tui"
)

func realMain() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	serverURL := flag.String("server", cfg.ServerURL, "game server base URL")
	player := flag.String("player", cfg.PlayerName, "player name (generated and stored when empty)")
	logFile := flag.String("logfile", cfg.LogFile, "log file path")
	logLevel := flag.String("loglevel", cfg.LogLevel, "log level")
	flag.Parse()

	lb, err := logging.NewFile(*logFile, *logLevel)
	if err != nil {
		return err
	}
	defer lb.Close()
	log := lb.Logger(logging.Conn)

	name, err := identity.Resolve(*player, cfg.PlayerFile)
	if err != nil {
		return err
	}

	api, err := client.NewAPI(*serverURL, &http.Client{})
	if err != nil {
		return err
	}
	store := game.NewStore()
	mcfg := cfg.Manager()
	mcfg.Log = log
	manager := client.NewManager(api, store, mcfg)
	ctrl := table.NewController(store, manager, name, lb.Logger(logging.Game))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	model := tui.New(gctx, ctrl, store, lb.Logger(logging.TUI))
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))

	log.Infof("Starting as %s against %s", name, *serverURL)
	g.Go(func() error {
		err := manager.Run(gctx, name)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Connection gave up: %v", err)
		}
		// The table stays on screen with a disconnected banner.
		return nil
	})
	g.Go(func() error {
		defer manager.Disconnect()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		stop()
		return err
	})
	return g.Wait()
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
