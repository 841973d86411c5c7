package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"blackjack/internal/client"
	"blackjack/internal/config"
	"blackjack/internal/game"
	"blackjack/internal/handlers"
	"blackjack/internal/identity"
	"blackjack/internal/logging"
	"blackjack/internal/table"
)

func realMain() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	serverURL := flag.String("server", cfg.ServerURL, "game server base URL")
	player := flag.String("player", cfg.PlayerName, "player name (generated and stored when empty)")
	port := flag.String("port", cfg.Port, "listen port")
	logLevel := flag.String("loglevel", cfg.LogLevel, "log level")
	flag.Parse()

	lb, err := logging.New(os.Stderr, *logLevel)
	if err != nil {
		return err
	}
	log := lb.Logger(logging.HTTP)

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
	mcfg.Log = lb.Logger(logging.Conn)
	manager := client.NewManager(api, store, mcfg)
	ctrl := table.NewController(store, manager, name, lb.Logger(logging.Game))
	tableHandler := handlers.NewTableHandler(ctrl, store, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	tableHandler.RegisterStream(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		tableHandler.RegisterRoutes(r)
	})

	addr := ":" + *port
	if addr == ":" {
		addr = ":8080"
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// Request contexts derive from gctx so open streams end on shutdown.
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		BaseContext:       func(net.Listener) context.Context { return gctx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		defer manager.Disconnect()
		err := manager.Run(gctx, name)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("Connection gave up: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Infof("listening on http://localhost%s as %s", addr, name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
