package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"trustrag/internal/app"
	"trustrag/internal/platform/config"
	"trustrag/internal/platform/httpserver"
	"trustrag/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration from the environment, lets flags override it, and
// serves until SIGINT or SIGTERM.
func run(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	flags := pflag.NewFlagSet("trustrag", pflag.ContinueOnError)
	flags.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "listen address")
	flags.StringVar(&cfg.PolicyFile, "config", cfg.PolicyFile, "YAML policy file (role map, rate limits, frameworks)")
	flags.StringVar(&cfg.Storage.CorpusFile, "corpus", cfg.Storage.CorpusFile, "JSON corpus file, ignored when DATABASE_URL is set")
	flags.StringVar(&cfg.Storage.DataDir, "data-dir", cfg.Storage.DataDir, "directory for the violation and alert journals")
	flags.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flags.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := httpserver.New(a.Config.Server.Addr, a.Handler)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting trustrag", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, fmt.Errorf("http shutdown: %w", serr))
	}
	if serr := a.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}
	return err
}
