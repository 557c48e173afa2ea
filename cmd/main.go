package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/touchline/internal/adapters/asa"
	"github.com/okian/touchline/internal/adapters/csvout"
	"github.com/okian/touchline/internal/adapters/fbref"
	"github.com/okian/touchline/internal/adapters/fetch"
	"github.com/okian/touchline/internal/adapters/http/api"
	"github.com/okian/touchline/internal/adapters/http/swagger"
	app "github.com/okian/touchline/internal/app"
	"github.com/okian/touchline/internal/config"
	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Modes.
const (
	modeRun   = "run"
	modeServe = "serve"
)

var errUsage = errors.New("usage: touchline [run|serve]")

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout); err != nil {
		os.Stderr.WriteString("touchline: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// execute loads configuration, initializes logging and runs the requested
// mode. Logs go to out.
func execute(ctx context.Context, args []string, out io.Writer) error {
	mode, err := parseMode(args)
	if err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithWriter(out), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, mode)
	if err != nil {
		return err
	}
	if mode == modeServe {
		return serve(ctx, cfg, svc)
	}
	_, err = svc.Run(ctx)
	return err
}

func parseMode(args []string) (string, error) {
	switch {
	case len(args) == 0:
		return modeRun, nil
	case len(args) == 1 && (args[0] == modeRun || args[0] == modeServe):
		return args[0], nil
	default:
		return "", errUsage
	}
}

// newService wires the fetch client, the sources, the writer and the weights
// from cfg. Serve mode also gets the refresh schedule.
func newService(cfg *config.Config, mode string) (*app.Service, error) {
	reg, err := cfg.WeightRegistry()
	if err != nil {
		return nil, err
	}

	base, limit := cfg.Backoff()
	client := fetch.New(
		fetch.WithTimeout(cfg.RequestTimeout()),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithRequestInterval(cfg.RequestDelay()),
		fetch.WithMaxAttempts(cfg.MaxAttempts),
		fetch.WithBackoff(base, limit),
		fetch.WithBreaker(uint32(cfg.BreakerFailures), cfg.BreakerCooldown()), //nolint:gosec // validated positive
		fetch.WithMaxBodyBytes(cfg.MaxBodyBytes),
		fetch.WithLogger(logger.Named("fetch")),
	)

	opts := []app.Option{
		app.WithLogger(logger.Named("pipeline")),
		app.WithSources(sources(cfg, client)...),
		app.WithWeights(reg),
		app.WithMinNineties(cfg.Min90s),
		app.WithWriter(csvout.New(cfg.OutDir)),
	}
	if mode == modeServe {
		opts = append(opts, app.WithSchedule(cfg.RefreshSchedule))
	}
	svc := app.New(opts...)
	if err := svc.Err(); err != nil {
		return nil, err
	}
	return svc, nil
}

// sources lists the FBref pages followed by the ASA endpoints when enabled.
func sources(cfg *config.Config, client *fetch.Client) []app.Source {
	page := fbref.Page{
		BaseURL:       cfg.FBrefBaseURL,
		CompetitionID: cfg.CompetitionID,
		Season:        cfg.Season,
		Slug:          cfg.CompetitionSlug,
	}
	var out []app.Source
	for _, s := range fbref.Sources(page, client) {
		out = append(out, s)
	}
	if !cfg.ASAEnabled {
		return out
	}
	ac := asa.New(client,
		asa.WithBaseURL(cfg.ASABaseURL),
		asa.WithLeague(cfg.League),
		asa.WithSeason(cfg.Season),
		asa.WithSquadAliases(cfg.SquadAliases),
		asa.WithLogger(logger.Named("asa")),
	)
	for _, s := range ac.Sources() {
		out = append(out, s)
	}
	return out
}

// newMux registers the docs and the results API.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

// serve runs once at startup, refreshes on the schedule and serves the
// results until ctx ends. It returns after the initial run has finished.
func serve(ctx context.Context, cfg *config.Config, svc *app.Service) error {
	log := logger.Named("server")
	if err := registerRuntimeCollectors(); err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start schedule: %w", err)
	}
	defer svc.Stop()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	initialDone := make(chan struct{})
	go func() {
		defer close(initialDone)
		if _, err := svc.Run(runCtx); err != nil {
			log.Error(runCtx, "initial run failed", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	cancelRun()
	<-initialDone
	log.Info(ctx, "server stopped")
	return serveErr
}

// registerRuntimeCollectors adds the Go and process collectors once.
func registerRuntimeCollectors() error {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := metrics.GetRegistry().Register(c); err != nil {
			var dup prometheus.AlreadyRegisteredError
			if !errors.As(err, &dup) {
				return fmt.Errorf("register collector: %w", err)
			}
		}
	}
	return nil
}
