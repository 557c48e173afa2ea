package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	app "github.com/okian/touchline/internal/app"
	"github.com/okian/touchline/internal/config"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const standardPage = `<html><body>
<div id="all_stats_standard"><!--
<table id="stats_standard">
<thead><tr><th>Player</th><th>Squad</th><th>Pos</th><th>Min</th><th>Gls</th><th>xG</th></tr></thead>
<tbody>
<tr><td>Ann</td><td>Austin</td><td>FW</td><td>900</td><td>5</td><td>4.0</td></tr>
<tr><td>Ben</td><td>Miami</td><td>MF</td><td>900</td><td>1</td><td>1.5</td></tr>
<tr><td>Gil</td><td>Miami</td><td>GK</td><td>900</td><td>0</td><td>0</td></tr>
</tbody></table>
--></div></body></html>`

const keepersPage = `<html><body>
<table id="stats_keeper">
<thead><tr><th>Player</th><th>Squad</th><th>Pos</th><th>Min</th><th>GA</th><th>Save%</th></tr></thead>
<tbody>
<tr><td>Gil</td><td>Miami</td><td>GK</td><td>900</td><td>10</td><td>70.0</td></tr>
<tr><td>Hal</td><td>Austin</td><td>GK</td><td>1,800</td><td>12</td><td>75.0</td></tr>
</tbody></table></body></html>`

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func fbrefServer() *httptest.Server {
	pages := map[string]string{
		"/en/comps/22/2026/stats/Major-League-Soccer-Stats":   standardPage,
		"/en/comps/22/2026/keepers/Major-League-Soccer-Stats": keepersPage,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
}

func TestParseMode(t *testing.T) {
	convey.Convey("Given command line arguments", t, func() {
		mode, err := parseMode(nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(mode, convey.ShouldEqual, modeRun)

		mode, err = parseMode([]string{"serve"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(mode, convey.ShouldEqual, modeServe)

		_, err = parseMode([]string{"deploy"})
		convey.So(err, convey.ShouldEqual, errUsage)

		_, err = parseMode([]string{"run", "serve"})
		convey.So(err, convey.ShouldEqual, errUsage)
	})
}

func TestSources(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New()

		convey.Convey("Then FBref pages come before ASA endpoints", func() {
			svc, err := newService(cfg, modeRun)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["sources"], convey.ShouldEqual, 16)
			convey.So(svc.GetStats()["schedule"], convey.ShouldEqual, "")
		})

		convey.Convey("Then disabling ASA keeps only FBref pages", func() {
			cfg.ASAEnabled = false
			svc, err := newService(cfg, modeServe)
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.GetStats()["sources"], convey.ShouldEqual, 8)
			convey.So(svc.GetStats()["schedule"], convey.ShouldEqual, cfg.RefreshSchedule)
		})

		convey.Convey("Then bad weight overrides are rejected", func() {
			cfg.Weights = map[string]map[string]float64{"attacking": {"goals": 0.9}}
			_, err := newService(cfg, modeRun)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestExecute(t *testing.T) {
	convey.Convey("Given an FBref server and a temp output directory", t, func() {
		srv := fbrefServer()
		defer srv.Close()
		dir := t.TempDir()
		t.Setenv("TOUCHLINE_FBREF_BASE_URL", srv.URL)
		t.Setenv("TOUCHLINE_ASA_ENABLED", "false")
		t.Setenv("TOUCHLINE_REQUEST_DELAY_MS", "0")
		t.Setenv("TOUCHLINE_MAX_ATTEMPTS", "1")
		t.Setenv("TOUCHLINE_BREAKER_FAILURES", "50")
		t.Setenv("TOUCHLINE_OUT_DIR", dir)
		t.Setenv("TOUCHLINE_LOG_FORMAT", "json")

		convey.Convey("When running once", func() {
			var logs bytes.Buffer
			err := execute(context.Background(), nil, &logs)
			defer func() { _ = logger.Init(logger.WithWriter(io.Discard)) }()
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then both player files are written", func() {
				out, err := os.ReadFile(filepath.Join(dir, "mls_outfield_efficiency.csv"))
				convey.So(err, convey.ShouldBeNil)
				lines := strings.Split(strings.TrimSpace(string(out)), "\n")
				convey.So(lines, convey.ShouldHaveLength, 3)
				convey.So(lines[1], convey.ShouldStartWith, "Ann,Austin,FW")

				out, err = os.ReadFile(filepath.Join(dir, "mls_gk_efficiency.csv"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(out), convey.ShouldContainSubstring, "Hal,Austin,GK")
			})

			convey.Convey("And the logs are JSON with the missing pages reported", func() {
				convey.So(logs.String(), convey.ShouldContainSubstring, `"msg":"source unavailable"`)
				convey.So(logs.String(), convey.ShouldContainSubstring, `"msg":"pipeline run finished"`)
			})
		})
	})

	convey.Convey("Given invalid input", t, func() {
		convey.Convey("Then an unknown mode is a usage error", func() {
			err := execute(context.Background(), []string{"nope"}, io.Discard)
			convey.So(err, convey.ShouldEqual, errUsage)
		})

		convey.Convey("Then invalid configuration fails before running", func() {
			t.Setenv("TOUCHLINE_MAX_ATTEMPTS", "0")
			err := execute(context.Background(), nil, io.Discard)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the serve mode routes", t, func() {
		cfg := config.New()
		mux := newMux(context.Background(), cfg, app.New())

		get := func(path string) int {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
			return w.Code
		}

		convey.Convey("Then docs, health and metrics are served", func() {
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/metrics"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats"), convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("Then leaderboards are missing before the first run", func() {
			convey.So(get("/leaderboard"), convey.ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestServe(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.RefreshSchedule = ""
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("Then serve shuts down cleanly", func() {
			convey.So(serve(ctx, cfg, app.New()), convey.ShouldBeNil)
		})
	})
}

// slowSource blocks until its context ends, then takes a little longer.
type slowSource struct {
	started  chan struct{}
	finished atomic.Bool
}

func (s *slowSource) Name() string { return "standard" }

func (s *slowSource) Fetch(ctx context.Context) (table.RawTable, error) {
	close(s.started)
	<-ctx.Done()
	time.Sleep(50 * time.Millisecond)
	s.finished.Store(true)
	return table.RawTable{}, ctx.Err()
}

func TestServeWaitsForInitialRun(t *testing.T) {
	convey.Convey("Given an initial run still fetching at shutdown", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.RefreshSchedule = ""
		src := &slowSource{started: make(chan struct{})}
		svc := app.New(app.WithSources(src), app.WithWriter(&discardWriter{}))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-src.started
			cancel()
		}()

		convey.Convey("Then serve returns only after the run has finished", func() {
			convey.So(serve(ctx, cfg, svc), convey.ShouldBeNil)
			convey.So(src.finished.Load(), convey.ShouldBeTrue)
			sum, ok := svc.LastRun()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(sum.Error, convey.ShouldNotBeBlank)
		})
	})
}

type discardWriter struct{}

func (discardWriter) Write(name string, _ []string, _ [][]string) (string, error) {
	return name, nil
}
