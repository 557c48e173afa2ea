package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/touchline/internal/config"
	"github.com/okian/touchline/internal/domain/weights"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Season, convey.ShouldEqual, "2026")
				convey.So(cfg.ASAEnabled, convey.ShouldBeTrue)
				convey.So(cfg.SquadAliases["Inter Miami CF"], convey.ShouldEqual, "Inter Miami")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TOUCHLINE_SEASON", "2025")
			_ = os.Setenv("TOUCHLINE_MIN_90S", "2.5")
			_ = os.Setenv("TOUCHLINE_REQUEST_DELAY_MS", "0")
			_ = os.Setenv("TOUCHLINE_ASA_ENABLED", "false")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, "2025")
				convey.So(cfg.Min90s, convey.ShouldEqual, 2.5)
				convey.So(cfg.RequestDelayMS, convey.ShouldEqual, 0)
				convey.So(cfg.ASAEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
# keeper weights favour goals against
season: "2024"
out_dir: /tmp/touchline
max_attempts: 5
weights:
  goalkeeper:
    save_pct: 0.15
    goals_against: 0.22
squad_aliases:
  "Atlanta United FC": "Atlanta Utd"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TOUCHLINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Season, convey.ShouldEqual, "2024")
				convey.So(cfg.OutDir, convey.ShouldEqual, "/tmp/touchline")
				convey.So(cfg.MaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.SquadAliases["Atlanta United FC"], convey.ShouldEqual, "Atlanta Utd")
			})

			convey.Convey("And weight overrides reach the registry", func() {
				reg, err := cfg.WeightRegistry()
				convey.So(err, convey.ShouldBeNil)
				gk, err := reg.Get(weights.Goalkeeper)
				convey.So(err, convey.ShouldBeNil)
				for _, term := range gk.Terms {
					if term.Name == "goals_against" {
						convey.So(term.Weight, convey.ShouldEqual, 0.22)
						convey.So(term.Invert, convey.ShouldBeTrue)
					}
				}
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile("season: \"2024\"\naddr: \":9090\"\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TOUCHLINE_CONFIG", tmpFile)
			_ = os.Setenv("TOUCHLINE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Season, convey.ShouldEqual, "2024")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TOUCHLINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TOUCHLINE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TOUCHLINE_MAX_ATTEMPTS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with unbalanced weights", func() {
			tmpFile := createTempConfigFile("weights:\n  defensive:\n    blocks: 0.5\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TOUCHLINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, weights.ErrWeightSum), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TOUCHLINE_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TOUCHLINE_CONFIG",
		"TOUCHLINE_ADDR",
		"TOUCHLINE_SEASON",
		"TOUCHLINE_MIN_90S",
		"TOUCHLINE_REQUEST_DELAY_MS",
		"TOUCHLINE_ASA_ENABLED",
		"TOUCHLINE_MAX_ATTEMPTS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "touchline-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
