// Command parity runs a suite of chat-completion scenarios against a local
// OpenAI-compatible backend and a reference backend, checks scenario
// expectations against the local responses, and reports a structural diff
// between the two. Reference results are informational only: they never
// affect the exit status.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Laisky/zap"
	"github.com/joho/godotenv"

	"github.com/syslm/parity/common/config"
	"github.com/syslm/parity/common/logger"
	"github.com/syslm/parity/harness"
	"github.com/syslm/parity/openai"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("parity", flag.ContinueOnError)
	envFile := fs.String("env-file", "", "path to a .env file (default: ./.env if present)")
	localBaseURL := fs.String("local-base-url", "", "base URL of the local backend (env LOCAL_OPENAI_BASE_URL)")
	localAPIKey := fs.String("local-api-key", "", "API key for the local backend (env LOCAL_OPENAI_API_KEY)")
	localModel := fs.String("local-model", "", "model served by the local backend (env LOCAL_MODEL)")
	referenceBaseURL := fs.String("reference-base-url", "", "base URL of the reference backend (env OPENAI_BASE_URL)")
	referenceModel := fs.String("reference-model", "", "reference model to compare against (env OPENAI_MODEL)")
	timeout := fs.Int("timeout", 0, "client timeout in seconds (env CLIENT_TIMEOUT)")
	skipLocal := fs.Bool("skip-local", false, "skip the local backend entirely")
	skipReference := fs.Bool("skip-reference", false, "skip the reference backend entirely")
	scenarios := fs.String("scenarios", "", "comma-separated scenario names to run (env SCENARIOS; default all)")
	skipScenarios := fs.String("skip-scenarios", "", "comma-separated scenario names to exclude (env SKIP_SCENARIOS)")
	reportPath := fs.String("report", "", "write a JSON report to this path (env REPORT_PATH)")
	debug := fs.Bool("debug", false, "enable debug logging (env DEBUG)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Resolve the env file before reading any configuration so its values are
	// visible as environment defaults. Existing process env always wins.
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envFile, err)
			return 2
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := config.Load()
	if *localBaseURL != "" {
		cfg.LocalBaseURL = *localBaseURL
	}
	if *localAPIKey != "" {
		cfg.LocalAPIKey = *localAPIKey
	}
	if *localModel != "" {
		cfg.LocalModel = *localModel
	}
	if *referenceBaseURL != "" {
		cfg.ReferenceBaseURL = *referenceBaseURL
	}
	if *referenceModel != "" {
		cfg.ReferenceModel = *referenceModel
	}
	if *timeout > 0 {
		cfg.Timeout = time.Duration(*timeout) * time.Second
	}
	if *scenarios != "" {
		cfg.Scenarios = config.ParseList(*scenarios)
	}
	if *skipScenarios != "" {
		cfg.SkipScenarios = config.ParseList(*skipScenarios)
	}
	if *reportPath != "" {
		cfg.ReportPath = *reportPath
	}
	cfg.SkipLocal = cfg.SkipLocal || *skipLocal
	cfg.SkipReference = cfg.SkipReference || *skipReference
	cfg.Debug = cfg.Debug || *debug

	logger.SetDebug(cfg.Debug)

	if err := cfg.Validate(); err != nil {
		logger.Logger.Error("invalid configuration", zap.Error(err))
		return 2
	}

	selected, err := harness.Filter(harness.BuildScenarios(), cfg.Scenarios, cfg.SkipScenarios)
	if err != nil {
		logger.Logger.Error("invalid scenario selection", zap.Error(err))
		return 2
	}

	runner := &harness.Runner{Logger: logger.Logger}
	if !cfg.SkipLocal {
		runner.Local = &harness.Backend{
			Name:   "local",
			Client: openai.NewClient(cfg.LocalBaseURL, cfg.LocalAPIKey, cfg.Timeout),
			Model:  cfg.LocalModel,
		}
	}
	if !cfg.SkipReference {
		runner.Reference = &harness.Backend{
			Name:   "reference",
			Client: openai.NewClient(cfg.ReferenceBaseURL, cfg.ReferenceAPIKey, cfg.Timeout),
			Model:  cfg.ReferenceModel,
		}
	}

	logger.Logger.Info("starting conformance run",
		zap.Int("scenario_count", len(selected)),
		zap.Bool("local", runner.Local != nil),
		zap.Bool("reference", runner.Reference != nil))

	report := runner.Run(context.Background(), selected)

	if cfg.ReportPath != "" {
		if err := report.WriteFile(cfg.ReportPath); err != nil {
			logger.Logger.Error("failed to write report", zap.Error(err))
			return 1
		}
		logger.Logger.Info("report written", zap.String("path", cfg.ReportPath))
	}

	if !report.Success {
		return 1
	}
	return 0
}
