package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/leadworks/lead-intel-pipeline/internal/app"
	"github.com/leadworks/lead-intel-pipeline/internal/classify/gemini"
	"github.com/leadworks/lead-intel-pipeline/internal/config"
	"github.com/leadworks/lead-intel-pipeline/internal/dataset"
	"github.com/leadworks/lead-intel-pipeline/internal/pipeline"
	"github.com/leadworks/lead-intel-pipeline/internal/report"
	"github.com/leadworks/lead-intel-pipeline/internal/route"
	"github.com/leadworks/lead-intel-pipeline/internal/util"
	"github.com/leadworks/lead-intel-pipeline/internal/version"
)

func main() {
	ctx := context.Background()

	// Optional .env file for local development; missing is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "--version":
		fmt.Println(version.Current)
		return
	case "run":
		os.Exit(runPipeline(ctx, os.Args[2:]))
	case "summary":
		os.Exit(runSummary(os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runPipeline(ctx context.Context, args []string) int {
	pipeEnv, err := loadPipelineOptionsFromEnv()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var configPath string
	var inputPath string
	var outputPath string
	var defaultTeam string
	var workers int
	var maxRetries int
	var requestTimeout time.Duration
	var rateLimitRPS float64
	var skipFailed bool
	var geminiModel string
	var geminiBaseURL string

	fs.StringVar(&configPath, "config", strings.TrimSpace(os.Getenv("LEADINTEL_CONFIG")), "YAML config file path (env: LEADINTEL_CONFIG)")
	fs.StringVar(&inputPath, "input", "", "Input CSV file path (email, job_title, comment columns); overrides config")
	fs.StringVar(&outputPath, "output", "", "Output JSON artifact path; overrides config")
	fs.StringVar(&defaultTeam, "default-team", "", "Team for leads no routing rule claims; overrides config")
	fs.IntVar(&workers, "workers", pipeEnv.Workers, "Number of concurrent oracle calls, 1 = sequential (env: WORKERS)")
	fs.IntVar(&maxRetries, "max-retries", pipeEnv.MaxRetries, "Max retries per lead for transient oracle failures (env: MAX_RETRIES)")
	fs.DurationVar(&requestTimeout, "request-timeout", pipeEnv.RequestTimeout, "Per-lead oracle call timeout (env: REQUEST_TIMEOUT)")
	fs.Float64Var(&rateLimitRPS, "rate-limit-rps", pipeEnv.RateLimitRPS, "Global oracle request rate limit (RPS), 0 disables (env: RATE_LIMIT_RPS)")
	fs.BoolVar(&skipFailed, "skip-failed", pipeEnv.SkipFailed, "Emit failed leads default-routed instead of aborting the run (env: SKIP_FAILED)")
	fs.StringVar(&geminiModel, "gemini-model", strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "Gemini model name; overrides config (env: GEMINI_MODEL)")
	fs.StringVar(&geminiBaseURL, "gemini-base-url", strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")), "Gemini API base URL override (env: GEMINI_BASE_URL)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	if inputPath == "" {
		inputPath = cfg.InputCSVPath
	}
	if outputPath == "" {
		outputPath = cfg.OutputJSONPath
	}
	if defaultTeam == "" {
		defaultTeam = cfg.DefaultTeam
	}
	if geminiModel == "" {
		geminiModel = cfg.Gemini.Model
	}

	classifier, err := gemini.New(ctx, gemini.Config{
		APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:   geminiModel,
		BaseURL: geminiBaseURL,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "gemini config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	err = app.Run(
		ctx,
		logger,
		dataset.CSVSource{Path: inputPath},
		dataset.JSONSink{Path: outputPath},
		classifier,
		route.Engine{DefaultTeam: defaultTeam},
		pipeline.Options{
			Workers:        workers,
			MaxRetries:     maxRetries,
			RequestTimeout: requestTimeout,
			RateLimitRPS:   rateLimitRPS,
			SkipFailed:     skipFailed,
		},
	)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

func runSummary(args []string) int {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var configPath string
	var artifactPath string
	fs.StringVar(&configPath, "config", strings.TrimSpace(os.Getenv("LEADINTEL_CONFIG")), "YAML config file path (env: LEADINTEL_CONFIG)")
	fs.StringVar(&artifactPath, "input", "", "Enriched JSON artifact path; overrides config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}
	if artifactPath == "" {
		artifactPath = cfg.OutputJSONPath
	}

	rows, err := dataset.LoadEnrichedJSON(artifactPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "summary failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	if err := report.Summarize(rows).WriteText(os.Stdout); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "summary failed: %s\n", util.RedactSecrets(err.Error()))
		return 1
	}
	return 0
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `leadintel %s: classify and route inbound sales leads

Usage:
  leadintel <command> [flags]

Commands:
  run      Enrich a CSV of raw leads into a JSON artifact (Gemini required)
  summary  Print aggregate counts for an enriched artifact
  version  Print the build version

Examples:
  leadintel run --input data/leads.csv --output outputs/enriched_leads.json
  leadintel summary --input outputs/enriched_leads.json

Environment:
  GEMINI_API_KEY    Gemini API key (required for run)
  GEMINI_MODEL      Gemini model name (defaults from config)
  GEMINI_BASE_URL   Optional base URL override (proxies/testing)
  LEADINTEL_CONFIG  YAML config file path
  WORKERS           Concurrent oracle calls (default 1)
  MAX_RETRIES       Retries per lead for transient failures (default 3)
  REQUEST_TIMEOUT   Per-lead oracle timeout (default 30s)
  RATE_LIMIT_RPS    Global oracle rate limit, 0 disables
  SKIP_FAILED       Emit failed leads default-routed instead of aborting

A .env file in the working directory is loaded if present.

`, version.Current)
}

func loadPipelineOptionsFromEnv() (pipeline.Options, error) {
	workers, err := envInt("WORKERS", 1)
	if err != nil {
		return pipeline.Options{}, err
	}
	maxRetries, err := envInt("MAX_RETRIES", 3)
	if err != nil {
		return pipeline.Options{}, err
	}
	requestTimeout, err := envDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return pipeline.Options{}, err
	}
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return pipeline.Options{}, err
	}
	skipFailed, err := envBool("SKIP_FAILED")
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Workers:        workers,
		MaxRetries:     maxRetries,
		RequestTimeout: requestTimeout,
		RateLimitRPS:   rateLimitRPS,
		SkipFailed:     skipFailed,
	}, nil
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
