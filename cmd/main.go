package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sbaum1994/lightstep-stream-deletion-script/config"
	"github.com/sbaum1994/lightstep-stream-deletion-script/ledger"
	"github.com/sbaum1994/lightstep-stream-deletion-script/logger"
	"github.com/sbaum1994/lightstep-stream-deletion-script/model"
	"github.com/sbaum1994/lightstep-stream-deletion-script/processor"
	"github.com/sbaum1994/lightstep-stream-deletion-script/streams"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "sweep":
		runSweep(os.Args[2:])
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}
}

func runSweep(args []string) {
	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: stream-sweep sweep [options] <organization> <project>")
		fmt.Fprintln(os.Stderr)
		fs.PrintDefaults()
	}

	var (
		configFile  = fs.String("config", "", "Path to YAML config file (flags override file values)")
		days        = fs.Int("days", 0, "Activity lookback window in days (env: LOOKBACK_DAYS, default 30)")
		dryRun      = fs.Bool("dry-run", true, "Classify only, skip the delete phase (env: DRY_RUN)")
		token       = fs.String("token", "", "API token (env: API_TOKEN)")
		resume      = fs.Bool("resume", false, "Resume unknown entries from the checkpoint (env: RESUME)")
		service     = fs.String("service", "", "Only consider streams whose query mentions this service (env: SERVICE_FILTER)")
		envSuffix   = fs.String("env", "", "Environment suffix appended to the project name (env: ENV_SUFFIX)")
		checkpoint  = fs.String("checkpoint", "", "Checkpoint file path (env: CHECKPOINT_PATH)")
		ledgerType  = fs.String("ledger-type", "", "Checkpoint backend: json, bbolt (env: LEDGER_TYPE)")
		batchSize   = fs.Int("batch-size", 0, "Streams per batch (env: BATCH_SIZE, default 10)")
		concurrency = fs.Int("concurrency", 0, "Batches in flight (env: CONCURRENCY, default 8)")
		maxRPS      = fs.Int("max-rps", -1, "Max API requests per second, 0 = no limit (env: API_MAX_RPS)")
		baseURL     = fs.String("base-url", "", "API base URL (env: API_BASE_URL)")
		logLevel    = fs.String("log-level", "", "Log level: silent, error, info, debug, verbose (env: LOG_LEVEL)")
	)

	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: organization and project are required")
		fs.Usage()
		os.Exit(2)
	}

	// Local .env files are a convenient place for API_TOKEN
	_ = godotenv.Load()

	// Load base configuration: YAML file if given, environment otherwise
	var (
		cfg *config.AppConfig
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFromFile(*configFile)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	cfg.Streams.Organization = fs.Arg(0)
	cfg.Streams.Project = fs.Arg(1)

	// Override with CLI flags if provided. Boolean flags only override
	// when the operator actually passed them.
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["dry-run"] {
		cfg.Run.DryRun = *dryRun
	}
	if set["resume"] {
		cfg.Run.Resume = *resume
	}
	if *days > 0 {
		cfg.Run.Days = *days
	}
	if *batchSize > 0 {
		cfg.Run.BatchSize = *batchSize
	}
	if *concurrency > 0 {
		cfg.Run.Concurrency = *concurrency
	}
	if *maxRPS >= 0 {
		// Allow 0 (no limit) to be explicitly set
		cfg.Streams.Common.MaxRPS = *maxRPS
	}
	if *token != "" {
		cfg.Streams.HTTP.Token = *token
	}
	if *baseURL != "" {
		cfg.Streams.HTTP.BaseURL = *baseURL
	}
	if *service != "" {
		cfg.Streams.Service = *service
	}
	if *envSuffix != "" {
		cfg.Streams.EnvSuffix = *envSuffix
	}
	if *checkpoint != "" {
		if cfg.Ledger.JSON == nil {
			cfg.Ledger.JSON = &config.JSONLedgerConfig{}
		}
		cfg.Ledger.JSON.Path = *checkpoint
	}
	if *ledgerType != "" {
		cfg.Ledger.LedgerType = config.LedgerType(*ledgerType)
		if cfg.Ledger.LedgerType == config.LedgerTypeBbolt && cfg.Ledger.Bbolt == nil {
			cfg.Ledger.Bbolt = &config.BboltLedgerConfig{}
			cfg.Ledger.Bbolt.ApplyDefaults()
		}
	}
	if *logLevel != "" {
		cfg.Logger.Level = config.LogLevel(*logLevel)
	}

	// Validate configuration before touching the network
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(&cfg.Logger)
	log.Info("Starting stream deletion sweep for %s/%s", cfg.Streams.Organization, cfg.Streams.Project)
	if cfg.Run.DryRun {
		log.Info("Running in DRY-RUN mode - no streams will be deleted")
	}

	// Initialize checkpoint store
	log.Debug("Initializing checkpoint store...")
	store, err := ledger.CreateStore(&cfg.Ledger)
	if err != nil {
		log.Error("Failed to create checkpoint store: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("Closing checkpoint store...")
		if err := store.Close(); err != nil {
			log.Error("Error closing checkpoint store: %v", err)
		}
	}()
	log.Info("Checkpoint store initialized: type=%s", cfg.Ledger.LedgerType)

	// Initialize streams API provider
	log.Debug("Initializing streams API provider...")
	provider, err := streams.CreateProvider(&cfg.Streams)
	if err != nil {
		log.Error("Failed to create streams provider: %v", err)
		os.Exit(1)
	}

	window := model.NewRunWindow(time.Now().UTC(), cfg.Run.Days)
	log.Info("Activity window: %s .. %s (%d days)",
		window.Oldest.Format(time.RFC3339), window.Youngest.Format(time.RFC3339), cfg.Run.Days)

	runner := processor.NewRunner(store, provider, log, &cfg.Run, window)

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- runner.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Sweep failed: %v", err)
			os.Exit(1)
		}
		log.Info("Sweep completed successfully")
	case sig := <-sigChan:
		log.Info("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for in-flight batches to drain
		err := <-errChan
		if err != nil && err != context.Canceled {
			log.Error("Error during shutdown: %v", err)
			os.Exit(1)
		}
		log.Info("Shutdown completed")
	}
}

func printHelp() {
	fmt.Println("Stream Deletion Tool")
	fmt.Println()
	fmt.Println("Deletes saved streams with no recent activity from a project, in")
	fmt.Println("batches, with a resumable checkpoint.")
	fmt.Println()
	fmt.Println("Usage: stream-sweep sweep [options] <organization> <project>")
	fmt.Println()
	fmt.Println("Configuration can be provided via environment variables, a YAML config")
	fmt.Println("file, or command-line flags. Flags take precedence.")
	fmt.Println()
	fmt.Println("Run 'stream-sweep sweep -h' for the full flag list.")
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  stream-sweep sweep -days=60 -dry-run=false -token=$API_TOKEN my-org my-project")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  API_TOKEN            - API token")
	fmt.Println("  API_BASE_URL         - API base URL")
	fmt.Println("  API_MAX_RPS          - Max API requests per second (0 = no limit)")
	fmt.Println("  API_MAX_RETRIES      - Max retries per API call")
	fmt.Println("  API_TIMEOUT_SECONDS  - Per-request timeout in seconds")
	fmt.Println("  LOOKBACK_DAYS        - Activity lookback window in days")
	fmt.Println("  BATCH_SIZE           - Streams per batch")
	fmt.Println("  CONCURRENCY          - Batches in flight")
	fmt.Println("  DRY_RUN              - Skip the delete phase (true/false, default true)")
	fmt.Println("  RESUME               - Resume from checkpoint (true/false)")
	fmt.Println("  SERVICE_FILTER       - Only consider streams mentioning this service")
	fmt.Println("  ENV_SUFFIX           - Environment suffix appended to the project name")
	fmt.Println("  EXCLUDE_SUBSTRINGS   - Comma-separated name/query substrings to skip")
	fmt.Println("  CHECKPOINT_PATH      - Checkpoint file path")
	fmt.Println("  LEDGER_TYPE          - Checkpoint backend (json, bbolt)")
	fmt.Println("  LEDGER_BBOLT_PATH    - bbolt database path")
	fmt.Println("  LEDGER_BBOLT_BUCKET  - bbolt bucket name")
	fmt.Println("  LOG_LEVEL            - Log level (silent, error, info, debug, verbose)")
}
