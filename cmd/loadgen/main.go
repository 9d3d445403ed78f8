package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/edupulse/edupulse/internal/loadgen"
)

// Default configuration constants.
const (
	defaultNumLearners = 200
	defaultNumEvents   = 10000
	defaultNumQuizzes  = 10
	defaultNumAttempts = 2000
	defaultPeriodDays  = 7
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultSettleDelay = 5 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		ownerID     = flag.String("owner", "", "Owner id for the generated cohort (default: a timestamped id)")
		numLearners = flag.Int("learners", defaultNumLearners, "Number of synthetic learners")
		numEvents   = flag.Int("events", defaultNumEvents, "Number of progress events to generate and submit")
		numQuizzes  = flag.Int("quizzes", defaultNumQuizzes, "Number of quiz banks to author")
		numAttempts = flag.Int("attempts", defaultNumAttempts, "Number of quiz attempts to generate and submit")
		periodDays  = flag.Int("days", defaultPeriodDays, "Dashboard window in days to fetch and verify")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settleDelay = flag.Duration("settle", defaultSettleDelay, "Wait between ingest and verification")
		outputFile  = flag.String("output", "", "Output file for the generated dataset (default: loadgen_dataset_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for run output (default: loadgen_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp()
		return
	}

	// Setup logging
	if err := loadgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// A fresh owner per run keeps the verification window clean.
	owner := *ownerID
	if owner == "" {
		owner = "loadgen-" + time.Now().Format("20060102-150405")
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &loadgen.Config{
		BaseURL:     *baseURL,
		OwnerID:     owner,
		NumLearners: *numLearners,
		NumEvents:   *numEvents,
		NumQuizzes:  *numQuizzes,
		NumAttempts: *numAttempts,
		PeriodDays:  *periodDays,
		Workers:     *workers,
		Timeout:     *timeout,
		SettleDelay: *settleDelay,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the load generator
	if err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		return
	}
}
