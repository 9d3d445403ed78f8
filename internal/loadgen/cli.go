package loadgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/edupulse/edupulse/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp() {
	os.Stdout.WriteString(`EduPulse Load Generator
=======================

A concurrent tool that pushes a synthetic learner cohort through the
EduPulse ingest API and verifies the dashboard against a locally
computed snapshot of the same dataset.

Usage:
  go run cmd/loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -owner string
        Owner id for the generated cohort (default: a timestamped id)
  -learners int
        Number of synthetic learners (default 200)
  -events int
        Number of progress events to generate and submit (default 10000)
  -quizzes int
        Number of quiz banks to author (default 10)
  -attempts int
        Number of quiz attempts to generate and submit (default 2000)
  -days int
        Dashboard window in days to fetch and verify (default 7)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -settle duration
        Wait between ingest and verification (default 5s)
  -output string
        Output file for the generated dataset (default: loadgen_dataset_TIMESTAMP.json)
  -log string
        Log file for run output (default: loadgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/loadgen/main.go

  # Heavier run against a remote instance
  go run cmd/loadgen/main.go -events 50000 -attempts 10000 -workers 16 -url http://edupulse:9080

  # Verify a 30-day window with verbose output
  go run cmd/loadgen/main.go -verbose -days 30
`)
}
