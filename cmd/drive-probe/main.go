package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/okian/telematics/internal/probe"
	"github.com/okian/telematics/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions    = 1
	defaultWorkers     = 1
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL      = flag.String("url", envOr("PROBE_URL", probe.DefaultBaseURL), "Base URL of the service")
		policyholder = flag.String("policyholder", "", "Policyholder the sessions are opened for")
		sessions     = flag.Int("sessions", defaultSessions, "Number of sessions to drive")
		workers      = flag.Int("workers", defaultWorkers, "Number of sessions driven concurrently")
		timeout      = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		poll         = flag.Duration("poll", probe.DefaultPollInterval, "Delay between snapshot polls")
		runTimeout   = flag.Duration("run-timeout", probe.DefaultRunTimeout, "Upper bound on one simulation run")
		outputFile   = flag.String("output", "", "Report file (default: probe_report_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Also write logs to this file")
		logFormat    = flag.String("log-format", logger.FormatText, "text or json")
		verbose      = flag.Bool("verbose", false, "Log every poll")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp(os.Stdout)
		return
	}

	closer, err := probe.SetupLogging(*logFormat, *logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)

	if *outputFile == "" {
		*outputFile = "probe_report_" + time.Now().Format("20060102_150405") + ".json"
	}

	_, err = probe.Run(ctx, &probe.Config{
		RunID:          uuid.NewString(),
		BaseURL:        *baseURL,
		PolicyholderID: *policyholder,
		Sessions:       *sessions,
		Workers:        *workers,
		Timeout:        *timeout,
		PollInterval:   *poll,
		RunTimeout:     *runTimeout,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	})
	cancel()
	stop()
	_ = closer.Close()
	if err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// envOr returns the environment value of key, or def when unset.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
