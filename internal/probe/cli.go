package probe

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/telematics/pkg/logger"
)

const logFilePermission = 0600

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging initializes the global logger, teeing to logFile when set.
// The returned closer releases the file.
func SetupLogging(format, logFile string) (io.Closer, error) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(out)); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return closer, nil
}

// ShowHelp prints usage information for the drive probe.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Telematics Drive Probe
======================

Drives feedback sessions through the HTTP API and verifies that history
stays bounded and newest-first, scores stay in [0,100], a second start is a
no-op, mark-read is idempotent and every entry ends up read.

Usage:
  drive-probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -policyholder string
        Policyholder the sessions are opened for (default "PH-demo123")
  -sessions int
        Number of sessions to drive (default 1)
  -workers int
        Number of sessions driven concurrently (default 1)
  -timeout duration
        HTTP request timeout (default 10s)
  -poll duration
        Delay between snapshot polls (default 500ms)
  -run-timeout duration
        Upper bound on one simulation run (default 45s)
  -output string
        Report file (default: probe_report_TIMESTAMP.json)
  -log string
        Also write logs to this file
  -log-format string
        text or json (default "text")
  -verbose
        Log every poll
  -help
        Show this help message

Examples:
  drive-probe -url http://localhost:9080
  drive-probe -sessions 20 -workers 5 -output reports/run.json
`)
}
