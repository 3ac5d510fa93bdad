// Package probe drives feedback sessions through the HTTP API and verifies
// the simulator's observable properties.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/telematics/internal/domain/types"
	"github.com/okian/telematics/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	reportPermission    = 0600
)

// Run drives cfg.Sessions sessions and returns the report. The error wraps
// ErrChecksFailed when any property was violated.
func Run(ctx context.Context, config *Config) (*Report, error) {
	cfg := config.withDefaults()
	log := logger.Named("probe").With(logger.String("run_id", cfg.RunID))

	report := &Report{
		RunID:     cfg.RunID,
		BaseURL:   cfg.BaseURL,
		StartedAt: time.Now(),
	}

	log.Info(ctx, "starting drive probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("sessions", cfg.Sessions),
		logger.Int("workers", cfg.Workers),
		logger.Duration("pollInterval", cfg.PollInterval))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return nil, err
	}

	report.Sessions = driveSessions(ctx, &cfg, client, log)

	report.FinishedAt = time.Now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt).String()
	for i := range report.Sessions {
		if !report.Sessions[i].Passed() {
			report.Failed++
		}
	}
	report.Passed = report.Failed == 0

	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, report); err != nil {
			log.Warn(ctx, "failed to save report", logger.Error(err))
		} else {
			log.Info(ctx, "report saved", logger.String("filename", cfg.OutputFile))
		}
	}

	log.Info(ctx, "drive probe finished",
		logger.Int("sessions", len(report.Sessions)),
		logger.Int("failed", report.Failed),
		logger.String("duration", report.Duration))

	if !report.Passed {
		return report, fmt.Errorf("%w: %d of %d sessions", ErrChecksFailed, report.Failed, len(report.Sessions))
	}
	return report, nil
}

// checkServiceHealth verifies the service answers its metrics endpoint.
func checkServiceHealth(ctx context.Context, client *httpClient) error {
	if err := client.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// driveSessions runs the session scenario on a pool of cfg.Workers goroutines.
func driveSessions(ctx context.Context, cfg *Config, client *httpClient, log logger.Logger) []SessionResult {
	results := make([]SessionResult, cfg.Sessions)
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = driveSession(ctx, cfg, client, log)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < cfg.Sessions; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	// Sessions never dispatched because ctx ended are reported as errors.
	for i := range results {
		if results[i].SessionID == "" && results[i].Error == "" && ctx.Err() != nil {
			results[i].Error = ctx.Err().Error()
		}
	}
	return results
}

// driveSession creates one session, runs a full simulation, reads every
// entry twice and deletes the session.
func driveSession(ctx context.Context, cfg *Config, client *httpClient, log logger.Logger) SessionResult {
	var res SessionResult
	fail := func(err error) SessionResult {
		res.Error = err.Error()
		log.Error(ctx, "session failed", logger.String("session_id", res.SessionID), logger.Error(err))
		return res
	}

	var sess types.Session
	req := types.CreateSessionRequest{PolicyholderID: cfg.PolicyholderID}
	if err := client.do(ctx, http.MethodPost, "/api/sessions", req, http.StatusCreated, &sess); err != nil {
		return fail(err)
	}
	res.SessionID = sess.ID
	base := "/api/sessions/" + sess.ID
	res.check("starts_idle", !sess.Simulating && len(sess.History) == 0,
		fmt.Sprintf("simulating=%v entries=%d", sess.Simulating, len(sess.History)))

	var first, second types.StartResponse
	if err := client.do(ctx, http.MethodPost, base+"/simulation", nil, http.StatusAccepted, &first); err != nil {
		return fail(err)
	}
	if err := client.do(ctx, http.MethodPost, base+"/simulation", nil, http.StatusOK, &second); err != nil {
		return fail(err)
	}
	res.check("second_start_noop", first.Started && !second.Started,
		fmt.Sprintf("first=%v second=%v", first.Started, second.Started))

	final, err := pollUntilIdle(ctx, cfg, client, base, &res, log)
	if err != nil {
		return fail(err)
	}
	res.Entries = len(final.History)
	res.FinalScore = final.Score
	res.check("history_bounded", len(final.History) <= cfg.HistoryLimit,
		fmt.Sprintf("%d entries", len(final.History)))

	idempotent := true
	last := final
	for _, e := range final.History {
		var once, twice types.Session
		path := base + "/feedback/" + e.ID + "/read"
		if err := client.do(ctx, http.MethodPost, path, nil, http.StatusOK, &once); err != nil {
			return fail(err)
		}
		if err := client.do(ctx, http.MethodPost, path, nil, http.StatusOK, &twice); err != nil {
			return fail(err)
		}
		if !sameEntries(&once, &twice) {
			idempotent = false
		}
		last = twice
	}
	res.check("mark_read_idempotent", idempotent, "second mark-read changed the snapshot")
	res.check("all_read", last.Unread == 0, fmt.Sprintf("unread=%d", last.Unread))

	if err := client.do(ctx, http.MethodDelete, base, nil, http.StatusNoContent, nil); err != nil {
		return fail(err)
	}
	err = client.do(ctx, http.MethodGet, base, nil, http.StatusNotFound, nil)
	res.check("deleted", err == nil, fmt.Sprint(err))

	log.Info(ctx, "session verified",
		logger.String("session_id", res.SessionID),
		logger.Int("score", res.FinalScore),
		logger.Int("entries", res.Entries),
		logger.Bool("passed", res.Passed()))
	return res
}

// pollUntilIdle polls the snapshot until the run ends, verifying every
// snapshot along the way.
func pollUntilIdle(ctx context.Context, cfg *Config, client *httpClient, base string, res *SessionResult, log logger.Logger) (types.Session, error) {
	deadline := time.NewTimer(cfg.RunTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	var violation error
	for {
		var snap types.Session
		if err := client.do(ctx, http.MethodGet, base, nil, http.StatusOK, &snap); err != nil {
			return snap, err
		}
		res.Polls++
		if err := verifySnapshot(&snap, cfg.HistoryLimit); err != nil && violation == nil {
			violation = err
		}
		if cfg.Verbose {
			log.Debug(ctx, "poll",
				logger.String("session_id", snap.ID),
				logger.Int("score", snap.Score),
				logger.Int("entries", len(snap.History)),
				logger.Bool("simulating", snap.Simulating))
		}
		if !snap.Simulating {
			res.check("snapshots_consistent", violation == nil, fmt.Sprint(violation))
			return snap, nil
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-deadline.C:
			return snap, fmt.Errorf("%w after %s", ErrRunTimeout, cfg.RunTimeout)
		case <-ticker.C:
		}
	}
}

// saveReport writes the report as indented JSON.
func saveReport(filename string, report *Report) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), reportPermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
