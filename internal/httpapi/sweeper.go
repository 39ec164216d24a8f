package httpapi

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/andika/docchat/internal/observability"
)

// UploadSweeper periodically removes orphaned files from the upload
// scratch directory. Uploads are normally removed at the end of their
// request; the sweeper catches files left behind by crashes.
type UploadSweeper struct {
	dir      string
	maxAge   time.Duration
	schedule string
	logger   zerolog.Logger
	cron     *cron.Cron
}

// NewUploadSweeper creates a sweeper for dir. schedule is a standard
// five-field cron expression.
func NewUploadSweeper(dir, schedule string, maxAge time.Duration, logger zerolog.Logger) (*UploadSweeper, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	return &UploadSweeper{
		dir:      dir,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger.With().Str("component", "upload-sweeper").Logger(),
	}, nil
}

// Start schedules the sweep.
func (us *UploadSweeper) Start() error {
	if us.cron != nil {
		return fmt.Errorf("sweeper is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(us.schedule, func() { us.SweepNow() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", us.schedule, err)
	}

	c.Start()
	us.cron = c

	us.logger.Info().
		Str("schedule", us.schedule).
		Dur("max_age", us.maxAge).
		Msg("Upload sweeper started")

	return nil
}

// Stop stops the scheduled sweep.
func (us *UploadSweeper) Stop() error {
	if us.cron == nil {
		return fmt.Errorf("sweeper is not running")
	}

	us.cron.Stop()
	us.cron = nil

	us.logger.Info().Msg("Upload sweeper stopped")

	return nil
}

// SweepNow removes files older than maxAge and returns the count.
func (us *UploadSweeper) SweepNow() int {
	entries, err := os.ReadDir(us.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			us.logger.Warn().Err(err).Msg("Failed to read upload directory")
		}
		return 0
	}

	cutoff := time.Now().Add(-us.maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(us.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			us.logger.Warn().Err(err).Str("file", path).Msg("Failed to remove stale upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		observability.RecordUploadsSwept(removed)
		us.logger.Info().Int("removed", removed).Msg("Swept stale uploads")
	}

	return removed
}
