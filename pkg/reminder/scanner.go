package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultScanInterval = time.Minute

// Scanner runs periodic reminder scans. Scans are chained with
// SkipIfStillRunning, so a slow scan is never overlapped by the next tick.
type Scanner struct {
	logger   *slog.Logger
	service  *Service
	interval time.Duration
	cron     *cron.Cron
}

func NewScanner(logger *slog.Logger, service *Service, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}

	return &Scanner{
		logger:   logger.With("module", "reminder_scanner"),
		service:  service,
		interval: interval,
	}
}

func (s *Scanner) Start(ctx context.Context) error {
	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := runner.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		if err := s.service.Scan(ctx, time.Now().UTC()); err != nil {
			s.logger.ErrorContext(ctx, "Reminder scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}

	runner.Start()
	s.cron = runner

	s.logger.InfoContext(ctx, "Reminder scanner started", "interval", s.interval)

	return nil
}

// Stop halts scheduling and waits for a running scan to finish.
func (s *Scanner) Stop() {
	if s.cron == nil {
		return
	}

	<-s.cron.Stop().Done()
	s.logger.Info("Reminder scanner stopped")
}
