package processor

import (
	"context"

	"promomarket/pkg/logger"
	"promomarket/storefront-service/internal/app/storefront/entity"
	"promomarket/storefront-service/internal/app/storefront/infrastructure"
	"promomarket/storefront-service/internal/app/storefront/service"

	"github.com/robfig/cron/v3"
)

// CronScheduler периодически прогоняет накопившиеся в drift store тройки через Resync
type CronScheduler struct {
	cron      *cron.Cron
	runner    service.ResyncRunnerInterface
	drift     infrastructure.DriftStore
	batchSize int64
}

func NewCronScheduler(runner service.ResyncRunnerInterface, drift infrastructure.DriftStore, batchSize int64) *CronScheduler {
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.VerbosePrintfLogger(logger.DebugPrintf("cron"))),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger.DebugPrintf("cron")))),
	)

	if batchSize <= 0 {
		batchSize = 100
	}

	return &CronScheduler{
		cron:      c,
		runner:    runner,
		drift:     drift,
		batchSize: batchSize,
	}
}

func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	s.Sweep(ctx)
	return nil
}

// Sweep обрабатывает одну пачку drift записей. Записи снимает сам ResyncRunner,
// поэтому неудачные тройки останутся до следующего прогона.
func (s *CronScheduler) Sweep(ctx context.Context) (processed, failed int) {
	entries, err := s.drift.Pending(ctx, s.batchSize)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load pending drift entries")
		return 0, 0
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		processed++

		report, err := s.runner.Run(ctx, entity.ResyncSourceSweep, entry.ResyncInput())
		if err != nil && service.KindOf(err) == service.KindInternal {
			failed++
			continue
		}
		if report != nil && report.OrderSync == entity.CartSyncFailed {
			failed++
		}
	}

	remaining, err := s.drift.Size(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read drift store size")
	}

	if processed > 0 {
		logger.Info().
			Int("processed", processed).
			Int("failed", failed).
			Int64("remaining", remaining).
			Msg("Drift sweep completed")
	}

	return processed, failed
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
