package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"catatuang/api/internal/repository"
	"catatuang/api/internal/service"
)

// Scheduler runs the recurring maintenance jobs: reclaiming expired
// sessions whose in-process timers were lost to a restart, and the
// nightly ledger archive.
type Scheduler struct {
	cron     *cron.Cron
	sessions *repository.SessionRepository
	exporter *service.ExportService
	log      zerolog.Logger
}

func NewScheduler(sessions *repository.SessionRepository, exporter *service.ExportService, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		sessions: sessions,
		exporter: exporter,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 */5 * * * *", s.sweepSessions); err != nil {
		return err
	}
	if s.exporter != nil {
		if _, err := s.cron.AddFunc("0 0 0 * * *", s.archiveLedger); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for running jobs to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reclaimed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("session sweep failed")
		return
	}
	if reclaimed > 0 {
		s.log.Info().Int64("reclaimed", reclaimed).Msg("expired sessions swept")
	}
}

func (s *Scheduler) archiveLedger() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.exporter.Run(ctx); err != nil {
		s.log.Error().Err(err).Msg("nightly archive failed")
	}
}
