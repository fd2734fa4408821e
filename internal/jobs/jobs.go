// Package jobs runs the background sweeps: completing finished bookings
// and purging expired refresh tokens.
package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/matchpoint/court-booking/internal/repository"
)

// Service wraps a gocron scheduler with the application's periodic jobs.
type Service struct {
	scheduler gocron.Scheduler
}

// New builds the scheduler and registers the sweeps.  Jobs run in
// singleton mode so a slow database cannot stack overlapping runs.
func New(bookings *repository.BookingRepo, tokens *repository.TokenRepo, sweepEvery time.Duration) (*Service, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeWait),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("background job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(sweepEvery),
		gocron.NewTask(func() { completeFinished(bookings) }),
		gocron.WithName("complete-finished-bookings"),
	); err != nil {
		return nil, err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() { purgeTokens(tokens) }),
		gocron.WithName("purge-expired-refresh-tokens"),
	); err != nil {
		return nil, err
	}

	return &Service{scheduler: sched}, nil
}

// Start begins running the jobs.
func (s *Service) Start() {
	s.scheduler.Start()
	log.Info().Msg("background jobs started")
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Service) Stop() error {
	return s.scheduler.Shutdown()
}

func completeFinished(bookings *repository.BookingRepo) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := bookings.CompleteFinished(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("complete finished bookings sweep failed")
		return
	}
	if n > 0 {
		log.Info().Int64("completed", n).Msg("bookings marked completed")
	}
}

func purgeTokens(tokens *repository.TokenRepo) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := tokens.PurgeExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("refresh token purge failed")
		return
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("expired refresh tokens purged")
	}
}
