// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"moviehub/internal/logging"
)

// TokenPurger deletes refresh tokens that expired before now.
type TokenPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewScheduler() *Scheduler {
	log := logging.Component("jobs")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		log:  log,
	}
}

// cronLogger routes cron's own messages, recovered panics included, into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// AddTokenCleanup schedules purger on spec, e.g. "@hourly" or "*/15 * * * *".
func (s *Scheduler) AddTokenCleanup(spec string, purger TokenPurger) error {
	if _, err := s.cron.AddFunc(spec, func() { s.PurgeTokens(purger) }); err != nil {
		return fmt.Errorf("schedule token cleanup %q: %w", spec, err)
	}
	return nil
}

// PurgeTokens runs one cleanup pass.
func (s *Scheduler) PurgeTokens(purger TokenPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := purger.PurgeExpired(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("token cleanup failed")
		return
	}
	s.log.Info().Int64("removed", n).Msg("expired refresh tokens purged")
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
