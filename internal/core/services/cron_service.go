package services

import (
	"context"
	"errors"
	"time"

	"realestate-crm/internal/config"

	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job schedules (minute hour day month weekday)
const (
	CloseMonthSchedule     = "30 2 1 * *"
	RefreshRevenueSchedule = "0 3 * * *"
	TokenCleanupSchedule   = "0 4 * * *"
)

const jobLockTTL = 10 * time.Minute

// CronService runs the periodic closing jobs. With a lock client, each run
// first takes a Redis lock so only one instance executes it.
type CronService struct {
	cron     *cron.Cron
	location *time.Location
	closing  *ClosingService
	auth     *AuthService
	locker   *redislock.Client
	logger   *logrus.Logger
}

// NewCronService creates a new cron service. locker may be nil.
func NewCronService(closing *ClosingService, auth *AuthService, locker *redislock.Client, location *time.Location, logger *logrus.Logger) *CronService {
	if location == nil {
		location = time.UTC
	}
	return &CronService{
		cron:     cron.New(cron.WithLocation(location)),
		location: location,
		closing:  closing,
		auth:     auth,
		locker:   locker,
		logger:   logger,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		name     string
		schedule string
		run      func(ctx context.Context) error
	}{
		{"close-month", CloseMonthSchedule, func(ctx context.Context) error {
			_, err := s.closing.ClosePreviousMonth(ctx, time.Now().In(s.location))
			return err
		}},
		{"refresh-revenue", RefreshRevenueSchedule, func(ctx context.Context) error {
			_, err := s.closing.RefreshConsultantRevenue(ctx)
			return err
		}},
		{"token-cleanup", TokenCleanupSchedule, func(ctx context.Context) error {
			n, err := s.auth.CleanupExpiredTokens(ctx)
			if err == nil && n > 0 {
				s.logger.WithField("deleted", n).Info("expired refresh tokens removed")
			}
			return err
		}},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() { s.RunJob(job.name, job.run) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("⏰ Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("⏰ Cron service stopped")
}

// RunJob executes one job run, guarded by the distributed lock when configured
func (s *CronService) RunJob(name string, run func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobLockTTL)
	defer cancel()

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "crm:job:"+name, jobLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			s.logger.WithField("job", name).Info("job is running on another instance; skipped")
			return
		} else if err != nil {
			config.LogError(s.logger, "services", "CronService.RunJob", "obtain lock", name, err)
			return
		}
		defer func() {
			_ = lock.Release(context.Background())
		}()
	}

	started := time.Now()
	if err := run(ctx); err != nil {
		config.LogError(s.logger, "services", "CronService.RunJob", "job failed", name, err)
		return
	}
	s.logger.WithFields(logrus.Fields{"job": name, "took": time.Since(started).String()}).Info("job finished")
}
