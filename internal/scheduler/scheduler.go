package scheduler

import (
	"context"
	"time"

	"github.com/dorlov/fintrack/internal/models"
	"github.com/dorlov/fintrack/internal/repository"
	"github.com/dorlov/fintrack/internal/service"
	"github.com/dorlov/fintrack/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReferenceRateSource supplies a daily EUR-based rate table for the cache
// warm-up job.
type ReferenceRateSource interface {
	DailyRates(ctx context.Context) (map[string]float64, error)
}

// Scheduler runs the periodic jobs: the daily rate cache warm-up and the
// monthly forecast digest.
type Scheduler struct {
	cron     *cron.Cron
	repo     *repository.Repository
	refRates ReferenceRateSource
	forecast *service.ForecastService
	sender   *email.Sender
	log      *logrus.Logger
}

// New initializes the scheduler. sender may be nil when SMTP is not
// configured, in which case the digest job is skipped.
func New(repo *repository.Repository, refRates ReferenceRateSource, forecast *service.ForecastService, sender *email.Sender, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		repo:     repo,
		refRates: refRates,
		forecast: forecast,
		sender:   sender,
		log:      log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Daily warm-up keeps EUR pairs inside the freshness window.
	if _, err := s.cron.AddFunc("0 6 * * *", s.warmUpRates); err != nil {
		return err
	}
	if s.sender != nil {
		if _, err := s.cron.AddFunc("0 8 1 * *", s.sendDigests); err != nil {
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) warmUpRates() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rates, err := s.refRates.DailyRates(ctx)
	if err != nil {
		s.log.Errorf("Rate warm-up failed: %v", err)
		return
	}

	count := 0
	for code, rate := range rates {
		if err := s.repo.UpsertRate(ctx, "EUR", code, rate); err != nil {
			s.log.Errorf("Failed to cache EUR->%s: %v", code, err)
			continue
		}
		count++
	}
	s.log.Infof("Rate warm-up cached %d EUR pairs", count)
}

func (s *Scheduler) sendDigests() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.log.Errorf("Digest job failed to list users: %v", err)
		return
	}

	sent := 0
	for _, user := range users {
		result, err := s.digestForecast(ctx, user)
		if err != nil {
			s.log.Errorf("Digest forecast failed for user %d: %v", user.ID, err)
			continue
		}
		if result == nil {
			continue
		}
		if err := s.sender.SendForecastDigest(user.Email, user.Username, result); err != nil {
			continue
		}
		sent++
	}
	s.log.Infof("Forecast digest sent to %d users", sent)
}

func (s *Scheduler) digestForecast(ctx context.Context, user models.User) (*models.ForecastResult, error) {
	target := s.forecast.ResolveCurrency(ctx, user.ID, user.PreferredCurrency)
	result, err := s.forecast.ForecastOverall(ctx, user.ID, target, nil)
	if err != nil {
		return nil, err
	}
	if result.Forecast == nil {
		// Not enough history yet, nothing worth mailing.
		return nil, nil
	}
	return result, nil
}
