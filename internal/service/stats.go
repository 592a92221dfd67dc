package service

import (
	"context"

	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/repository"
	"golang.org/x/sync/errgroup"
)

// StatsService computes the dashboard counters.
type StatsService interface {
	Get(ctx context.Context) (*models.Stats, error)
}

type statsService struct {
	caseRepo repository.CaseRepository
	userRepo repository.UserRepository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(caseRepo repository.CaseRepository, userRepo repository.UserRepository) StatsService {
	return &statsService{caseRepo: caseRepo, userRepo: userRepo}
}

// Get runs the three counts concurrently. Open cases are those in progress;
// every other status counts as closed.
func (s *statsService) Get(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.caseRepo.CountStatus(ctx, models.StatusInProgress, true)
		stats.OpenCases = n
		return err
	})
	g.Go(func() error {
		n, err := s.caseRepo.CountStatus(ctx, models.StatusInProgress, false)
		stats.ClosedCases = n
		return err
	})
	g.Go(func() error {
		n, err := s.userRepo.Count(ctx)
		stats.Users = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
