package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/ranking"
	"github.com/abrezinsky/pokerleague/internal/repository"
)

// RankingService computes season standings from completed rounds
type RankingService struct {
	log      logger.Logger
	repo     repository.ResultRepository
	settings SettingsServicer
}

// NewRankingService creates a new RankingService
func NewRankingService(log logger.Logger, repo repository.ResultRepository, settings SettingsServicer) *RankingService {
	return &RankingService{log: log, repo: repo, settings: settings}
}

// GetRankings returns the season standings. It only reads; calling it twice
// without a completion in between returns the same standings.
func (s *RankingService) GetRankings(ctx context.Context) (*ranking.Standings, error) {
	var (
		completed []models.CompletedRound
		cfg       TournamentConfig
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rounds, err := s.repo.ListCompletedRounds(gCtx)
		if err != nil {
			return storeErr(err, "completed rounds")
		}
		completed = rounds
		return nil
	})
	g.Go(func() error {
		c, err := s.settings.Config(gCtx)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("Failed to load rankings", "error", err)
		return nil, err
	}

	standings := ranking.Compute(completed, cfg.Ranking)
	return &standings, nil
}

// GetQualifiers returns the players who reach the final table
func (s *RankingService) GetQualifiers(ctx context.Context) ([]int64, error) {
	standings, err := s.GetRankings(ctx)
	if err != nil {
		return nil, err
	}
	return standings.Qualifiers, nil
}
