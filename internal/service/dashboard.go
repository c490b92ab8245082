package service

import (
	"context"

	"github.com/Harshitk-cp/teambrain/internal/domain"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type DashboardService struct {
	hypotheses  domain.HypothesisStore
	suggestions domain.SuggestionStore
	teams       domain.TeamStore
	logger      *zap.Logger
}

func NewDashboardService(hs domain.HypothesisStore, ss domain.SuggestionStore, ts domain.TeamStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{hypotheses: hs, suggestions: ss, teams: ts, logger: logger}
}

func (s *DashboardService) Stats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	var (
		mine    *domain.OriginSummary
		pending int
		teams   []domain.TeamSummary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		mine, err = s.hypotheses.SummarizeByOrigin(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.suggestions.CountPendingByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teams.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := domain.NewDashboardStats()
	out.PendingSuggestions = pending
	out.HighPotentialCount = mine.HighPotential
	if teams != nil {
		out.Teams = teams
	}
	for status, n := range mine.ByStatus {
		out.ByStatus[status] += n
		out.TotalHypotheses += n
	}
	for state, n := range mine.ByVerificationState {
		out.ByVerificationState[state] += n
	}

	overall := stats.Float64Data(mine.OverallScores)
	out.ScoredHypotheses = len(overall)
	if len(overall) > 0 {
		mean, err := stats.Mean(overall)
		if err != nil {
			s.logger.Warn("failed to compute mean quality score", zap.Error(err))
		} else {
			out.OverallScoreMean, _ = stats.Round(mean, 2)
		}
		median, err := stats.Median(overall)
		if err != nil {
			s.logger.Warn("failed to compute median quality score", zap.Error(err))
		} else {
			out.OverallScoreMedian, _ = stats.Round(median, 2)
		}
	}
	return out, nil
}
