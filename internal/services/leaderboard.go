package services

import (
	"context"

	"github.com/pointsboard/apiserver/types"
)

// LeaderboardRepository defines the grouping aggregation over users.
type LeaderboardRepository interface {
	Leaderboard(ctx context.Context) ([]types.LeaderboardGroup, error)
}

// LeaderboardService exposes the points leaderboard.
type LeaderboardService struct {
	repo LeaderboardRepository
}

func NewLeaderboardService(repo LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{repo: repo}
}

// Groups returns leaderboard buckets ordered by points descending.
// An empty store yields an empty slice.
func (s *LeaderboardService) Groups(ctx context.Context) ([]types.LeaderboardGroup, error) {
	return s.repo.Leaderboard(ctx)
}
