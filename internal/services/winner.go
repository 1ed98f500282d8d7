package services

import (
	"context"
	"time"

	"github.com/pointsboard/apiserver/types"
)

// TopScoreRepository reads the highest-scoring users.
type TopScoreRepository interface {
	TopByPoints(ctx context.Context, limit int) ([]types.User, error)
}

// WinnerRepository defines persistence operations for winner records.
type WinnerRepository interface {
	Create(ctx context.Context, winner types.Winner) (types.Winner, error)
	List(ctx context.Context) ([]types.Winner, error)
}

// WinnerService decides and records winner-selection events.
type WinnerService struct {
	users   TopScoreRepository
	winners WinnerRepository
	now     func() time.Time
}

func NewWinnerService(users TopScoreRepository, winners WinnerRepository) *WinnerService {
	return &WinnerService{
		users:   users,
		winners: winners,
		now:     time.Now,
	}
}

// SelectWinner inspects the top two scores and, when a single unambiguous
// top scorer exists, records a winner event and returns it. It returns
// (nil, nil) when fewer than two users exist or the top score is tied;
// comparing only the top two also suppresses wider ties for first place.
func (s *WinnerService) SelectWinner(ctx context.Context) (*types.Winner, error) {
	top, err := s.users.TopByPoints(ctx, 2)
	if err != nil {
		return nil, err
	}

	leader, ok := decideWinner(top)
	if !ok {
		return nil, nil
	}

	winner, err := s.winners.Create(ctx, types.Winner{
		UserID:     leader.ID,
		Points:     leader.Points,
		SelectedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

// List returns all recorded winner events, newest first.
func (s *WinnerService) List(ctx context.Context) ([]types.Winner, error) {
	return s.winners.List(ctx)
}

// decideWinner applies the tie policy to the top-two slice: a winner
// exists only with at least two users and a strict score separation.
func decideWinner(top []types.User) (types.User, bool) {
	if len(top) < 2 {
		return types.User{}, false
	}
	if top[0].Points <= top[1].Points {
		return types.User{}, false
	}
	return top[0], true
}
