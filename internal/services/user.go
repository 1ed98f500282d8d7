package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pointsboard/apiserver/internal/store"
	"github.com/pointsboard/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, opts store.ListOptions) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	AdjustPoints(ctx context.Context, id, delta int) (int, error)
	Delete(ctx context.Context, id int) error
	ResetAllPoints(ctx context.Context) (int64, error)
}

// EventPublisher publishes change-feed events for user insertions.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo      UserRepository
	publisher EventPublisher
	logger    *log.Logger
}

// NewUserService constructs a UserService. The publisher may be nil, in
// which case insertions produce no change-feed events.
func NewUserService(repo UserRepository, publisher EventPublisher, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Default()
	}
	return &UserService{repo: repo, publisher: publisher, logger: logger}
}

func (s *UserService) List(ctx context.Context, opts store.ListOptions) ([]types.User, error) {
	return s.repo.List(ctx, opts)
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Create inserts a user and publishes the insertion on the change feed.
// The insert is not rolled back if publishing fails; the event is lost and
// the failure logged.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return types.User{}, err
	}

	if s.publisher != nil {
		event := types.UserInsertedEvent{
			ID:      created.ID,
			Name:    created.Name,
			Address: created.Address,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Printf("marshal insert event for user %d: %v", created.ID, err)
			return created, nil
		}
		if _, err := s.publisher.Publish(ctx, types.UserInsertedChannel, payload, nil); err != nil {
			s.logger.Printf("publish insert event for user %d: %v", created.ID, err)
		}
	}
	return created, nil
}

func (s *UserService) AdjustPoints(ctx context.Context, id, delta int) (int, error) {
	return s.repo.AdjustPoints(ctx, id, delta)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) ResetAllPoints(ctx context.Context) (int64, error) {
	return s.repo.ResetAllPoints(ctx)
}
