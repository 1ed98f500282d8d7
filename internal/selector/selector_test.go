package selector

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pointsboard/apiserver/internal/services"
	"github.com/pointsboard/apiserver/types"
)

type stubUsers struct {
	mu  sync.Mutex
	top []types.User
}

func (s *stubUsers) TopByPoints(ctx context.Context, limit int) ([]types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.top) {
		limit = len(s.top)
	}
	return s.top[:limit], nil
}

type stubWinners struct {
	mu      sync.Mutex
	created []types.Winner
}

func (s *stubWinners) Create(ctx context.Context, winner types.Winner) (types.Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	winner.ID = len(s.created) + 1
	s.created = append(s.created, winner)
	return winner, nil
}

func (s *stubWinners) List(ctx context.Context) ([]types.Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created, nil
}

func (s *stubWinners) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

func TestRunnerRecordsWinnerOnTick(t *testing.T) {
	users := &stubUsers{top: []types.User{
		{ID: 1, Name: "Alice", Points: 10},
		{ID: 2, Name: "Bob", Points: 7},
	}}
	winners := &stubWinners{}
	runner := NewRunner(services.NewWinnerService(users, winners), 10*time.Millisecond, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for winners.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if winners.count() == 0 {
		t.Fatal("expected at least one winner record")
	}
	first, _ := winners.List(context.Background())
	if first[0].UserID != 1 || first[0].Points != 10 {
		t.Fatalf("unexpected winner record: %+v", first[0])
	}
}

func TestRunnerTieNeverRecords(t *testing.T) {
	users := &stubUsers{top: []types.User{
		{ID: 1, Name: "Alice", Points: 10},
		{ID: 2, Name: "Bob", Points: 10},
	}}
	winners := &stubWinners{}
	runner := NewRunner(services.NewWinnerService(users, winners), 10*time.Millisecond, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	runner.Run(ctx)

	if winners.count() != 0 {
		t.Fatalf("expected no winner records on a tie, got %d", winners.count())
	}
}
