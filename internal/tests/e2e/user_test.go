//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestUserLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	created, err := createUser(t, baseURL, "Alice", 30, "123 Main St")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Points != 0 {
		t.Fatalf("created user has %d points, want 0", created.Points)
	}

	fetched, err := getUser(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if fetched.Name != "Alice" {
		t.Fatalf("unexpected user name: %q", fetched.Name)
	}

	if err := patchPoints(t, baseURL, created.ID, 10); err != nil {
		t.Fatalf("patch points: %v", err)
	}
	if err := patchPoints(t, baseURL, created.ID, -3); err != nil {
		t.Fatalf("patch points: %v", err)
	}

	fetched, err = getUser(t, baseURL, created.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if fetched.Points != 7 {
		t.Fatalf("points = %d, want 7", fetched.Points)
	}

	if err := deleteUser(t, baseURL, created.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := expectUserNotFound(t, baseURL, created.ID); err != nil {
		t.Fatalf("expected deleted user to be missing: %v", err)
	}
}

func TestLeaderboardGrouping(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	users := []struct {
		name   string
		age    int
		points int
	}{
		{"GroupA", 20, 5},
		{"GroupB", 30, 5},
		{"GroupC", 40, 8},
	}
	ids := make([]int, 0, len(users))
	for _, u := range users {
		created, err := createUser(t, baseURL, u.name, u.age, "456 Oak Ave")
		if err != nil {
			t.Fatalf("create user %s: %v", u.name, err)
		}
		if u.points != 0 {
			if err := patchPoints(t, baseURL, created.ID, u.points); err != nil {
				t.Fatalf("patch points for %s: %v", u.name, err)
			}
		}
		ids = append(ids, created.ID)
	}
	defer func() {
		for _, id := range ids {
			_ = deleteUser(t, baseURL, id)
		}
	}()

	resp, err := http.Get(baseURL + "/users/grouped")
	if err != nil {
		t.Fatalf("get grouped: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("grouped status %d", resp.StatusCode)
	}

	var grouped map[string]struct {
		Names      []string `json:"names"`
		AverageAge float64  `json:"average_age"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grouped); err != nil {
		t.Fatalf("decode grouped: %v", err)
	}

	five, ok := grouped["5"]
	if !ok {
		t.Fatal("missing bucket for 5 points")
	}
	if five.AverageAge != 25 {
		t.Fatalf("average age for 5 points = %v, want 25", five.AverageAge)
	}
}

type userResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Points int    `json:"points"`
}

func createUser(t *testing.T, baseURL, name string, age int, address string) (userResponse, error) {
	t.Helper()

	payload := map[string]any{
		"name":    name,
		"age":     age,
		"address": address,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return userResponse{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return userResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return userResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return userResponse{}, fmt.Errorf("create user status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed userResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return userResponse{}, err
	}
	return parsed, nil
}

func getUser(t *testing.T, baseURL string, id int) (userResponse, error) {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/users/%d", baseURL, id))
	if err != nil {
		return userResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return userResponse{}, fmt.Errorf("get user status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed userResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return userResponse{}, err
	}
	return parsed, nil
}

func patchPoints(t *testing.T, baseURL string, id, delta int) error {
	t.Helper()

	body := fmt.Sprintf(`{"points_change":%d}`, delta)
	req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/users/%d/points", baseURL, id), strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("patch points status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func deleteUser(t *testing.T, baseURL string, id int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/users/%d", baseURL, id), nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete user status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectUserNotFound(t *testing.T, baseURL string, id int) error {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/users/%d", baseURL, id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("expected 404 after delete, got %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", append([]string{"compose"}, args...)...)
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	for {
		db, err := sql.Open("postgres", dsn)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")
	migrator, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "server stopped: %v\n", err)
		}
	}()
	return srv, nil
}

func waitForHealth(ctx context.Context, url string) error {
	for {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
