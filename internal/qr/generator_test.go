package qr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/storage"
)

func newTestGenerator(t *testing.T, serviceURL string) (*Generator, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := storage.NewLocalClient(dir)
	if err != nil {
		t.Fatalf("NewLocalClient: %v", err)
	}
	gen, err := NewGenerator(config.QRConfig{
		BaseURL: serviceURL,
		Size:    "150x150",
		Timeout: 5 * time.Second,
	}, storage.NewStorage(backend))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen, dir
}

func TestGenerateStoresArtifact(t *testing.T) {
	var gotSize, gotData string
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSize = r.URL.Query().Get("size")
		gotData = r.URL.Query().Get("data")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("fake-png"))
	}))
	defer service.Close()

	gen, dir := newTestGenerator(t, service.URL)

	if err := gen.Generate(context.Background(), 12, "123 Main St"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotSize != "150x150" {
		t.Fatalf("size param = %q", gotSize)
	}
	if gotData != "123 Main St" {
		t.Fatalf("data param = %q", gotData)
	}

	content, err := os.ReadFile(filepath.Join(dir, "12.png"))
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(content) != "fake-png" {
		t.Fatalf("artifact content = %q", content)
	}
}

func TestGenerateOverwritesExistingArtifact(t *testing.T) {
	response := "first"
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(response))
	}))
	defer service.Close()

	gen, dir := newTestGenerator(t, service.URL)

	if err := gen.Generate(context.Background(), 3, "456 Oak Ave"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	response = "second"
	if err := gen.Generate(context.Background(), 3, "456 Oak Ave"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "3.png"))
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if string(content) != "second" {
		t.Fatalf("artifact content = %q, want overwrite", content)
	}
}

func TestGenerateServiceFailureLeavesNoArtifact(t *testing.T) {
	service := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer service.Close()

	gen, dir := newTestGenerator(t, service.URL)

	if err := gen.Generate(context.Background(), 12, "123 Main St"); err == nil {
		t.Fatal("expected an error on service failure")
	}

	if _, err := os.Stat(filepath.Join(dir, "12.png")); !os.IsNotExist(err) {
		t.Fatalf("expected no artifact, stat err = %v", err)
	}
}

func TestNewGeneratorRequiresURL(t *testing.T) {
	if _, err := NewGenerator(config.QRConfig{}, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestArtifactKey(t *testing.T) {
	if got := ArtifactKey(42); got != "42.png" {
		t.Fatalf("ArtifactKey(42) = %q", got)
	}
}
