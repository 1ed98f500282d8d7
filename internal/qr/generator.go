// Package qr renders QR code artifacts for user addresses through an
// external image service.
package qr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pointsboard/apiserver/config"
	"github.com/pointsboard/apiserver/internal/storage"
)

const artifactContentType = "image/png"

// Largest artifact we accept from the image service.
const maxArtifactBytes = 4 << 20

// Generator fetches rendered QR images and persists them as artifacts
// named after the user's ID.
type Generator struct {
	client  *http.Client
	baseURL string
	size    string
	store   *storage.Storage
}

// NewGenerator constructs a Generator from config and the artifact store.
func NewGenerator(cfg config.QRConfig, store *storage.Storage) (*Generator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("qr service url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid qr service url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	size := cfg.Size
	if size == "" {
		size = "150x150"
	}

	return &Generator{
		client:  &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		size:    size,
		store:   store,
	}, nil
}

// Generate fetches a QR image encoding the address and stores it as
// <id>.png, overwriting any previous artifact. A non-success response from
// the image service leaves no artifact behind.
func (g *Generator) Generate(ctx context.Context, id int, address string) error {
	endpoint, err := url.Parse(g.baseURL)
	if err != nil {
		return err
	}
	q := endpoint.Query()
	q.Set("size", g.size)
	q.Set("data", address)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qr service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return err
	}

	key := ArtifactKey(id)
	if err := g.store.Put(ctx, key, bytes.NewReader(body), int64(len(body)), artifactContentType); err != nil {
		return fmt.Errorf("store artifact %s: %w", key, err)
	}
	return nil
}

// ArtifactKey returns the storage key for a user's QR artifact.
func ArtifactKey(id int) string {
	return fmt.Sprintf("%d.png", id)
}
