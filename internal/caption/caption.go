// Package caption generates alt text and descriptions for processed
// images through an external text-generation endpoint. Every failure
// mode degrades to a deterministic local fallback; callers never see
// an error and optimization is never gated on this service.
package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/imgpress/internal/config"
)

// Meta is the generated metadata for one image.
type Meta struct {
	Alt         string `json:"alt"`
	Description string `json:"desc"`
}

// fallbackDescription is the static caption used when the remote
// service is unavailable or misconfigured.
const fallbackDescription = "Image optimized for web publishing."

// Client calls the caption endpoint with a per-request timeout.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   zerolog.Logger
}

// NewClient builds a client from config. A client with no key or no
// endpoint is still usable; it answers from the local fallback.
func NewClient(cfg config.Config, logger zerolog.Logger) *Client {
	return &Client{
		endpoint: cfg.CaptionEndpoint,
		apiKey:   cfg.CaptionAPIKey,
		http:     &http.Client{Timeout: cfg.CaptionTimeout},
		logger:   logger,
	}
}

type captionRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

// Generate returns metadata for the given image. It never fails: any
// problem with the remote call yields Fallback(filename).
func (c *Client) Generate(ctx context.Context, filename, mime string) Meta {
	if c.apiKey == "" || c.endpoint == "" {
		return Fallback(filename)
	}

	meta, err := c.request(ctx, filename, mime)
	if err != nil {
		c.logger.Debug().Err(err).Str("file", filename).Msg("caption request failed, using local fallback")
		return Fallback(filename)
	}
	return meta
}

func (c *Client) request(ctx context.Context, filename, mime string) (Meta, error) {
	body, err := json.Marshal(captionRequest{Filename: filename, MimeType: mime})
	if err != nil {
		return Meta{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Meta{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return Meta{}, fmt.Errorf("caption endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Meta{}, fmt.Errorf("caption endpoint returned %s", resp.Status)
	}

	var meta Meta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return Meta{}, fmt.Errorf("decode response: %w", err)
	}
	if meta.Alt == "" {
		return Meta{}, fmt.Errorf("caption endpoint returned empty alt")
	}
	if meta.Description == "" {
		meta.Description = fallbackDescription
	}
	return meta, nil
}

// Fallback builds deterministic metadata from the filename alone.
func Fallback(filename string) Meta {
	return Meta{
		Alt:         Humanize(filename),
		Description: fallbackDescription,
	}
}

// Humanize turns a filename into readable alt text: the extension is
// dropped and separator runs collapse to single spaces.
func Humanize(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	base = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || r == '.' {
			return ' '
		}
		return r
	}, base)

	words := strings.Fields(base)
	if len(words) == 0 {
		return "image"
	}
	return strings.Join(words, " ")
}
