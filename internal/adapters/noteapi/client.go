package noteapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

const defaultTimeout = 20 * time.Second

// Options configure the remote client.
type Options struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger

	// MaxElapsed bounds the total retry window for one fetch.
	MaxElapsed time.Duration
}

// Client fetches the document batch from the remote note service over
// HTTP. Transient failures are retried with exponential backoff; client
// errors are surfaced immediately.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
	maxElapsed time.Duration
}

// Ensure Client implements the port
var _ ports.Fetcher = (*Client)(nil)

// NewClient creates a remote client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	maxElapsed := opts.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: httpClient,
		log:        log,
		maxElapsed: maxElapsed,
	}
}

// wireDocument is the service's JSON shape for one document.
type wireDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ContentMD   string    `json:"content_md"`
	ContentHTML string    `json:"content_html"`
	ContentText string    `json:"content_text"`
}

type documentsResponse struct {
	Documents []wireDocument `json:"documents"`
}

// FetchDocuments retrieves the full document batch. The batch is atomic:
// either every document arrives or the fetch fails.
func (c *Client) FetchDocuments(ctx context.Context) ([]domain.RemoteDocument, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed

	var docs []domain.RemoteDocument
	operation := func() error {
		batch, err := c.fetchOnce(ctx)
		if err != nil {
			c.log.Debug("document fetch attempt failed", "error", err)
			return err
		}
		docs = batch
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return docs, nil
}

func (c *Client) fetchOnce(ctx context.Context) ([]domain.RemoteDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/documents", nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("remote returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		// Only server-side failures are worth retrying.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var decoded documentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("malformed response: %w", err))
	}

	docs := make([]domain.RemoteDocument, 0, len(decoded.Documents))
	for _, w := range decoded.Documents {
		docs = append(docs, w.toDomain())
	}
	return docs, nil
}

// toDomain orders renderings from most to least reliable.
func (w wireDocument) toDomain() domain.RemoteDocument {
	return domain.RemoteDocument{
		ID:        w.ID,
		Title:     w.Title,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
		Contents: []domain.Content{
			{Format: domain.FormatMarkdown, Body: w.ContentMD},
			{Format: domain.FormatHTML, Body: w.ContentHTML},
			{Format: domain.FormatPlain, Body: w.ContentText},
		},
	}
}
