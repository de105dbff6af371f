package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"example.com/actuaryjobs/internal/domain"
)

const (
	timeout   = 30 * time.Second
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	bulkPath  = "/api/jobs/bulk"
)

// Client fetches listing pages and posts scraped batches to the jobs API.
type Client struct {
	APIBase string
	HTTP    *http.Client
}

func NewClient(apiBase string) *Client {
	return &Client{
		APIBase: strings.TrimRight(apiBase, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// FetchListings downloads one listings page and parses its cards.
func (c *Client) FetchListings(ctx context.Context, pageURL string) ([]domain.RawJob, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listings url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return ParseListings(resp.Body, base)
}

// BulkResponse is the bulk endpoint's success body.
type BulkResponse struct {
	JobsStored int64  `json:"jobsStored"`
	Message    string `json:"message"`
}

// PostBatch sends jobs to the bulk ingestion endpoint and returns how many were stored.
func (c *Client) PostBatch(ctx context.Context, jobs []domain.RawJob) (BulkResponse, error) {
	if jobs == nil {
		jobs = []domain.RawJob{}
	}
	body, err := json.Marshal(jobs)
	if err != nil {
		return BulkResponse{}, fmt.Errorf("encode batch: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBase+bulkPath, bytes.NewReader(body))
	if err != nil {
		return BulkResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return BulkResponse{}, fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return BulkResponse{}, fmt.Errorf("bulk insert rejected (status %d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	var out BulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return BulkResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
