// Package intents provides a client for pulling pending intents from the
// intent pool API.
package intents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cowmatch-hq/solver/pkg/logger"
	"github.com/cowmatch-hq/solver/pkg/models"
)

// APIResponse represents the structure of the intent pool API response
type APIResponse struct {
	Intents    []models.Intent `json:"intents,omitempty"`
	Data       []models.Intent `json:"data,omitempty"` // Some deployments use "data" as the key
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
	TotalPages int             `json:"total_pages"`
}

// Client represents an intent pool API client
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a new intent pool client
func New(endpoint string, log logger.Logger) *Client {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: createHTTPClient(),
		logger:     log,
	}
}

// FetchPendingIntents gets pending intents from the API. Token identifiers
// are normalized on the way in so downstream matching compares one namespace.
func (c *Client) FetchPendingIntents(ctx context.Context) ([]models.Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1/intents?status=pending", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build intents request: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending intents: %v", err)
	}
	defer func(body io.ReadCloser) {
		if cErr := body.Close(); cErr != nil {
			c.logger.Error("Failed to close response body: %v", cErr)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	// Try the wrapper struct first, then a bare array.
	var fetched []models.Intent
	var apiResp APIResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err == nil {
		switch {
		case len(apiResp.Intents) > 0:
			fetched = apiResp.Intents
		case len(apiResp.Data) > 0:
			fetched = apiResp.Data
		default:
			c.logger.Debug("No pending intents found (page %d/%d, total count: %d)",
				apiResp.Page, apiResp.TotalPages, apiResp.TotalCount)
		}
	} else if err := json.Unmarshal(bodyBytes, &fetched); err != nil {
		return nil, fmt.Errorf("failed to decode intents: %v, body: %s", err, string(bodyBytes))
	}

	for i := range fetched {
		fetched[i].Normalize()
	}
	return fetched, nil
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
