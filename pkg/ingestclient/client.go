// Package ingestclient posts enriched location reports to the external
// ingestion service.
package ingestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
)

// Config configures a Client.
type Config struct {
	BaseURL      string `validate:"required"`
	HaystackPath string `validate:"required"`
	APIKey       string `validate:"required"`
}

// Client posts batches of reduced reports to the ingestion endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	path       string
	apiKey     string
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if err := helpers.Check(cfg); err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    cfg.BaseURL,
		path:       cfg.HaystackPath,
		apiKey:     cfg.APIKey,
	}, nil
}

// reportPayload is the reduced wire shape for a single tracker report
// (spec §4.E step 7).
type reportPayload struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Report reducedReport `json:"report"`
}

type reducedReport struct {
	Timestamp int64   `json:"timestamp"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Conf      uint8   `json:"conf"`
}

// Report is the caller-facing shape Send accepts; the pipeline builds one
// per tracker with an attached EnrichedReport.
type Report struct {
	ID        string
	Name      string
	Timestamp int64
	Lat       float64
	Lon       float64
	Conf      uint8
}

// Send posts reports as a single JSON array. The ingestion endpoint is
// idempotent on (device_id, timestamp); callers MAY retry a failed chunk
// without risk of duplication beyond what the server already tolerates.
func (c *Client) Send(ctx context.Context, reports []Report) error {
	payload := make([]reportPayload, 0, len(reports))
	for _, r := range reports {
		payload = append(payload, reportPayload{
			ID:   r.ID,
			Name: r.Name,
			Report: reducedReport{
				Timestamp: r.Timestamp,
				Lat:       r.Lat,
				Lon:       r.Lon,
				Conf:      r.Conf,
			},
		})
	}

	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return helpers.ErrValidationFailure.WithDetails(err.Error())
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	u = u.JoinPath(c.path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), buf)
	if err != nil {
		return helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return helpers.ErrValidationFailure.WithDetails(fmt.Sprintf("ingestion service returned status %d", resp.StatusCode))
	}
	return nil
}
