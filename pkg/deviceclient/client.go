// Package deviceclient talks to the external device-metadata service that
// catalogs trackers by id, name and private key.
package deviceclient

import (
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

// Client fetches paginated device (tracker) metadata.
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

// bufferType is an octet buffer as Node's Buffer.toJSON() serializes it:
// {"type": "Buffer", "data": [u8, ...]}.
type bufferType struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

type deviceRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PrivateKey bufferType `json:"privateKey"`
}

type pageMeta struct {
	Total     int `json:"total"`
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	PageCount int `json:"pageCount"`
}

type pageResponse struct {
	Data []deviceRecord `json:"data"`
	Meta pageMeta       `json:"meta"`
}

// Device is a single catalog entry with its private key already decoded.
type Device struct {
	ID         string
	Name       string
	PrivateKey []byte
}

// Page is one page of the device catalog.
type Page struct {
	Devices []Device
	Meta    pageMeta
}

// FetchPage requests one page of the device catalog. A page with zero
// devices means the catalog has been exhausted; callers should stop paging
// (spec §4.E step 1, §9's option-typed replacement for the
// "no more pages" exception).
func (c *Client) FetchPage(ctx context.Context, limit, page int) (*Page, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	u = u.JoinPath(c.path)
	q := u.Query()
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, helpers.ErrValidationFailure.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, helpers.ErrValidationFailure.WithDetails(fmt.Sprintf("device service returned status %d", resp.StatusCode))
	}

	var decoded pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, helpers.ErrValidationFailure.WithDetails(err.Error())
	}

	devices := make([]Device, 0, len(decoded.Data))
	for _, d := range decoded.Data {
		devices = append(devices, Device{ID: d.ID, Name: d.Name, PrivateKey: d.PrivateKey.Data})
	}

	return &Page{Devices: devices, Meta: decoded.Meta}, nil
}
