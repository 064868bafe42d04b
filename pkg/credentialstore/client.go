// Package credentialstore is component C: a client for the shared
// credential store that holds the single CredentialBlob Apple API requests
// authenticate with. Multiple collector instances share one blob; this
// client reads it with Get and uploads a freshly minted one with Put, which
// also carries the store's schedule flag.
package credentialstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// Config configures a Client.
type Config struct {
	BaseURL  string `validate:"required"`
	APIKey   string `validate:"required"`
	ClientID string `validate:"required"`
}

// Client talks to the credential store over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	clientID   string
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if err := helpers.Check(cfg); err != nil {
		return nil, err
	}

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		clientID:   cfg.ClientID,
	}, nil
}

// putBody is the payload PUT carries: the refreshed headers, and whether the
// store should schedule a future re-fetch of its own.
type putBody struct {
	Headers              model.CredentialBlob `json:"headers"`
	ScheduleDataFetching bool                 `json:"schedule_data_fetching"`
}

// Get fetches the current CredentialBlob for the client's DEFAULT_CLIENT_MANAGING_CREDENTIALS.
func (c *Client) Get(ctx context.Context) (*model.CredentialBlob, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	var blob model.CredentialBlob
	if err := c.do(req, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// Put uploads a freshly minted CredentialBlob, optionally asking the store
// to schedule its own background re-fetch once this blob also expires.
func (c *Client) Put(ctx context.Context, blob model.CredentialBlob, scheduleDataFetching bool) error {
	req, err := c.newRequest(ctx, http.MethodPut, putBody{Headers: blob, ScheduleDataFetching: scheduleDataFetching})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method string, body any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
	}
	u = u.JoinPath(c.clientID)

	var buf io.Reader
	if body != nil {
		b := new(bytes.Buffer)
		if err := json.NewEncoder(b).Encode(body); err != nil {
			return nil, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
		}
		buf = b
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return nil, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	return req, nil
}

func (c *Client) do(req *http.Request, reply any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return helpers.ErrCredentialsUnavailable.WithDetails(fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	if reply == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(reply); err != nil {
		return helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
	}
	return nil
}
