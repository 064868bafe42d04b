package applefetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/logger"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// appleEndpoint is Apple's acsnservice fetch endpoint.
const appleEndpoint = "https://gateway.icloud.com/acsnservice/fetch"

// Dispatch loop constants (spec §4.D.2).
const (
	MaxAttemptsPerPayload  = 2
	MaxCredentialRefreshes = 10
	RefreshWaitSeconds     = 1
)

// CredentialsSource supplies the current CredentialBlob on demand. Calling
// Get again after a prior call is how the dispatch loop "refreshes"
// credentials: the store itself is refreshed out of band.
// credentialstore.Client satisfies this interface directly.
type CredentialsSource interface {
	Get(ctx context.Context) (*model.CredentialBlob, error)
}

// Result is the merged outcome of a Dispatch call.
type Result struct {
	Locations  []model.RawLocation
	StatusCode string
}

// Engine dispatches a batch plan against Apple's acsnservice.
type Engine struct {
	httpClient  *http.Client
	credentials CredentialsSource
	sleep       func(time.Duration)
	endpoint    string
	log         *logger.Log
}

// NewEngine constructs an Engine backed by credentials. The engine logs
// through a bootstrap logger until SetLogger injects a configured one.
func NewEngine(credentials CredentialsSource) *Engine {
	return &Engine{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		credentials: credentials,
		sleep:       time.Sleep,
		endpoint:    appleEndpoint,
		log:         logger.NewSimple("applefetch"),
	}
}

// SetLogger replaces the engine's logger; callers that already have a
// configured logger should inject it here instead of relying on the
// bootstrap default.
func (e *Engine) SetLogger(log *logger.Log) {
	e.log = log
}

// appleResponse is the decoded shape of a single Apple acsnservice response.
type appleResponse struct {
	Results    []model.RawLocation `json:"results"`
	StatusCode string               `json:"statusCode"`
	Error      string               `json:"error,omitempty"`
}

type queuedEntry struct {
	entry    PlanEntry
	attempts int
}

// SetEndpoint overrides the Apple acsnservice URL; used by tests to point
// the engine at a local server.
func (e *Engine) SetEndpoint(url string) {
	e.endpoint = url
}

// Dispatch runs plan to completion per the state machine in spec §4.D.2,
// requeueing retried entries at the front of the queue so their latency
// never compounds behind untried entries. Successful results are merged in
// dispatch order under a synthetic "200" status (spec §4.D.3).
//
// A retry condition of `attempts < MaxAttemptsPerPayload` (rather than the
// naive `<=`) is what keeps the worst case at exactly
// MaxAttemptsPerPayload+1 dispatches per entry, matching scenario 4 and the
// retry-budget invariant (spec §8).
func (e *Engine) Dispatch(ctx context.Context, plan []PlanEntry) (*Result, error) {
	queue := make([]queuedEntry, len(plan))
	for i, p := range plan {
		queue[i] = queuedEntry{entry: p}
	}

	creds, err := e.credentials.Get(ctx)
	if err != nil {
		return nil, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
	}

	refreshes := 0
	var results []model.RawLocation

	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]

		resp, status, postErr := e.post(ctx, creds, q.entry)
		if postErr != nil {
			creds, err = e.credentials.Get(ctx)
			if err != nil {
				return &Result{Locations: results, StatusCode: "200"}, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
			}
			if q.attempts < MaxAttemptsPerPayload {
				q.attempts++
				queue = append([]queuedEntry{q}, queue...)
			} else {
				e.log.Info("dropping payload after exhausting attempt budget", "ids", q.entry.IDs, "reason", "transport error")
			}
			continue
		}

		if status >= 200 && status < 300 {
			results = append(results, resp.Results...)
			continue
		}

		if status == http.StatusUnauthorized {
			e.sleep(RefreshWaitSeconds * time.Second)

			if refreshes == MaxCredentialRefreshes {
				return &Result{Locations: results, StatusCode: "200"}, helpers.ErrBudgetExhausted
			}
			refreshes++

			creds, err = e.credentials.Get(ctx)
			if err != nil {
				return &Result{Locations: results, StatusCode: "200"}, helpers.ErrCredentialsUnavailable.WithDetails(err.Error())
			}

			if q.attempts < MaxAttemptsPerPayload {
				q.attempts++
				queue = append([]queuedEntry{q}, queue...)
			} else {
				e.log.Info("dropping payload after exhausting attempt budget", "ids", q.entry.IDs, "reason", "401 after refresh")
			}
			continue
		}

		if q.attempts < MaxAttemptsPerPayload {
			q.attempts++
			queue = append([]queuedEntry{q}, queue...)
		} else {
			e.log.Info("dropping payload after exhausting attempt budget", "ids", q.entry.IDs, "status", status)
		}
	}

	return &Result{Locations: results, StatusCode: "200"}, nil
}

func (e *Engine) post(ctx context.Context, creds *model.CredentialBlob, entry PlanEntry) (*appleResponse, int, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(entry.body()); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, buf)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range creds.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var decoded appleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// a non-JSON body (e.g. a plain 401 page) still carries a usable
		// status code; treat it as an empty response rather than a
		// transport exception.
		return &appleResponse{StatusCode: ""}, resp.StatusCode, nil
	}
	return &decoded, resp.StatusCode, nil
}
