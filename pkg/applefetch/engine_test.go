package applefetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCredentials struct {
	gets int32
}

func (f *fakeCredentials) Get(ctx context.Context) (*model.CredentialBlob, error) {
	atomic.AddInt32(&f.gets, 1)
	return &model.CredentialBlob{Authorization: "Bearer test"}, nil
}

// TestDispatchMergesSuccessfulResponses matches spec.md §8's merge invariant.
func TestDispatchMergesSuccessfulResponses(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(appleResponse{
			Results:    []model.RawLocation{{ID: "loc", Description: "x"}},
			StatusCode: "200",
		})
		_ = n
	}))
	defer srv.Close()

	e := NewEngine(&fakeCredentials{})
	e.sleep = func(time.Duration) {}
	e.endpoint = srv.URL

	plan := []PlanEntry{{IDs: []string{"a"}}, {IDs: []string{"b"}}}
	result, err := e.Dispatch(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, "200", result.StatusCode)
	assert.Len(t, result.Locations, 2)
	assert.EqualValues(t, 2, calls)
}

// TestDispatchRetriesOn401ThenSucceeds matches spec.md §8 scenario 4: Apple
// returns 401 twice then 200; credentials are refreshed twice; total Apple
// calls for the entry = 3.
func TestDispatchRetriesOn401ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(appleResponse{
			Results:    []model.RawLocation{{ID: "loc"}},
			StatusCode: "200",
		})
	}))
	defer srv.Close()

	creds := &fakeCredentials{}
	e := NewEngine(creds)
	e.sleep = func(time.Duration) {}
	e.endpoint = srv.URL

	plan := []PlanEntry{{IDs: []string{"a"}}}
	result, err := e.Dispatch(context.Background(), plan)
	require.NoError(t, err)
	assert.Len(t, result.Locations, 1)
	assert.EqualValues(t, 3, calls)
	// one initial Get plus two refreshes
	assert.EqualValues(t, 3, atomic.LoadInt32(&creds.gets))
}

// TestDispatchDropsEntryAfterAttemptBudget verifies no single entry is
// dispatched more than MaxAttemptsPerPayload+1 times.
func TestDispatchDropsEntryAfterAttemptBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewEngine(&fakeCredentials{})
	e.sleep = func(time.Duration) {}
	e.endpoint = srv.URL

	plan := []PlanEntry{{IDs: []string{"a"}}}
	result, err := e.Dispatch(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, result.Locations)
	assert.EqualValues(t, MaxAttemptsPerPayload+1, calls)
}

// TestDispatchAbortsAfterCredentialRefreshBudget verifies the dispatch loop
// surfaces ErrBudgetExhausted once the credential refresh budget is spent,
// returning whatever successes accumulated.
func TestDispatchAbortsAfterCredentialRefreshBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	e := NewEngine(&fakeCredentials{})
	e.sleep = func(time.Duration) {}
	e.endpoint = srv.URL

	// each entry is dispatched MaxAttemptsPerPayload+1 = 3 times, one refresh
	// per 401, so four entries are needed to reach MaxCredentialRefreshes.
	plan := []PlanEntry{{IDs: []string{"a"}}, {IDs: []string{"b"}}, {IDs: []string{"c"}}, {IDs: []string{"d"}}}
	_, err := e.Dispatch(context.Background(), plan)
	assert.Error(t, err)
}
