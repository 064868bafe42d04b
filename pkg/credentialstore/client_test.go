package credentialstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/space-invader-mac", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(model.CredentialBlob{Authorization: "Bearer xyz"})
	}))
	defer srv.Close()

	c, err := New(&Config{BaseURL: srv.URL, APIKey: "test-key", ClientID: "space-invader-mac"})
	require.NoError(t, err)

	blob, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer xyz", blob.Authorization)
}

func TestGetSurfacesStoreError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c, err := New(&Config{BaseURL: srv.URL, APIKey: "test-key", ClientID: "space-invader-mac"})
	require.NoError(t, err)

	_, err = c.Get(context.Background())
	assert.Error(t, err)
}

func TestPutSendsHeadersAndScheduleFlag(t *testing.T) {
	var got putBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(&Config{BaseURL: srv.URL, APIKey: "test-key", ClientID: "space-invader-mac"})
	require.NoError(t, err)

	blob := model.CredentialBlob{Authorization: "Bearer refreshed"}
	err = c.Put(context.Background(), blob, true)
	require.NoError(t, err)

	assert.Equal(t, "Bearer refreshed", got.Headers.Authorization)
	assert.True(t, got.ScheduleDataFetching)
}

func TestNewRejectsMissingFields(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}
