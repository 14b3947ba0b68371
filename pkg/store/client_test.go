package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/testkit"
)

func TestClientDatabases(t *testing.T) {
	t.Parallel()

	db := database.New()
	db.Targets = append(db.Targets, target.New(
		"remote", 1, testkit.HighContrastPNG(1), true, nil,
		time.Second, raters.Quality{}, time.Now(),
	))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/databases", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]database.Record{db.ToRecord()})
	}))
	defer server.Close()

	client := store.NewClient(server.URL)
	databases, err := client.Databases(context.Background())
	require.NoError(t, err)
	require.Len(t, databases, 1)

	got := databases[0]
	assert.Equal(t, db.Name, got.Name)
	assert.Equal(t, db.ClientAccessKey, got.ClientAccessKey)
	require.Len(t, got.Targets, 1)
	assert.Equal(t, "remote", got.Targets[0].Name)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]database.Record{})
	}))
	defer server.Close()

	client := store.NewClient(server.URL)
	databases, err := client.Databases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, databases)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientGivesUpAfterMaxTries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := store.NewClient(server.URL)
	_, err := client.Databases(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load())
}
