package vwq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konstin/vws-python-mock/pkg/api/vwq"
	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/matchers"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/testkit"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

const (
	processingTime    = 100 * time.Millisecond
	recognitionWindow = 200 * time.Millisecond
	processingWindow  = 500 * time.Millisecond
)

type fixture struct {
	memory *store.Memory
	router http.Handler
	db     *database.Database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	memory := store.NewMemory()
	db := database.New()
	require.NoError(t, memory.Add(context.Background(), db))
	return &fixture{
		memory: memory,
		router: vwq.Router(memory, matchers.Exact{}, recognitionWindow, processingWindow),
		db:     db,
	}
}

// seed plants a target whose processing started in the past, so queries
// observe a settled status without sleeping.
func (f *fixture) seed(t *testing.T, name string, image []byte, mutate func(*target.Target)) string {
	t.Helper()
	created := target.New(
		name, 1, image, true, nil,
		processingTime, raters.Quality{}, time.Now().Add(-time.Second),
	)
	if mutate != nil {
		mutate(created)
	}
	require.NoError(t, f.memory.WithDatabase(context.Background(), f.db.Name, func(live *database.Database) error {
		live.Targets = append(live.Targets, created)
		return nil
	}))
	return created.ID
}

type queryResponse struct {
	ResultCode wire.ResultCode `json:"result_code"`
	Results    []struct {
		TargetID   string `json:"target_id"`
		TargetData *struct {
			TargetTimestamp     int64   `json:"target_timestamp"`
			Name                string  `json:"name"`
			ApplicationMetadata *string `json:"application_metadata"`
		} `json:"target_data"`
	} `json:"results"`
	QueryID string `json:"query_id"`
}

func (f *fixture) query(t *testing.T, image []byte, extraFields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType, err := testkit.QueryBody(image, extraFields)
	require.NoError(t, err)
	req, err := testkit.NewSignedRequest(f.db, testkit.ClientKeys, http.MethodPost, "/v1/query", "/v1/query", contentType, body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeQuery(t *testing.T, rec *httptest.ResponseRecorder) queryResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, wire.ResultSuccess, resp.ResultCode)
	require.Len(t, resp.QueryID, 32)
	return resp
}

func TestQueryMatchesSettledTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	image := testkit.HighContrastPNG(1)
	targetID := f.seed(t, "match-me", image, nil)
	f.seed(t, "someone-else", testkit.HighContrastPNG(2), nil)

	resp := decodeQuery(t, f.query(t, image, nil))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, targetID, resp.Results[0].TargetID)
	require.NotNil(t, resp.Results[0].TargetData)
	assert.Equal(t, "match-me", resp.Results[0].TargetData.Name)
	assert.Nil(t, resp.Results[0].TargetData.ApplicationMetadata)
	assert.NotZero(t, resp.Results[0].TargetData.TargetTimestamp)
}

func TestQueryReturnsMetadata(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	image := testkit.HighContrastPNG(1)
	metadata := "bXkgbWV0YWRhdGE="
	f.seed(t, "annotated", image, func(tg *target.Target) {
		tg.ApplicationMetadata = &metadata
	})

	resp := decodeQuery(t, f.query(t, image, nil))
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].TargetData)
	require.NotNil(t, resp.Results[0].TargetData.ApplicationMetadata)
	assert.Equal(t, metadata, *resp.Results[0].TargetData.ApplicationMetadata)
}

func TestQueryNoMatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.seed(t, "lonely", testkit.HighContrastPNG(1), nil)

	resp := decodeQuery(t, f.query(t, testkit.HighContrastPNG(2), nil))
	assert.Empty(t, resp.Results)
}

func TestQueryIgnoresInactiveAndFailedTargets(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	image := testkit.HighContrastPNG(1)
	f.seed(t, "switched-off", image, func(tg *target.Target) {
		tg.Active = false
	})

	resp := decodeQuery(t, f.query(t, image, nil))
	assert.Empty(t, resp.Results)
}

func TestQueryDuringProcessing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	image := testkit.HighContrastPNG(1)
	f.seed(t, "in-flight", image, func(tg *target.Target) {
		tg.ProcessingStart = time.Now()
	})

	rec := f.query(t, image, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "text/html; charset=ISO-8859-1", rec.Header().Get("Content-Type"))
	assert.Equal(t, "must-revalidate,no-cache,no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "HTTP ERROR 500")
}

func TestQueryDeletionWindows(t *testing.T) {
	t.Parallel()

	image := testkit.HighContrastPNG(1)

	t.Run("deletion not yet recognized", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		targetID := f.seed(t, "just-deleted", image, func(tg *target.Target) {
			tg.MarkDeleted(time.Now())
		})

		resp := decodeQuery(t, f.query(t, image, nil))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, targetID, resp.Results[0].TargetID)
	})

	t.Run("inside the delete-processing window", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seed(t, "mid-deletion", image, func(tg *target.Target) {
			tg.MarkDeleted(time.Now().Add(-recognitionWindow - 50*time.Millisecond))
		})

		rec := f.query(t, image, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "HTTP ERROR 500")
	})

	t.Run("after both windows", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.seed(t, "long-gone", image, func(tg *target.Target) {
			tg.MarkDeleted(time.Now().Add(-recognitionWindow - processingWindow - 50*time.Millisecond))
		})

		resp := decodeQuery(t, f.query(t, image, nil))
		assert.Empty(t, resp.Results)
	})
}

func TestQueryMaxNumResultsAndTargetData(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	image := testkit.HighContrastPNG(1)
	for _, name := range []string{"a", "b", "c"} {
		f.seed(t, name, image, nil)
	}

	t.Run("default returns one result with data", func(t *testing.T) {
		t.Parallel()
		resp := decodeQuery(t, f.query(t, image, nil))
		require.Len(t, resp.Results, 1)
		assert.NotNil(t, resp.Results[0].TargetData)
	})

	t.Run("all results, data only on the top one by default", func(t *testing.T) {
		t.Parallel()
		resp := decodeQuery(t, f.query(t, image, map[string]string{"max_num_results": "10"}))
		require.Len(t, resp.Results, 3)
		assert.NotNil(t, resp.Results[0].TargetData)
		assert.Nil(t, resp.Results[1].TargetData)
		assert.Nil(t, resp.Results[2].TargetData)
	})

	t.Run("include_target_data all", func(t *testing.T) {
		t.Parallel()
		resp := decodeQuery(t, f.query(t, image, map[string]string{
			"max_num_results":     "10",
			"include_target_data": "all",
		}))
		require.Len(t, resp.Results, 3)
		for _, result := range resp.Results {
			assert.NotNil(t, result.TargetData)
		}
	})

	t.Run("include_target_data none", func(t *testing.T) {
		t.Parallel()
		resp := decodeQuery(t, f.query(t, image, map[string]string{
			"max_num_results":     "10",
			"include_target_data": "none",
		}))
		require.Len(t, resp.Results, 3)
		for _, result := range resp.Results {
			assert.Nil(t, result.TargetData)
		}
	})
}

func TestQueryAuthFailurePrecedesBodyValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// The body is not even a valid image, but the missing Authorization
	// header is reported first.
	body, contentType, err := testkit.QueryBody([]byte("not an image"), nil)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(string(body)))
	require.NoError(t, err)
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "text/plain;charset=iso-8859-1", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Authorization header missing.", rec.Body.String())
}

func TestQueryInactiveProject(t *testing.T) {
	t.Parallel()

	memory := store.NewMemory()
	db := database.New()
	db.State = wire.StateInactive
	require.NoError(t, memory.Add(context.Background(), db))
	f := &fixture{
		memory: memory,
		router: vwq.Router(memory, matchers.Exact{}, recognitionWindow, processingWindow),
		db:     db,
	}

	rec := f.query(t, testkit.HighContrastPNG(1), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var envelope wire.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, wire.ResultInactiveProject, envelope.ResultCode)
}
