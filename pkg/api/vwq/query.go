// Package vwq implements the query API: submitting a query image and
// receiving the IDs of matching targets.
//
// Fake implementation of
// https://library.vuforia.com/web-api/vuforia-query-web-api
package vwq

import (
	"encoding/base64"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/auth"
	"github.com/konstin/vws-python-mock/pkg/matchers"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/validators"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Routes holds the collaborators of the query API.
type Routes struct {
	source  store.Source
	matcher matchers.ImageMatcher
	// recognitionWindow is how long after deletion a target still appears
	// in query results; processingWindow is the contiguous period after it
	// during which a match produces the canned 500.
	recognitionWindow time.Duration
	processingWindow  time.Duration
}

// Router creates the query API router.
func Router(
	source store.Source,
	matcher matchers.ImageMatcher,
	recognitionWindow time.Duration,
	processingWindow time.Duration,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	routes := &Routes{
		source:            source,
		matcher:           matcher,
		recognitionWindow: recognitionWindow,
		processingWindow:  processingWindow,
	}

	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Post("/v1/query", routes.query)
	return r
}

type targetData struct {
	TargetTimestamp     int64   `json:"target_timestamp"`
	Name                string  `json:"name"`
	ApplicationMetadata *string `json:"application_metadata"`
}

type queryResult struct {
	TargetID   string      `json:"target_id"`
	TargetData *targetData `json:"target_data,omitempty"`
}

type queryResponse struct {
	ResultCode wire.ResultCode `json:"result_code"`
	Results    []queryResult   `json:"results"`
	QueryID    string          `json:"query_id"`
}

// query performs an image recognition query against the live target set.
func (s *Routes) query(w http.ResponseWriter, r *http.Request) {
	req, err := validators.FromHTTP(r)
	if err != nil {
		wire.WriteInternalError(w)
		return
	}

	databases, err := s.source.Databases(r.Context())
	if err != nil {
		wire.WriteInternalError(w)
		return
	}

	now := time.Now()
	form, failure := validators.RunQuery(req, databases, now)
	if failure != nil {
		failure.Write(w)
		return
	}

	db, err := auth.MatchClientKeys(req.Method, req.Path, req.Body, req.Header, databases)
	if err != nil {
		wire.WriteInternalError(w)
		return
	}

	var (
		matches           []*target.Target
		matchInProcessing bool
	)
	for _, t := range db.Targets {
		if !s.matcher.Matches(t.Image, form.Image) {
			continue
		}
		if t.Deleted() {
			if !t.Active {
				continue
			}
			sinceDelete := now.Sub(*t.DeleteDate)
			switch {
			case sinceDelete < s.recognitionWindow:
				// Deletion not recognized yet; the target still matches.
				matches = append(matches, t)
			case sinceDelete < s.recognitionWindow+s.processingWindow:
				matchInProcessing = true
			}
			continue
		}
		switch t.Status(now) {
		case wire.StatusProcessing:
			matchInProcessing = true
		case wire.StatusSuccess:
			if t.Active {
				matches = append(matches, t)
			}
		}
	}

	if matchInProcessing {
		// The real service is non-deterministic here; the mock always
		// returns the canned 500.
		wire.WriteMatchProcessing(w)
		return
	}

	sort.SliceStable(matches, func(i, j int) bool {
		ri, rj := matches[i].TrackingRating(now), matches[j].TrackingRating(now)
		if ri != rj {
			return ri > rj
		}
		return matches[i].LastModified.After(matches[j].LastModified)
	})
	if len(matches) > form.MaxNumResults {
		matches = matches[:form.MaxNumResults]
	}

	results := []queryResult{}
	for i, t := range matches {
		result := queryResult{TargetID: t.ID}
		if form.IncludeTargetData == "all" || (form.IncludeTargetData == "top" && i == 0) {
			result.TargetData = &targetData{
				TargetTimestamp:     t.LastModified.Unix(),
				Name:                t.Name,
				ApplicationMetadata: reencodedMetadata(t.ApplicationMetadata),
			}
		}
		results = append(results, result)
	}

	wire.WriteJSON(w, http.StatusOK, queryResponse{
		ResultCode: wire.ResultSuccess,
		Results:    results,
		QueryID:    wire.NewID(),
	})
}

// reencodedMetadata normalizes stored application metadata to canonical
// base64, as the real service returns it.
func reencodedMetadata(metadata *string) *string {
	if metadata == nil {
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(*metadata)
	if err != nil {
		// Metadata was validated on the way in; treat as opaque.
		return metadata
	}
	normalized := base64.StdEncoding.EncodeToString(decoded)
	return &normalized
}
