// Package vws implements the target-management API: registering, listing,
// updating and deleting image targets, plus the summary and duplicate
// reports.
//
// Fake implementation of
// https://library.vuforia.com/web-api/cloud-targets-web-services-api
package vws

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/auth"
	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/matchers"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/validators"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Routes holds the collaborators of the management API.
type Routes struct {
	store          *store.Memory
	matcher        matchers.ImageMatcher
	rater          raters.TargetRater
	processingTime time.Duration
}

// Router creates the management API router. processingTime is the
// simulated duration each submitted image "processes" for; in the real
// service it is not deterministic.
func Router(
	st *store.Memory,
	matcher matchers.ImageMatcher,
	rater raters.TargetRater,
	processingTime time.Duration,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	routes := &Routes{
		store:          st,
		matcher:        matcher,
		rater:          rater,
		processingTime: processingTime,
	}

	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Post("/targets", routes.addTarget)
	r.Get("/targets", routes.listTargets)
	r.Get("/targets/{targetID}", routes.getTarget)
	r.Put("/targets/{targetID}", routes.updateTarget)
	r.Delete("/targets/{targetID}", routes.deleteTarget)
	r.Get("/summary", routes.databaseSummary)
	r.Get("/summary/{targetID}", routes.targetSummary)
	r.Get("/duplicates/{targetID}", routes.getDuplicates)
	return r
}

// begin reads the request, runs the validator chain and resolves the
// owning database from a store snapshot. On failure it has already
// written the response and returns ok=false.
func (s *Routes) begin(w http.ResponseWriter, r *http.Request) (
	req *validators.Request,
	db *database.Database,
	upsert *validators.TargetUpsert,
	ok bool,
) {
	req, err := validators.FromHTTP(r)
	if err != nil {
		wire.WriteInternalError(w)
		return nil, nil, nil, false
	}

	databases, err := s.store.Databases(r.Context())
	if err != nil {
		wire.WriteInternalError(w)
		return nil, nil, nil, false
	}

	upsert, failure := validators.RunServices(req, databases, time.Now())
	if failure != nil {
		failure.Write(w)
		return nil, nil, nil, false
	}

	// The chain has already authenticated; resolving again cannot fail.
	db, err = auth.MatchServerKeys(req.Method, req.Path, req.Body, req.Header, databases)
	if err != nil {
		wire.WriteInternalError(w)
		return nil, nil, nil, false
	}
	return req, db, upsert, true
}

func unknownTarget(w http.ResponseWriter) {
	validators.JSONFailure(http.StatusNotFound, wire.ResultUnknownTarget).Write(w)
}
