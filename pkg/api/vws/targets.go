package vws

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/validators"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

type addTargetResponse struct {
	TransactionID string          `json:"transaction_id"`
	ResultCode    wire.ResultCode `json:"result_code"`
	TargetID      string          `json:"target_id"`
}

// addTarget registers a new target and starts its processing window.
func (s *Routes) addTarget(w http.ResponseWriter, r *http.Request) {
	_, db, upsert, ok := s.begin(w, r)
	if !ok {
		return
	}

	// Omitted active_flag defaults to true on create.
	active := true
	if upsert.ActiveFlag != nil {
		active = *upsert.ActiveFlag
	}

	now := time.Now()
	var created *target.Target
	var failure *validators.Failure
	err := s.store.WithDatabase(r.Context(), db.Name, func(live *database.Database) error {
		if live.HasTargetName(*upsert.Name, "") {
			failure = validators.JSONFailure(http.StatusForbidden, wire.ResultTargetNameExist)
			return nil
		}
		created = target.New(
			*upsert.Name,
			*upsert.Width,
			upsert.Image,
			active,
			upsert.ApplicationMetadata,
			s.processingTime,
			s.rater,
			now,
		)
		live.Targets = append(live.Targets, created)
		return nil
	})
	if err != nil {
		wire.WriteInternalError(w)
		return
	}
	if failure != nil {
		failure.Write(w)
		return
	}

	wire.WriteJSON(w, http.StatusCreated, addTargetResponse{
		TransactionID: wire.NewID(),
		ResultCode:    wire.ResultTargetCreated,
		TargetID:      created.ID,
	})
}

type targetListResponse struct {
	TransactionID string          `json:"transaction_id"`
	ResultCode    wire.ResultCode `json:"result_code"`
	Results       []string        `json:"results"`
}

// listTargets returns the identifiers of all non-deleted targets. The
// query-side deletion window does not apply here.
func (s *Routes) listTargets(w http.ResponseWriter, r *http.Request) {
	_, db, _, ok := s.begin(w, r)
	if !ok {
		return
	}

	results := []string{}
	for _, t := range db.NotDeleted() {
		results = append(results, t.ID)
	}

	wire.WriteJSON(w, http.StatusOK, targetListResponse{
		TransactionID: wire.NewID(),
		ResultCode:    wire.ResultSuccess,
		Results:       results,
	})
}

type targetRecord struct {
	TargetID       string  `json:"target_id"`
	ActiveFlag     bool    `json:"active_flag"`
	Name           string  `json:"name"`
	Width          float64 `json:"width"`
	TrackingRating int     `json:"tracking_rating"`
	RecoRating     string  `json:"reco_rating"`
}

type targetRecordResponse struct {
	ResultCode    wire.ResultCode   `json:"result_code"`
	TransactionID string            `json:"transaction_id"`
	TargetRecord  targetRecord      `json:"target_record"`
	Status        wire.TargetStatus `json:"status"`
}

// getTarget returns the record of one target. Deleted targets are gone
// from the management API immediately.
func (s *Routes) getTarget(w http.ResponseWriter, r *http.Request) {
	_, db, _, ok := s.begin(w, r)
	if !ok {
		return
	}

	t, found := db.Target(chi.URLParam(r, "targetID"))
	if !found || t.Deleted() {
		unknownTarget(w)
		return
	}

	now := time.Now()
	wire.WriteJSON(w, http.StatusOK, targetRecordResponse{
		ResultCode:    wire.ResultSuccess,
		TransactionID: wire.NewID(),
		TargetRecord: targetRecord{
			TargetID:       t.ID,
			ActiveFlag:     t.Active,
			Name:           t.Name,
			Width:          t.Width,
			TrackingRating: t.TrackingRating(now),
			RecoRating:     "",
		},
		Status: t.Status(now),
	})
}

// updateTarget applies a partial update. Updates are permitted only from a
// terminal successful status; an image change re-enters processing.
func (s *Routes) updateTarget(w http.ResponseWriter, r *http.Request) {
	_, db, upsert, ok := s.begin(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "targetID")
	now := time.Now()
	var failure *validators.Failure
	err := s.store.WithDatabase(r.Context(), db.Name, func(live *database.Database) error {
		t, found := live.Target(targetID)
		if !found || t.Deleted() {
			failure = validators.JSONFailure(http.StatusNotFound, wire.ResultUnknownTarget)
			return nil
		}
		if t.Status(now) != wire.StatusSuccess {
			failure = validators.JSONFailure(http.StatusForbidden, wire.ResultTargetStatusNotSuccess)
			return nil
		}
		if upsert.Name != nil && live.HasTargetName(*upsert.Name, t.ID) {
			failure = validators.JSONFailure(http.StatusForbidden, wire.ResultTargetNameExist)
			return nil
		}

		if upsert.Name != nil {
			t.Name = *upsert.Name
		}
		if upsert.Width != nil {
			t.Width = *upsert.Width
		}
		if upsert.ActiveFlag != nil {
			t.Active = *upsert.ActiveFlag
		}
		if upsert.ApplicationMetadata != nil {
			t.ApplicationMetadata = upsert.ApplicationMetadata
		}
		if upsert.HasImage {
			t.SetImage(upsert.Image, s.rater, now)
		} else {
			t.Touch(now)
		}
		return nil
	})
	if err != nil {
		wire.WriteInternalError(w)
		return
	}
	if failure != nil {
		failure.Write(w)
		return
	}

	wire.WriteJSON(w, http.StatusOK, struct {
		ResultCode    wire.ResultCode `json:"result_code"`
		TransactionID string          `json:"transaction_id"`
	}{wire.ResultSuccess, wire.NewID()})
}

// deleteTarget marks a target deleted. It stays query-matchable until the
// recognition and delete-processing windows elapse, but the management API
// reports it gone immediately.
func (s *Routes) deleteTarget(w http.ResponseWriter, r *http.Request) {
	_, db, _, ok := s.begin(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "targetID")
	now := time.Now()
	var failure *validators.Failure
	err := s.store.WithDatabase(r.Context(), db.Name, func(live *database.Database) error {
		t, found := live.Target(targetID)
		if !found || t.Deleted() {
			failure = validators.JSONFailure(http.StatusNotFound, wire.ResultUnknownTarget)
			return nil
		}
		if t.Status(now) == wire.StatusProcessing {
			failure = validators.JSONFailure(http.StatusForbidden, wire.ResultTargetStatusProcessing)
			return nil
		}
		t.MarkDeleted(now)
		return nil
	})
	if err != nil {
		wire.WriteInternalError(w)
		return
	}
	if failure != nil {
		failure.Write(w)
		return
	}

	wire.WriteJSON(w, http.StatusOK, wire.NewEnvelope(wire.ResultSuccess))
}
