package vws

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

type databaseSummaryResponse struct {
	ResultCode         wire.ResultCode `json:"result_code"`
	TransactionID      string          `json:"transaction_id"`
	Name               string          `json:"name"`
	ActiveImages       int             `json:"active_images"`
	InactiveImages     int             `json:"inactive_images"`
	FailedImages       int             `json:"failed_images"`
	TargetQuota        int             `json:"target_quota"`
	TotalRecos         int             `json:"total_recos"`
	CurrentMonthRecos  int             `json:"current_month_recos"`
	PreviousMonthRecos int             `json:"previous_month_recos"`
	ProcessingImages   int             `json:"processing_images"`
	RecoThreshold      int             `json:"reco_threshold"`
	RequestQuota       int             `json:"request_quota"`
	RequestUsage       int             `json:"request_usage"`
}

// databaseSummary reports per-status target counts and the (unenforced)
// quota constants.
func (s *Routes) databaseSummary(w http.ResponseWriter, r *http.Request) {
	_, db, _, ok := s.begin(w, r)
	if !ok {
		return
	}

	active, inactive, failed, processing := db.CountByState(time.Now())
	wire.WriteJSON(w, http.StatusOK, databaseSummaryResponse{
		ResultCode:       wire.ResultSuccess,
		TransactionID:    wire.NewID(),
		Name:             db.Name,
		ActiveImages:     active,
		InactiveImages:   inactive,
		FailedImages:     failed,
		TargetQuota:      database.TargetQuota,
		ProcessingImages: processing,
		RecoThreshold:    database.RecoThreshold,
		RequestQuota:     database.RequestQuota,
	})
}

type targetSummaryResponse struct {
	Status             wire.TargetStatus `json:"status"`
	TransactionID      string            `json:"transaction_id"`
	ResultCode         wire.ResultCode   `json:"result_code"`
	DatabaseName       string            `json:"database_name"`
	TargetName         string            `json:"target_name"`
	UploadDate         string            `json:"upload_date"`
	ActiveFlag         bool              `json:"active_flag"`
	TrackingRating     int               `json:"tracking_rating"`
	TotalRecos         int               `json:"total_recos"`
	CurrentMonthRecos  int               `json:"current_month_recos"`
	PreviousMonthRecos int               `json:"previous_month_recos"`
}

// targetSummary reports one target's summary. The tracking rating is the
// windowed view: -1 until rating settles.
func (s *Routes) targetSummary(w http.ResponseWriter, r *http.Request) {
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
	wire.WriteJSON(w, http.StatusOK, targetSummaryResponse{
		Status:         t.Status(now),
		TransactionID:  wire.NewID(),
		ResultCode:     wire.ResultSuccess,
		DatabaseName:   db.Name,
		TargetName:     t.Name,
		UploadDate:     t.Created.UTC().Format("2006-01-02"),
		ActiveFlag:     t.Active,
		TrackingRating: t.TrackingRating(now),
	})
}
