package vws

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/wire"
)

type duplicatesResponse struct {
	TransactionID  string          `json:"transaction_id"`
	ResultCode     wire.ResultCode `json:"result_code"`
	SimilarTargets []string        `json:"similar_targets"`
}

// getDuplicates returns the IDs of other targets whose images match the
// subject's image under the active matcher. Candidates must be successful,
// active and not deleted; the subject itself need not be active, but a
// failed subject has no duplicates.
func (s *Routes) getDuplicates(w http.ResponseWriter, r *http.Request) {
	_, db, _, ok := s.begin(w, r)
	if !ok {
		return
	}

	subject, found := db.Target(chi.URLParam(r, "targetID"))
	if !found || subject.Deleted() {
		unknownTarget(w)
		return
	}

	now := time.Now()
	similar := []string{}
	if subject.Status(now) != wire.StatusFailed {
		for _, other := range db.Targets {
			if other.ID == subject.ID || other.Deleted() || !other.Active {
				continue
			}
			if other.Status(now) != wire.StatusSuccess {
				continue
			}
			if s.matcher.Matches(subject.Image, other.Image) {
				similar = append(similar, other.ID)
			}
		}
	}

	wire.WriteJSON(w, http.StatusOK, duplicatesResponse{
		TransactionID:  wire.NewID(),
		ResultCode:     wire.ResultSuccess,
		SimilarTargets: similar,
	})
}
