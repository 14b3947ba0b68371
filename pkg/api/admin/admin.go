// Package admin implements the out-of-band control surface of the mock:
// creating and listing databases, seeding and removing targets without the
// authenticated APIs, resetting all state, and the metrics scrape endpoint.
// It carries no Vuforia semantics and no signature authentication.
package admin

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/telemetry"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Routes holds the collaborators of the admin API.
type Routes struct {
	store *store.Memory
}

// Router creates the admin API router.
func Router(st *store.Memory, middlewares ...func(http.Handler) http.Handler) http.Handler {
	routes := &Routes{store: st}

	r := chi.NewRouter()
	r.Use(middlewares...)
	r.Post("/reset", routes.reset)
	r.Get("/databases", routes.listDatabases)
	r.Post("/databases", routes.createDatabase)
	r.Post("/databases/{databaseName}/targets", routes.createTarget)
	r.Delete("/databases/{databaseName}/targets/{targetID}", routes.deleteTarget)
	r.Handle("/metrics", telemetry.Handler())
	return r
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeAdminJSON(w, status, errorBody{Error: err.Error()})
}

// writeAdminJSON is plain JSON without the Vuforia header dressing; the
// admin surface does not imitate the real services.
func writeAdminJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// reset drops all databases and their targets.
func (s *Routes) reset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset(r.Context())
	w.WriteHeader(http.StatusOK)
}

// listDatabases dumps every database, credentials and targets included.
// The query service's HTTP-backed store reads this endpoint.
func (s *Routes) listDatabases(w http.ResponseWriter, r *http.Request) {
	databases, err := s.store.Databases(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	records := make([]database.Record, len(databases))
	for i, d := range databases {
		records[i] = d.ToRecord()
	}
	writeAdminJSON(w, http.StatusOK, records)
}

// createDatabase registers a database. Fields absent from the request body
// get random defaults; an empty body creates a fully random database.
func (s *Routes) createDatabase(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	db := database.New()
	if len(body) > 0 {
		var record database.Record
		if err := json.Unmarshal(body, &record); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if record.DatabaseName != "" {
			db.Name = record.DatabaseName
		}
		if record.ServerAccessKey != "" {
			db.ServerAccessKey = record.ServerAccessKey
		}
		if record.ServerSecretKey != "" {
			db.ServerSecretKey = record.ServerSecretKey
		}
		if record.ClientAccessKey != "" {
			db.ClientAccessKey = record.ClientAccessKey
		}
		if record.ClientSecretKey != "" {
			db.ClientSecretKey = record.ClientSecretKey
		}
		if record.StateName != "" {
			db.State = wire.ProjectState(record.StateName)
		}
		for _, tr := range record.Targets {
			t, err := target.FromRecord(withTargetDefaults(tr))
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			db.Targets = append(db.Targets, t)
		}
	}

	if err := s.store.Add(r.Context(), db); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeAdminJSON(w, http.StatusCreated, db.ToRecord())
}

// createTarget seeds a target into a database, bypassing the management
// API's validators. Missing identity and timestamp fields are defaulted.
func (s *Routes) createTarget(w http.ResponseWriter, r *http.Request) {
	var record target.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := target.FromRecord(withTargetDefaults(record))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.store.WithDatabase(r.Context(), chi.URLParam(r, "databaseName"), func(live *database.Database) error {
		if live.HasTargetName(t.Name, "") {
			return errors.New("target name already in use")
		}
		live.Targets = append(live.Targets, t)
		return nil
	})
	switch {
	case errors.Is(err, store.ErrDatabaseNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusConflict, err)
		return
	}
	writeAdminJSON(w, http.StatusCreated, t.ToRecord())
}

// deleteTarget removes a target immediately, with no deletion windows.
func (s *Routes) deleteTarget(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "targetID")
	err := s.store.WithDatabase(r.Context(), chi.URLParam(r, "databaseName"), func(live *database.Database) error {
		for i, t := range live.Targets {
			if t.ID == targetID {
				live.Targets = append(live.Targets[:i], live.Targets[i+1:]...)
				return nil
			}
		}
		return errors.New("target not found")
	})
	switch {
	case errors.Is(err, store.ErrDatabaseNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func withTargetDefaults(r target.Record) target.Record {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if r.TargetID == "" {
		r.TargetID = wire.NewID()
	}
	if r.UploadDate == "" {
		r.UploadDate = now
	}
	if r.LastModifiedDate == "" {
		r.LastModifiedDate = r.UploadDate
	}
	if r.ProcessingStartDate == "" {
		r.ProcessingStartDate = r.LastModifiedDate
	}
	return r
}
