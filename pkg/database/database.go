// Package database models a mock Vuforia database: a named tenant with
// four credentials, a project state and an ordered target collection.
package database

import (
	"time"

	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// Quota constants reported by the database summary. The mock never
// enforces them.
const (
	TargetQuota   = 1000
	RequestQuota  = 100000
	RecoThreshold = 1000
)

// Database holds credentials for both APIs and the targets they manage.
type Database struct {
	Name            string
	ServerAccessKey string
	ServerSecretKey string
	ClientAccessKey string
	ClientSecretKey string
	State           wire.ProjectState
	Targets         []*target.Target
}

// New returns a working database with random name and credentials.
func New() *Database {
	return &Database{
		Name:            wire.NewID(),
		ServerAccessKey: wire.NewID(),
		ServerSecretKey: wire.NewID(),
		ClientAccessKey: wire.NewID(),
		ClientSecretKey: wire.NewID(),
		State:           wire.StateWorking,
	}
}

// Target returns the target with the given ID.
func (d *Database) Target(id string) (*target.Target, bool) {
	for _, t := range d.Targets {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// HasTargetName reports whether a non-deleted target other than excludeID
// already uses the given name. Name uniqueness is per database.
func (d *Database) HasTargetName(name, excludeID string) bool {
	for _, t := range d.Targets {
		if t.ID != excludeID && !t.Deleted() && t.Name == name {
			return true
		}
	}
	return false
}

// NotDeleted returns all targets without a deletion timestamp.
func (d *Database) NotDeleted() []*target.Target {
	var out []*target.Target
	for _, t := range d.Targets {
		if !t.Deleted() {
			out = append(out, t)
		}
	}
	return out
}

// CountByState returns the summary counters at the given instant: active
// and inactive successes, failed, and processing targets, all among
// non-deleted targets.
func (d *Database) CountByState(now time.Time) (active, inactive, failed, processing int) {
	for _, t := range d.NotDeleted() {
		switch t.Status(now) {
		case wire.StatusSuccess:
			if t.Active {
				active++
			} else {
				inactive++
			}
		case wire.StatusFailed:
			failed++
		case wire.StatusProcessing:
			processing++
		}
	}
	return active, inactive, failed, processing
}

// Clone returns a deep-enough copy for lock-free reading.
func (d *Database) Clone() *Database {
	c := *d
	c.Targets = make([]*target.Target, len(d.Targets))
	for i, t := range d.Targets {
		c.Targets[i] = t.Clone()
	}
	return &c
}

// Record is the wire form used by the target-manager seam.
type Record struct {
	DatabaseName    string          `json:"database_name"`
	ServerAccessKey string          `json:"server_access_key"`
	ServerSecretKey string          `json:"server_secret_key"`
	ClientAccessKey string          `json:"client_access_key"`
	ClientSecretKey string          `json:"client_secret_key"`
	StateName       string          `json:"state_name"`
	Targets         []target.Record `json:"targets"`
}

// ToRecord dumps the database for transport.
func (d *Database) ToRecord() Record {
	targets := make([]target.Record, len(d.Targets))
	for i, t := range d.Targets {
		targets[i] = t.ToRecord()
	}
	return Record{
		DatabaseName:    d.Name,
		ServerAccessKey: d.ServerAccessKey,
		ServerSecretKey: d.ServerSecretKey,
		ClientAccessKey: d.ClientAccessKey,
		ClientSecretKey: d.ClientSecretKey,
		StateName:       string(d.State),
		Targets:         targets,
	}
}

// FromRecord reconstructs a database from its wire form.
func FromRecord(r Record) (*Database, error) {
	d := &Database{
		Name:            r.DatabaseName,
		ServerAccessKey: r.ServerAccessKey,
		ServerSecretKey: r.ServerSecretKey,
		ClientAccessKey: r.ClientAccessKey,
		ClientSecretKey: r.ClientSecretKey,
		State:           wire.ProjectState(r.StateName),
	}
	if d.State == "" {
		d.State = wire.StateWorking
	}
	for _, tr := range r.Targets {
		t, err := target.FromRecord(tr)
		if err != nil {
			return nil, err
		}
		d.Targets = append(d.Targets, t)
	}
	return d, nil
}
