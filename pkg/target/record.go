package target

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/konstin/vws-python-mock/pkg/raters"
)

// Record is the wire form of a target used by the target-manager seam and
// the HTTP-backed store reader.
type Record struct {
	TargetID              string  `json:"target_id"`
	Name                  string  `json:"name"`
	Width                 float64 `json:"width"`
	ImageBase64           string  `json:"image_base64"`
	ActiveFlag            bool    `json:"active_flag"`
	ApplicationMetadata   *string `json:"application_metadata"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	UploadDate            string  `json:"upload_date"`
	LastModifiedDate      string  `json:"last_modified_date"`
	ProcessingStartDate   string  `json:"processing_start_date"`
	DeleteDateOptional    *string `json:"delete_date_optional"`
	TrackingRating        int     `json:"tracking_rating"`
}

// ToRecord dumps the target for transport. The embedded tracking rating is
// the rater's cached value, not the windowed view.
func (t *Target) ToRecord() Record {
	var deleteDate *string
	if t.DeleteDate != nil {
		s := t.DeleteDate.UTC().Format(time.RFC3339Nano)
		deleteDate = &s
	}
	return Record{
		TargetID:              t.ID,
		Name:                  t.Name,
		Width:                 t.Width,
		ImageBase64:           base64.StdEncoding.EncodeToString(t.Image),
		ActiveFlag:            t.Active,
		ApplicationMetadata:   t.ApplicationMetadata,
		ProcessingTimeSeconds: t.ProcessingTime.Seconds(),
		UploadDate:            t.Created.UTC().Format(time.RFC3339Nano),
		LastModifiedDate:      t.LastModified.UTC().Format(time.RFC3339Nano),
		ProcessingStartDate:   t.ProcessingStart.UTC().Format(time.RFC3339Nano),
		DeleteDateOptional:    deleteDate,
		TrackingRating:        t.rating,
	}
}

// FromRecord reconstructs a target from its wire form. The cached rating is
// restored via a hardcoded rater so remote readers report the same rating
// as the owning process.
func FromRecord(r Record) (*Target, error) {
	image, err := base64.StdEncoding.DecodeString(r.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("decoding target image: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, r.UploadDate)
	if err != nil {
		return nil, fmt.Errorf("parsing upload date: %w", err)
	}
	lastModified, err := time.Parse(time.RFC3339Nano, r.LastModifiedDate)
	if err != nil {
		return nil, fmt.Errorf("parsing last modified date: %w", err)
	}
	processingStart := lastModified
	if r.ProcessingStartDate != "" {
		processingStart, err = time.Parse(time.RFC3339Nano, r.ProcessingStartDate)
		if err != nil {
			return nil, fmt.Errorf("parsing processing start date: %w", err)
		}
	}
	var deleteDate *time.Time
	if r.DeleteDateOptional != nil {
		d, err := time.Parse(time.RFC3339Nano, *r.DeleteDateOptional)
		if err != nil {
			return nil, fmt.Errorf("parsing delete date: %w", err)
		}
		deleteDate = &d
	}

	t := &Target{
		ID:                  r.TargetID,
		Name:                r.Name,
		Width:               r.Width,
		Image:               image,
		Active:              r.ActiveFlag,
		ApplicationMetadata: r.ApplicationMetadata,
		ProcessingTime:      time.Duration(r.ProcessingTimeSeconds * float64(time.Second)),
		Created:             created,
		LastModified:        lastModified,
		ProcessingStart:     processingStart,
		DeleteDate:          deleteDate,
	}
	t.rating = raters.Hardcoded{Rating: r.TrackingRating}.Rate(image, t.ID)
	return t, nil
}
