// Package target implements the per-target lifecycle state. A target's
// status is never pushed by a background process; it is derived on read
// from wall-clock time and the target's timestamps.
package target

import (
	"time"

	"github.com/konstin/vws-python-mock/pkg/imageutil"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/wire"
)

// successStdDevThreshold separates images that finish processing as
// "success" from those that finish as "failed". The real criterion is
// unknown; it relates to how suitable the image is for detection.
const successStdDevThreshold = 5

// Target is a registered image plus metadata, as managed in the Vuforia
// target manager.
type Target struct {
	ID     string
	Name   string
	Width  float64
	Image  []byte
	Active bool
	// ApplicationMetadata is the base64 form as submitted, or nil.
	ApplicationMetadata *string
	ProcessingTime      time.Duration

	Created      time.Time
	LastModified time.Time
	// ProcessingStart is reset whenever the image changes; status and the
	// rating window derive from it rather than from LastModified so that
	// non-image updates do not re-enter processing.
	ProcessingStart time.Time
	DeleteDate      *time.Time

	// rating is fixed per (image, entry into processing).
	rating int
}

// New creates a target in the processing state with a fresh 32-hex ID. The
// rater is invoked once, here.
func New(
	name string,
	width float64,
	image []byte,
	active bool,
	applicationMetadata *string,
	processingTime time.Duration,
	rater raters.TargetRater,
	now time.Time,
) *Target {
	t := &Target{
		ID:                  wire.NewID(),
		Name:                name,
		Width:               width,
		Image:               image,
		Active:              active,
		ApplicationMetadata: applicationMetadata,
		ProcessingTime:      processingTime,
		Created:             now,
		LastModified:        now,
		ProcessingStart:     now,
	}
	t.rating = rater.Rate(image, t.ID)
	return t
}

// Status derives the lifecycle status at the given instant.
func (t *Target) Status(now time.Time) wire.TargetStatus {
	if now.Sub(t.ProcessingStart) <= t.ProcessingTime {
		return wire.StatusProcessing
	}
	img, _, err := imageutil.Decode(t.Image)
	if err != nil {
		return wire.StatusFailed
	}
	if imageutil.MeanStdDev(img) > successStdDevThreshold {
		return wire.StatusSuccess
	}
	return wire.StatusFailed
}

// TrackingRating reports the rating visible at the given instant. The real
// service reports -1 for a short while during processing and then the
// final rating, even before processing completes; half the processing
// window approximates that. Failed targets report -1 permanently.
func (t *Target) TrackingRating(now time.Time) int {
	if now.Sub(t.ProcessingStart) <= t.ProcessingTime/2 {
		return -1
	}
	if t.Status(now) == wire.StatusFailed {
		return -1
	}
	return t.rating
}

// Deleted reports whether the management API considers the target deleted.
func (t *Target) Deleted() bool {
	return t.DeleteDate != nil
}

// MarkDeleted sets the deletion timestamp. Once set it is never cleared.
func (t *Target) MarkDeleted(now time.Time) {
	if t.DeleteDate == nil {
		d := now
		t.DeleteDate = &d
	}
}

// SetImage replaces the image, re-enters processing and re-rates. Only
// valid from a terminal status; callers enforce that.
func (t *Target) SetImage(image []byte, rater raters.TargetRater, now time.Time) {
	t.Image = image
	t.LastModified = now
	t.ProcessingStart = now
	t.rating = rater.Rate(image, t.ID)
}

// Touch records a non-image modification.
func (t *Target) Touch(now time.Time) {
	t.LastModified = now
}

// Clone returns a copy safe to read while the original keeps being
// mutated under the store lock. Image bytes are shared; they are treated
// as immutable everywhere.
func (t *Target) Clone() *Target {
	c := *t
	if t.DeleteDate != nil {
		d := *t.DeleteDate
		c.DeleteDate = &d
	}
	if t.ApplicationMetadata != nil {
		m := *t.ApplicationMetadata
		c.ApplicationMetadata = &m
	}
	return &c
}
