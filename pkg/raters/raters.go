// Package raters assigns tracking ratings to target images. The rating is
// an integer from 0 to 5 indicating how suitable an image is for
// recognition; how the real service computes it is unknown.
package raters

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/konstin/vws-python-mock/pkg/imageutil"
)

// TargetRater assigns a tracking rating in [0, 5] to a target image. The
// seed is the target identifier, so a rater may be deterministic per
// target. Implementations must be safe for concurrent use.
type TargetRater interface {
	Rate(imageContent []byte, seed string) int
}

// Random rates uniformly in [0, 5], seeded by the target identifier so the
// same target always receives the same rating.
type Random struct{}

// Rate implements TargetRater.
func (Random) Rate(_ []byte, seed string) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(seed))
	// #nosec G404 -- reproducibility matters here, not unpredictability.
	return rand.New(rand.NewSource(int64(h.Sum64()))).Intn(6)
}

// Quality rates by image contrast, a stand-in for the no-reference quality
// metric the real service appears to use. Undecodable images rate 0.
type Quality struct{}

// Rate implements TargetRater.
func (Quality) Rate(imageContent []byte, _ string) int {
	img, _, err := imageutil.Decode(imageContent)
	if err != nil {
		return 0
	}
	// Channel stddev ranges over roughly [0, 127.5]; 25.5 per step maps it
	// onto the 0..5 scale.
	rating := int(math.Round(imageutil.MeanStdDev(img) / 25.5))
	if rating > 5 {
		rating = 5
	}
	if rating < 0 {
		rating = 0
	}
	return rating
}

// Hardcoded always returns a fixed rating. It is used when reconstructing
// targets from their wire form so that every reader of the store reports
// the rating the owning service assigned.
type Hardcoded struct {
	Rating int
}

// Rate implements TargetRater.
func (h Hardcoded) Rate(_ []byte, _ string) int {
	return h.Rating
}

// FromChoice returns the rater for a configuration value, one of "random"
// or "quality".
func FromChoice(choice string) (TargetRater, error) {
	switch choice {
	case "random":
		return Random{}, nil
	case "quality":
		return Quality{}, nil
	default:
		return nil, fmt.Errorf("unknown target rater %q", choice)
	}
}
