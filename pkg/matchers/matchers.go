// Package matchers decides whether a query image matches a stored target
// image. Two strategies exist: exact byte equality and a 64-bit average
// hash with a Hamming-distance threshold.
package matchers

import (
	"bytes"
	"fmt"

	"github.com/corona10/goimagehash"

	"github.com/konstin/vws-python-mock/pkg/imageutil"
)

// DefaultAverageHashThreshold is the Hamming distance below which two
// average hashes are considered the same image.
const DefaultAverageHashThreshold = 10

// ImageMatcher reports whether a query image matches a stored target image.
// Implementations must be safe for concurrent use.
type ImageMatcher interface {
	Matches(storedImage, queryImage []byte) bool
}

// Exact matches only bytewise-identical images.
type Exact struct{}

// Matches implements ImageMatcher.
func (Exact) Matches(storedImage, queryImage []byte) bool {
	return bytes.Equal(storedImage, queryImage)
}

// AverageHash matches images whose 8x8 greyscale average hashes are within
// Threshold Hamming distance of each other. Undecodable images never match.
type AverageHash struct {
	Threshold int
}

// Matches implements ImageMatcher.
func (m AverageHash) Matches(storedImage, queryImage []byte) bool {
	storedHash, err := hashOf(storedImage)
	if err != nil {
		return false
	}
	queryHash, err := hashOf(queryImage)
	if err != nil {
		return false
	}
	distance, err := storedHash.Distance(queryHash)
	if err != nil {
		return false
	}
	return distance <= m.Threshold
}

func hashOf(data []byte) (*goimagehash.ImageHash, error) {
	img, _, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}
	return goimagehash.AverageHash(img)
}

// FromChoice returns the matcher for a configuration value, one of "exact"
// or "average_hash".
func FromChoice(choice string) (ImageMatcher, error) {
	switch choice {
	case "exact":
		return Exact{}, nil
	case "average_hash":
		return AverageHash{Threshold: DefaultAverageHashThreshold}, nil
	default:
		return nil, fmt.Errorf("unknown image matcher %q", choice)
	}
}
