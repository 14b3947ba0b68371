// Package imageutil decodes target images and computes the pixel statistics
// the lifecycle and rating rules are built on. Only PNG and JPEG are
// registered; any other format is rejected as undecodable.
package imageutil

import (
	"bytes"
	"image"
	"math"

	// The services accept exactly these two formats.
	_ "image/jpeg"
	_ "image/png"
)

// Decode decodes data as a PNG or JPEG image. The returned format is
// "png" or "jpeg".
func Decode(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// Decodable reports whether data is a valid PNG or JPEG image.
func Decodable(data []byte) bool {
	_, _, err := Decode(data)
	return err == nil
}

// MeanStdDev returns the mean of the per-channel standard deviations of the
// image's 8-bit RGB values. Greyscale images contribute three identical
// channels, which leaves the mean unchanged.
func MeanStdDev(img image.Image) float64 {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0
	}

	var sum, sumSq [3]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			for i, v := range [3]uint32{r, g, b} {
				c := float64(v >> 8)
				sum[i] += c
				sumSq[i] += c * c
			}
		}
	}

	var total float64
	for i := range sum {
		mean := sum[i] / n
		variance := sumSq[i]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		total += math.Sqrt(variance)
	}
	return total / 3
}
