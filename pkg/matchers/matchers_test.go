package matchers_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konstin/vws-python-mock/pkg/matchers"
	"github.com/konstin/vws-python-mock/pkg/testkit"
)

func TestExact(t *testing.T) {
	t.Parallel()

	image := testkit.HighContrastPNG(1)
	other := testkit.HighContrastPNG(2)

	matcher := matchers.Exact{}
	assert.True(t, matcher.Matches(image, image))
	assert.False(t, matcher.Matches(image, other))
	assert.False(t, matcher.Matches(image, image[:len(image)-1]))
}

func TestAverageHash(t *testing.T) {
	t.Parallel()

	noise := testkit.HighContrastPNG(1)
	solid := testkit.SolidPNG(color.RGBA{R: 10, G: 10, B: 10, A: 255})

	matcher := matchers.AverageHash{Threshold: matchers.DefaultAverageHashThreshold}

	t.Run("identical images match", func(t *testing.T) {
		t.Parallel()
		assert.True(t, matcher.Matches(noise, noise))
	})

	t.Run("unrelated images do not match", func(t *testing.T) {
		t.Parallel()
		assert.False(t, matcher.Matches(noise, solid))
	})

	t.Run("undecodable images never match", func(t *testing.T) {
		t.Parallel()
		assert.False(t, matcher.Matches([]byte("junk"), noise))
		assert.False(t, matcher.Matches(noise, []byte("junk")))
	})
}

func TestFromChoice(t *testing.T) {
	t.Parallel()

	exact, err := matchers.FromChoice("exact")
	require.NoError(t, err)
	assert.IsType(t, matchers.Exact{}, exact)

	averageHash, err := matchers.FromChoice("average_hash")
	require.NoError(t, err)
	assert.IsType(t, matchers.AverageHash{}, averageHash)

	_, err = matchers.FromChoice("perceptual")
	assert.Error(t, err)
}
