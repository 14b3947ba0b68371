package imageutil_test

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konstin/vws-python-mock/pkg/imageutil"
	"github.com/konstin/vws-python-mock/pkg/testkit"
)

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       []byte
		wantFormat string
		wantErr    bool
	}{
		{
			name:       "png",
			data:       testkit.HighContrastPNG(1),
			wantFormat: "png",
		},
		{
			name:       "jpeg",
			data:       testkit.HighContrastJPEG(1),
			wantFormat: "jpeg",
		},
		{
			name:    "not an image",
			data:    []byte("plain text"),
			wantErr: true,
		},
		{
			name:    "empty",
			data:    nil,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, format, err := imageutil.Decode(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, imageutil.Decodable(tt.data))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFormat, format)
			assert.True(t, imageutil.Decodable(tt.data))
		})
	}
}

func TestMeanStdDev(t *testing.T) {
	t.Parallel()

	t.Run("uniform image has zero deviation", func(t *testing.T) {
		t.Parallel()
		img, _, err := imageutil.Decode(testkit.SolidPNG(color.RGBA{R: 120, G: 30, B: 200, A: 255}))
		require.NoError(t, err)
		assert.Zero(t, imageutil.MeanStdDev(img))
	})

	t.Run("noisy image has high deviation", func(t *testing.T) {
		t.Parallel()
		img, _, err := imageutil.Decode(testkit.HighContrastPNG(7))
		require.NoError(t, err)
		assert.Greater(t, imageutil.MeanStdDev(img), 5.0)
	})
}
