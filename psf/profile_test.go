package psf

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileThroughOnAxisSpot(t *testing.T) {
	m, err := SpotMatrix([]float64{0}, 8, 8)
	require.NoError(t, err)

	points, err := Profile(m, 0)
	require.NoError(t, err)
	require.Len(t, points, 9)

	assert.Equal(t, -4.0, points[0].Distance)
	assert.Equal(t, 4.0, points[8].Distance)
	assert.InDelta(t, 1.0, points[4].Intensity, 1e-12)
	assert.InDelta(t, 0.0, points[3].Intensity, 1e-12)
	assert.InDelta(t, 0.0, points[5].Intensity, 1e-12)
}

func TestProfileIsSymmetricForRing(t *testing.T) {
	m, err := SpotMatrix([]float64{3}, 16, 360)
	require.NoError(t, err)
	m, err = Smooth(m, 1)
	require.NoError(t, err)

	for _, angle := range []float64{0, math.Pi / 2} {
		points, err := Profile(m, angle)
		require.NoError(t, err)
		n := len(points)
		for i := 0; i < n/2; i++ {
			assert.InDelta(t, points[i].Intensity, points[n-1-i].Intensity, 0.05)
		}
		// The ring is brighter than its center
		assert.Greater(t, points[n/2+3].Intensity, points[n/2].Intensity)
	}
}

func TestProfileErrors(t *testing.T) {
	_, err := Profile(nil, 0)
	assert.Error(t, err)

	_, err = Profile([][]float64{{1, 2}}, 0)
	assert.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	m := [][]float64{
		{0, 1},
		{2, 3},
	}
	assert.InDelta(t, 1.5, interpolate(m, 0.5, 0.5), 1e-9)
	assert.InDelta(t, 0.0, interpolate(m, -3, -3), 1e-9)
	assert.InDelta(t, 3.0, interpolate(m, 5, 5), 1e-8)
	assert.Equal(t, 7.0, interpolate([][]float64{{7}}, 0.3, 0.3))
}

func TestSaveProfilePlot(t *testing.T) {
	m, err := SpotMatrix([]float64{1, 2}, 16, 64)
	require.NoError(t, err)
	points, err := Profile(m, 0)
	require.NoError(t, err)

	name := filepath.Join(t.TempDir(), "profile.png")
	require.NoError(t, SaveProfilePlot(name, points, 2, 480, 320))
	assert.FileExists(t, name)

	_, err = PlotProfile(nil, 1, 480, 320)
	assert.Error(t, err)
}
