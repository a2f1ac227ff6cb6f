package catalog

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TrevorS/paircorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Whitespace(t *testing.T) {
	text := `# x y w k
1 2 1.5 0.1
  3   4   2   0.2

# trailing comment
5 6 0 0.3
`
	cat, err := Read(strings.NewReader(text), Spec{Name: "flat", X: 1, Y: 2, W: 3, K: 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5}, cat.X)
	assert.Equal(t, []float64{2, 4, 6}, cat.Y)
	assert.Equal(t, []float64{1.5, 2, 0}, cat.W)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, cat.K)
	assert.Nil(t, cat.Z)
	assert.Nil(t, cat.G1)

	f, err := paircorr.NewField(cat)
	require.NoError(t, err)
	assert.Equal(t, paircorr.Flat, f.Coords)
}

func TestRead_DelimitedSphere(t *testing.T) {
	text := "% ra,dec,g1,g2\n12, 30, 0.1, 0.2\n6,-45,-0.3,0.4\n"
	cat, err := Read(strings.NewReader(text), Spec{
		Delimiter: ",", Comment: "%",
		RA: 1, Dec: 2, G1: 3, G2: 4,
		RAUnits: paircorr.Hours, DecUnits: paircorr.Degrees,
		FlipG2: true,
	})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, cat.RA[0], 1e-15)
	assert.InDelta(t, math.Pi/2, cat.RA[1], 1e-15)
	assert.InDelta(t, math.Pi/6, cat.Dec[0], 1e-15)
	assert.InDelta(t, -math.Pi/4, cat.Dec[1], 1e-15)
	assert.Equal(t, []float64{0.1, -0.3}, cat.G1)
	assert.Equal(t, []float64{-0.2, -0.4}, cat.G2)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		spec Spec
	}{
		{"no positions", "1 2\n", Spec{K: 1}},
		{"x without y", "1 2\n", Spec{X: 1}},
		{"ra without units", "1 2\n", Spec{RA: 1, Dec: 2}},
		{"mixed positions", "1 2 3 4\n", Spec{X: 1, Y: 2, RA: 3, Dec: 4, RAUnits: paircorr.Degrees, DecUnits: paircorr.Degrees}},
		{"z without x", "1 2 3\n", Spec{RA: 1, Dec: 2, Z: 3, RAUnits: paircorr.Degrees, DecUnits: paircorr.Degrees}},
		{"r without ra", "1 2 3\n", Spec{X: 1, Y: 2, R: 3}},
		{"g1 alone", "1 2 3\n", Spec{X: 1, Y: 2, G1: 3}},
		{"short row", "1 2\n3\n", Spec{X: 1, Y: 2}},
		{"not a number", "1 two\n", Spec{X: 1, Y: 2}},
		{"unknown units", "1 2\n", Spec{RA: 1, Dec: 2, RAUnits: "furlongs", DecUnits: paircorr.Degrees}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.text), tt.spec)
			require.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.dat")
	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n4 5 6\n"), 0o644))

	cat, err := Load(path, Spec{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	assert.Equal(t, path, cat.Name)
	assert.Equal(t, []float64{3, 6}, cat.Z)

	_, err = Load(filepath.Join(t.TempDir(), "missing.dat"), Spec{X: 1, Y: 2})
	require.ErrorIs(t, err, os.ErrNotExist)
}
