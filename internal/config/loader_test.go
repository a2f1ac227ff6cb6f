package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/TrevorS/paircorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
kind: NG
output: ng.txt
cat1:
  file: lenses.dat
  ra_col: 1
  dec_col: 2
  ra_units: degrees
  dec_units: degrees
cat2:
  file: sources.dat
  delimiter: ","
  ra_col: 1
  dec_col: 2
  g1_col: 3
  g2_col: 4
  ra_units: hours
  dec_units: degrees
  flip_g2: true
correlation:
  min_sep: 1
  max_sep: 100
  nbins: 10
  sep_units: arcmin
  metric: Arc
  bin_slop: 0
`

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paircorr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(New(), writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "NG", cfg.Kind)
	assert.Equal(t, "ng.txt", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 16, cfg.Precision)
	assert.True(t, cfg.Cat2.Present())
	assert.False(t, cfg.Rand1.Present())
	assert.Equal(t, "#", cfg.Cat2.Comment)

	spec := cfg.Cat2.Spec()
	assert.Equal(t, ",", spec.Delimiter)
	assert.Equal(t, 3, spec.G1)
	assert.Equal(t, paircorr.Hours, spec.RAUnits)
	assert.True(t, spec.FlipG2)

	lib := cfg.Correlation.Library()
	assert.Equal(t, 1.0, lib.MinSep)
	assert.Equal(t, 10, lib.NBins)
	assert.Equal(t, paircorr.Arcmin, lib.SepUnits)
	assert.Equal(t, paircorr.MetricArc, lib.Metric)
	require.NotNil(t, lib.BinSlop)
	assert.Zero(t, *lib.BinSlop)
	assert.Nil(t, lib.MinRpar)
	assert.Equal(t, 10, lib.MaxTop)
	assert.Equal(t, paircorr.EstimatorCompensated, lib.Estimator)

	_, err = paircorr.NewCorrelation(paircorr.NG, lib)
	require.NoError(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PAIRCORR_PRECISION", "8")
	t.Setenv("PAIRCORR_CORRELATION_METRIC", "Rperp")
	cfg, err := Load(New(), writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Precision)
	assert.Equal(t, "Rperp", cfg.Correlation.Metric)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"missing kind", "output: x.txt\ncat1:\n  file: a.dat\n"},
		{"missing output", "kind: NN\ncat1:\n  file: a.dat\n"},
		{"missing cat1", "kind: NN\noutput: x.txt\n"},
		{"rand2 without rand1", "kind: NN\noutput: x.txt\ncat1:\n  file: a.dat\nrand2:\n  file: r.dat\n"},
		{"negative column", "kind: NN\noutput: x.txt\ncat1:\n  file: a.dat\n  x_col: -1\n"},
		{"negative precision", "kind: NN\noutput: x.txt\nprecision: -2\ncat1:\n  file: a.dat\n"},
		{"bad yaml", "kind: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.text))
			require.Error(t, err)
		})
	}

	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit path must exist")
}

func TestCorrelationConfig_LibraryKeepsDefaults(t *testing.T) {
	lib := CorrelationConfig{MinSep: 1, MaxSep: 10, NBins: 5}.Library()
	def := paircorr.DefaultConfig()
	assert.Equal(t, def.Metric, lib.Metric)
	assert.Equal(t, def.Estimator, lib.Estimator)
	assert.Equal(t, def.LeafSize, lib.LeafSize)
	assert.Equal(t, def.SplitMethod, lib.SplitMethod)
	assert.Nil(t, lib.BinSlop)
}
