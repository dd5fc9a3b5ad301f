package trace

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/banshee-data/can-delay/internal/export"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEdges(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		want    []Edge
	}{
		{
			name:    "empty",
			samples: nil,
			want:    nil,
		},
		{
			name:    "never low",
			samples: []Sample{{0, true}, {1, true}},
			want:    nil,
		},
		{
			name:    "starts high",
			samples: []Sample{{0, true}, {1, false}, {2, true}, {3, false}, {4, true}},
			want:    []Edge{{2}, {4}},
		},
		{
			name:    "starts low",
			samples: []Sample{{0, false}, {0.5, true}},
			want:    []Edge{{0.5}},
		},
		{
			name:    "only lows",
			samples: []Sample{{0, false}, {1, false}},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractEdges(tt.samples)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("edges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// No edge may precede the first low sample, whatever the input.
func TestExtractEdges_ArmingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(40)
		samples := make([]Sample, n)
		firstLow := -1.0
		for j := range samples {
			samples[j] = Sample{Time: float64(j), Level: rng.Intn(3) != 0}
			if !samples[j].Level && firstLow < 0 {
				firstLow = samples[j].Time
			}
		}
		edges := ExtractEdges(samples)
		if firstLow < 0 {
			assert.Empty(t, edges)
			continue
		}
		for _, e := range edges {
			assert.Greater(t, e.Time, firstLow)
		}
	}
}

func TestEdgeExtractor_Push(t *testing.T) {
	var e EdgeExtractor
	_, ok := e.Push(Sample{Time: 0, Level: true})
	assert.False(t, ok)
	assert.False(t, e.Armed())

	_, ok = e.Push(Sample{Time: 1, Level: false})
	assert.False(t, ok)
	assert.True(t, e.Armed())

	edge, ok := e.Push(Sample{Time: 2, Level: true})
	require.True(t, ok)
	assert.Equal(t, 2.0, edge.Time)
	assert.Len(t, e.Edges(), 1)
}

func TestReadSamples(t *testing.T) {
	in := "Time [s],Channel 1\n0.000000000,1\n1.250000000,0\n2.000000000,1\n"
	samples, err := ReadSamples(strings.NewReader(in), DefaultChannelColumn)
	require.NoError(t, err)
	want := []Sample{{0, true}, {1.25, false}, {2, true}}
	if diff := cmp.Diff(want, samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Edge{{2}}, ExtractEdges(samples))
}

func TestReadSamples_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"bad level", "0.0,2\n", export.ErrMalformedRow},
		{"missing column", "0.0\n", export.ErrMalformedRow},
		{"backwards", "1.0,0\n0.5,1\n", export.ErrOutOfOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSamples(strings.NewReader(tt.in), DefaultChannelColumn)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadSamples_OtherColumn(t *testing.T) {
	in := "Time [s],Channel 0,Channel 1,Channel 2\n0.0,1,1,0\n1.0,1,0,1\n"
	samples, err := ReadSamples(strings.NewReader(in), 3)
	require.NoError(t, err)
	assert.Equal(t, []Sample{{0, false}, {1, true}}, samples)
}
