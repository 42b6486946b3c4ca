package synth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetWaveform("square"))
	e.IncreaseOctave()
	e.ToggleFilter()
	require.NoError(t, e.SetEnvelopeParam("attack", 12))
	require.NoError(t, e.SetEnvelopeParam("release", 70))
	require.NoError(t, e.ToggleEffect("delay"))
	require.NoError(t, e.update([]string{"set", "delay", "timeMs", "450"}))
	require.NoError(t, e.update([]string{"set", "reverb", "roomSize", "0.8"}))

	path := filepath.Join(t.TempDir(), "lead.yaml")
	require.NoError(t, e.SavePreset(path))

	other := newTestEngine(t)
	require.NoError(t, other.LoadPreset(path))
	snap := other.Snapshot()
	assert.Equal(t, "square", snap.Waveform)
	assert.Equal(t, defaultOctave+1, snap.Octave)
	assert.True(t, snap.FilterOn)
	assert.Equal(t, 12, snap.Attack)
	assert.Equal(t, 70, snap.Release)
	assert.True(t, snap.DelayOn)
	assert.False(t, snap.ReverbOn)
	assert.InDelta(t, 450.0, other.state.params.fx.delay.timeMs, 1e-9)
	assert.InDelta(t, 0.8, other.state.params.fx.reverb.roomSize, 1e-9)
}

func TestLoadPresetClampsValues(t *testing.T) {
	data := []byte(`
waveform: saw
octave: 42
filterOn: true
filterFactor: 3.5
adsr:
  attack: 500
  decay: -3
  sustain: 80
  release: 20
`)
	path := filepath.Join(t.TempDir(), "weird.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	e := newTestEngine(t)
	require.NoError(t, e.LoadPreset(path))
	snap := e.Snapshot()
	assert.Equal(t, octaveUpperBound, snap.Octave)
	assert.InDelta(t, 1.0, snap.FilterFactor, 1e-9)
	assert.Equal(t, 99, snap.Attack)
	assert.Equal(t, 0, snap.Decay)
	assert.Equal(t, 80, snap.Sustain)
}

func TestLoadPresetRejectsUnknownWaveform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("waveform: noise\n"), 0o644))
	e := newTestEngine(t)
	assert.Error(t, e.LoadPreset(path))
}

func TestLoadPresetMissingFile(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.LoadPreset(filepath.Join(t.TempDir(), "nope.yaml")))
}
