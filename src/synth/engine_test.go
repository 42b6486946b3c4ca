package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine()
	t.Cleanup(func() {
		_ = e.Close()
	})
	return e
}

func TestTriggerReplacesActiveVoice(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(NoteA)
	first := e.state.voice
	require.NotNil(t, first)
	e.NoteOn(NoteC)
	second := e.state.voice
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.InDelta(t, NoteC.Frequency(defaultOctave), second.freq, 1e-9)
}

func TestTriggerUsesLiveOctave(t *testing.T) {
	e := newTestEngine(t)
	e.IncreaseOctave()
	e.NoteOn(NoteA)
	assert.Equal(t, defaultOctave+1, e.state.voice.octave)
	assert.InDelta(t, NoteA.Frequency(defaultOctave+1), e.state.voice.freq, 1e-9)
}

func TestOctaveBoundsAreClamped(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 20; i++ {
		e.IncreaseOctave()
	}
	assert.Equal(t, octaveUpperBound, e.Snapshot().Octave)
	for i := 0; i < 20; i++ {
		e.DecreaseOctave()
	}
	assert.Equal(t, octaveLowerBound, e.Snapshot().Octave)
}

func TestOctaveOverrideDoesNotLeak(t *testing.T) {
	e := newTestEngine(t)
	e.TriggerNote(NoteA, 2)
	assert.Equal(t, 2, e.state.voice.octave)
	assert.Equal(t, defaultOctave, e.Snapshot().Octave)
	// a subsequent live trigger is back on the live octave
	e.NoteOn(NoteC)
	assert.Equal(t, defaultOctave, e.state.voice.octave)
}

func TestEffectToggleDoesNotAlterRunningVoice(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(NoteA)
	running := e.state.voice
	assert.Empty(t, running.chain)

	require.NoError(t, e.ToggleEffect("delay"))
	assert.Same(t, running, e.state.voice)
	assert.Empty(t, running.chain)

	e.NoteOn(NoteA)
	assert.Len(t, e.state.voice.chain, 1)
}

func TestEnvelopeParamsAreSnapshottedAtTrigger(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetEnvelopeParam("sustain", 80))
	e.NoteOn(NoteA)
	running := e.state.voice
	require.NoError(t, e.SetEnvelopeParam("sustain", 10))
	assert.InDelta(t, 80.0/99.0, running.env.sustain, 1e-9)
}

func TestFilterFactorScalesFrequency(t *testing.T) {
	e := newTestEngine(t)
	e.ToggleFilter()
	e.DecreaseFilterCutoff()
	e.NoteOn(NoteA)
	want := NoteA.Frequency(defaultOctave) * (1.0 - filterFactorStep)
	assert.InDelta(t, want, e.state.voice.freq, 1e-6)
}

func TestReleaseImplicitHardStopsShortRelease(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetEnvelopeParam("release", 5))
	e.NoteOn(NoteA)
	require.NotNil(t, e.state.voice)
	e.ReleaseImplicit()
	assert.Nil(t, e.state.voice)
}

func TestReleaseImplicitKeepsLongReleaseSounding(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetEnvelopeParam("release", 50))
	e.NoteOn(NoteA)
	e.ReleaseImplicit()
	assert.NotNil(t, e.state.voice)
	snap := e.Snapshot()
	assert.Greater(t, snap.Frequency, 0.0)
	assert.LessOrEqual(t, snap.Amplitude, 1.0)
}

func TestReadProducesAudio(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(NoteA)
	buf := make([]byte, bufferSizeInBytes)
	n, err := e.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, bufferSizeInBytes, n)
	nonZero := false
	for _, b := range buf {
		if b != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestReadSilenceWithoutVoice(t *testing.T) {
	e := newTestEngine(t)
	buf := make([]byte, bufferSizeInBytes)
	n, err := e.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, bufferSizeInBytes, n)
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
}

func TestReadDiscardsExhaustedVoice(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetEnvelopeParam("release", 0))
	e.NoteOn(NoteA)
	e.state.Lock()
	e.state.voice.env.noteOff() // zero release ends the stream at once
	e.state.Unlock()
	buf := make([]byte, bufferSizeInBytes)
	_, err := e.Read(buf)
	require.NoError(t, err)
	assert.Nil(t, e.state.voice)
}

func TestUpdateCommands(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.update([]string{"note_on", "A"}))
	assert.Greater(t, e.Snapshot().Frequency, 0.0)

	require.NoError(t, e.update([]string{"set", "adsr", "attack", "42"}))
	assert.Equal(t, 42, e.Snapshot().Attack)

	require.NoError(t, e.update([]string{"set", "delay", "enabled", "true"}))
	assert.True(t, e.Snapshot().DelayOn)

	require.NoError(t, e.update([]string{"toggle_waveform"}))
	assert.Equal(t, "square", e.Snapshot().Waveform)

	require.NoError(t, e.update([]string{"octave", "up"}))
	assert.Equal(t, defaultOctave+1, e.Snapshot().Octave)

	require.NoError(t, e.update([]string{"record", "start"}))
	assert.Equal(t, "recording", e.Snapshot().RecordingState)
	require.NoError(t, e.update([]string{"record", "stop"}))
	assert.Equal(t, "stopped", e.Snapshot().RecordingState)

	assert.Error(t, e.update([]string{"bogus"}))
	assert.Error(t, e.update([]string{"set", "adsr", "attack"}))
	assert.Error(t, e.update([]string{"toggle_effect", "chorus"}))
}

func TestSnapshotReflectsState(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetWaveform("triangle"))
	require.NoError(t, e.ToggleEffect("reverb"))
	e.NoteOn(NoteE)
	snap := e.Snapshot()
	assert.Equal(t, "triangle", snap.Waveform)
	assert.True(t, snap.ReverbOn)
	assert.False(t, snap.DelayOn)
	assert.InDelta(t, NoteE.Frequency(defaultOctave), snap.Frequency, 1e-9)
	assert.Equal(t, 1.0, snap.Amplitude)
	assert.Equal(t, "stopped", snap.RecordingState)
	assert.Empty(t, snap.RecordedNotes)
}

func TestApplyJSONRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.SetWaveform("saw"))
	require.NoError(t, e.SetEnvelopeParam("decay", 33))
	require.NoError(t, e.ToggleEffect("flanger"))
	data := e.ToJSON()

	other := newTestEngine(t)
	other.ApplyJSON(data)
	snap := other.Snapshot()
	assert.Equal(t, "saw", snap.Waveform)
	assert.Equal(t, 33, snap.Decay)
	assert.True(t, snap.FlangerOn)
}

func TestMidiEventsTriggerAndRelease(t *testing.T) {
	e := newTestEngine(t)
	e.AddMidiEvent([]byte{0x90, 69, 100}) // note-on A4
	require.NotNil(t, e.state.voice)
	assert.InDelta(t, 440.0, e.state.voice.freq, 1e-9)

	require.NoError(t, e.SetEnvelopeParam("release", 0))
	e.AddMidiEvent([]byte{0x80, 69, 0}) // note-off
	assert.Nil(t, e.state.voice)
}
