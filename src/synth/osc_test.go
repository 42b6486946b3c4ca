package synth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteFrequency(t *testing.T) {
	assert.InDelta(t, 440.0, NoteA.Frequency(4), 1e-9)
	assert.InDelta(t, 880.0, NoteA.Frequency(5), 1e-9)
	assert.InDelta(t, 220.0, NoteA.Frequency(3), 1e-9)
	assert.InDelta(t, 261.626, NoteC.Frequency(4), 0.001)
}

func TestNoteFromString(t *testing.T) {
	n, err := noteFromString("F#")
	require.NoError(t, err)
	assert.Equal(t, NoteFSharp, n)
	_, err = noteFromString("H")
	assert.Error(t, err)
}

func TestSinePeriodicityAndBounds(t *testing.T) {
	freq := 441.0 // period = 100 samples at 44100Hz
	o := newOsc(waveSine, freq)
	period := int(float64(sampleRate) / freq)
	samples := make([]float64, period*4)
	for i := range samples {
		samples[i] = o.next()
		assert.LessOrEqual(t, samples[i], 1.0)
		assert.GreaterOrEqual(t, samples[i], -1.0)
	}
	for i := 0; i < period*3; i++ {
		assert.InDelta(t, samples[i], samples[i+period], 1e-6)
	}
}

func TestSquareHalves(t *testing.T) {
	o := newOsc(waveSquare, 441)
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1.0, o.next())
	}
	for i := 0; i < 50; i++ {
		assert.Equal(t, -1.0, o.next())
	}
}

func TestTriangleShape(t *testing.T) {
	o := newOsc(waveTriangle, 441)
	assert.InDelta(t, -1.0, o.next(), 1e-9)
	// rises through the first half period
	prev := -1.0
	peak := -1.0
	for i := 1; i < 50; i++ {
		v := o.next()
		assert.Greater(t, v, prev)
		prev = v
		peak = math.Max(peak, v)
	}
	assert.InDelta(t, 0.96, peak, 0.05)
}

func TestSawRamp(t *testing.T) {
	o := newOsc(waveSaw, 441)
	assert.InDelta(t, -1.0, o.next(), 1e-9)
	prev := -1.0
	for i := 1; i < 100; i++ {
		v := o.next()
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestSawWrap(t *testing.T) {
	// half the sample rate: the phase step of 0.5 is exact, so the
	// ramp alternates between its start and midpoint
	o := newOsc(waveSaw, sampleRate/2)
	assert.Equal(t, -1.0, o.next())
	assert.Equal(t, 0.0, o.next())
	assert.Equal(t, -1.0, o.next())
}

func TestOscRestart(t *testing.T) {
	o := newOsc(waveSaw, 441)
	first := o.next()
	o.next()
	o.restart()
	assert.Equal(t, first, o.next())
}

func TestWaveKindCycle(t *testing.T) {
	kind := waveSine
	order := []int{waveSquare, waveTriangle, waveSaw, waveSine}
	for _, want := range order {
		kind = nextWaveKind(kind)
		assert.Equal(t, want, kind)
	}
}
