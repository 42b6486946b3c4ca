package synth

import (
	"fmt"
	"math"
)

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveSquare
	waveTriangle
	waveSaw
)

func waveKindToString(kind int) string {
	switch kind {
	case waveSine:
		return "sine"
	case waveSquare:
		return "square"
	case waveTriangle:
		return "triangle"
	case waveSaw:
		return "saw"
	}
	return "sine"
}
func waveKindFromString(s string) (int, error) {
	switch s {
	case "sine":
		return waveSine, nil
	case "square":
		return waveSquare, nil
	case "triangle":
		return waveTriangle, nil
	case "saw":
		return waveSaw, nil
	}
	return 0, fmt.Errorf("unknown waveform %q", s)
}

// nextWaveKind cycles sine -> square -> triangle -> saw -> sine.
func nextWaveKind(kind int) int {
	switch kind {
	case waveSine:
		return waveSquare
	case waveSquare:
		return waveTriangle
	case waveTriangle:
		return waveSaw
	default:
		return waveSine
	}
}

// ----- OSC ----- //

// osc produces an endless sample stream in [-1,1] for one frequency.
// The phase accumulator lives in [0,1) and advances by freq/sampleRate
// per sample.
type osc struct {
	kind  int
	freq  float64
	phase float64 // [0,1)
}

func newOsc(kind int, freq float64) *osc {
	return &osc{kind: kind, freq: freq}
}

func (o *osc) restart() {
	o.phase = 0
}

func (o *osc) next() float64 {
	p := o.phase
	value := 0.0
	switch o.kind {
	case waveSine:
		value = math.Sin(2 * math.Pi * p)
	case waveSquare:
		if p < 0.5 {
			value = 1
		} else {
			value = -1
		}
	case waveTriangle:
		if p < 0.5 {
			value = p*4 - 1
		} else {
			value = p*(-4) + 3
		}
	case waveSaw:
		value = p*2 - 1
	}
	o.phase += o.freq / float64(sampleRate)
	_, o.phase = math.Modf(o.phase)
	return value
}
