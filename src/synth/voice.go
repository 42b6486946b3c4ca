package synth

// ----- Voice ----- //

// voice is one active playback pipeline: oscillator -> envelope ->
// output gain -> effects chain. All parameters are copied in at
// construction; a live voice is never reconfigured, only replaced.
type voice struct {
	note   Note
	octave int
	freq   float64
	env    *adsr
	chain  []effect
}

func newVoice(kind int, note Note, octave int, freq float64, adsrP adsrParams, fxP fxParams) *voice {
	return &voice{
		note:   note,
		octave: octave,
		freq:   freq,
		env:    newAdsr(newOsc(kind, freq), adsrP),
		chain:  buildFxChain(fxP, sampleRate),
	}
}

// next pulls one output sample. ok is false once the envelope has
// finished; the voice is then exhausted for good.
func (v *voice) next() (float64, bool) {
	s, ok := v.env.next()
	if !ok {
		return 0, false
	}
	s *= outputGain
	for _, fx := range v.chain {
		s = fx.process(s)
	}
	return s, true
}
