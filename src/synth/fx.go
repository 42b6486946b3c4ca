package synth

import "encoding/json"

// ----- Effects Chain ----- //

// effect transforms exactly one input sample into one output sample.
type effect interface {
	process(in float64) float64
}

type fxParams struct {
	delay   delayParams
	reverb  reverbParams
	flanger flangerParams
}
type fxJSON struct {
	Delay   json.RawMessage `json:"delay"`
	Reverb  json.RawMessage `json:"reverb"`
	Flanger json.RawMessage `json:"flanger"`
}

func newFxParams() fxParams {
	return fxParams{
		delay:   newDelayParams(),
		reverb:  newReverbParams(),
		flanger: newFlangerParams(),
	}
}

func (p *fxParams) applyJSON(data json.RawMessage) {
	var j fxJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return
	}
	p.delay.applyJSON(j.Delay)
	p.reverb.applyJSON(j.Reverb)
	p.flanger.applyJSON(j.Flanger)
}
func (p *fxParams) toJSON() json.RawMessage {
	return toRawMessage(&fxJSON{
		Delay:   p.delay.toJSON(),
		Reverb:  p.reverb.toJSON(),
		Flanger: p.flanger.toJSON(),
	})
}

// buildFxChain snapshots the enabled flags: only effects enabled at
// voice-assembly time are part of the chain. A disabled effect adds no
// stage at all, so it has zero latency. Order is fixed:
// delay -> reverb -> flanger.
func buildFxChain(p fxParams, sampleRate float64) []effect {
	var chain []effect
	if p.delay.enabled {
		chain = append(chain, newDelayFx(p.delay, sampleRate))
	}
	if p.reverb.enabled {
		chain = append(chain, newReverbFx(p.reverb, sampleRate))
	}
	if p.flanger.enabled {
		chain = append(chain, newFlangerFx(p.flanger, sampleRate))
	}
	return chain
}
