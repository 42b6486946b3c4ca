package synth

import (
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
)

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Params ----- //

// Tone-shaping hook from the instrument panel: not a real filter, just a
// linear multiplier on the oscillator frequency. The cutoff moves in
// 1/7 steps.
const filterFactorStep = 0.142857

// params is the global synth configuration. Input handlers mutate it
// between notes; a trigger copies what it needs, so a live voice never
// observes later changes.
type params struct {
	waveform     int // waveKind
	octave       int
	filterOn     bool
	filterFactor float64 // 0.15-1
	adsr         adsrParams
	fx           fxParams
}
type paramsJSON struct {
	Waveform     string          `json:"waveform"`
	Octave       int             `json:"octave"`
	FilterOn     bool            `json:"filterOn"`
	FilterFactor float64         `json:"filterFactor"`
	Adsr         json.RawMessage `json:"adsr"`
	Fx           json.RawMessage `json:"fx"`
}

func newParams() *params {
	return &params{
		waveform:     waveSine,
		octave:       defaultOctave,
		filterOn:     false,
		filterFactor: 1.0,
		adsr:         newAdsrParams(),
		fx:           newFxParams(),
	}
}

func (p *params) applyJSON(data json.RawMessage) {
	var j paramsJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to params")
		return
	}
	if kind, err := waveKindFromString(j.Waveform); err == nil {
		p.waveform = kind
	}
	p.octave = clampInt(j.Octave, octaveLowerBound, octaveUpperBound)
	p.filterOn = j.FilterOn
	p.filterFactor = clamp(j.FilterFactor, 0.15, 1.0)
	p.adsr.applyJSON(j.Adsr)
	p.fx.applyJSON(j.Fx)
}
func (p *params) toJSON() json.RawMessage {
	return toRawMessage(&paramsJSON{
		Waveform:     waveKindToString(p.waveform),
		Octave:       p.octave,
		FilterOn:     p.filterOn,
		FilterFactor: p.filterFactor,
		Adsr:         p.adsr.toJSON(),
		Fx:           p.fx.toJSON(),
	})
}

func (p *params) set(key string, value string) error {
	switch key {
	case "waveform":
		kind, err := waveKindFromString(value)
		if err != nil {
			return err
		}
		p.waveform = kind
	case "octave":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		p.octave = clampInt(int(v), octaveLowerBound, octaveUpperBound)
	case "filterOn":
		p.filterOn = value == "true"
	case "filterFactor":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.filterFactor = clamp(v, 0.15, 1.0)
	}
	return nil
}

func (p *params) increaseOctave() {
	if p.octave < octaveUpperBound {
		p.octave++
	}
}
func (p *params) decreaseOctave() {
	if p.octave > octaveLowerBound {
		p.octave--
	}
}

// toggleFilter resets the cutoff so re-enabling starts neutral.
func (p *params) toggleFilter() {
	p.filterOn = !p.filterOn
	p.filterFactor = 1.0
}
func (p *params) increaseFilterCutoff() {
	if p.filterOn && p.filterFactor <= 0.9 {
		p.filterFactor += filterFactorStep
	}
}
func (p *params) decreaseFilterCutoff() {
	if p.filterOn && p.filterFactor >= 0.15 {
		p.filterFactor -= filterFactorStep
	}
}
