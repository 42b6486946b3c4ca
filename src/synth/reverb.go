package synth

import (
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ----- Reverb Params ----- //

type reverbParams struct {
	enabled  bool
	roomSize float64 // 0-1
	damping  float64 // 0-1
	mix      float64 // 0-1
}
type reverbJSON struct {
	Enabled  bool    `json:"enabled"`
	RoomSize float64 `json:"roomSize"`
	Damping  float64 `json:"damping"`
	Mix      float64 `json:"mix"`
}

func newReverbParams() reverbParams {
	return reverbParams{enabled: false, roomSize: 0.5, damping: 0.5, mix: 0.3}
}

func (p *reverbParams) applyJSON(data json.RawMessage) {
	var j reverbJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to reverbParams")
		return
	}
	p.enabled = j.Enabled
	p.roomSize = j.RoomSize
	p.damping = j.Damping
	p.mix = j.Mix
}
func (p *reverbParams) toJSON() json.RawMessage {
	return toRawMessage(&reverbJSON{
		Enabled:  p.enabled,
		RoomSize: p.roomSize,
		Damping:  p.damping,
		Mix:      p.mix,
	})
}
func (p *reverbParams) set(key string, value string) error {
	switch key {
	case "enabled":
		p.enabled = value == "true"
	case "roomSize":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.roomSize = v
	case "damping":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.damping = v
	case "mix":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.mix = v
	}
	return nil
}

// ----- Reverb ----- //

// Schroeder architecture: four parallel feedback combs with a damping
// lowpass in the loop, then two series allpasses for diffusion. Comb
// lengths are primes picked for 44.1kHz to avoid periodic ringing;
// they scale with the actual sample rate.
var combLengths = [4]int{1687, 1601, 2053, 2251}
var allpassLengths = [2]int{389, 307}

const allpassCoef = 0.5
const reverbAttenuation = 0.3

type combFilter struct {
	buf      []float64
	pos      int
	feedback float64
	damp     float64
	store    float64
}

func (c *combFilter) process(in float64) float64 {
	out := c.buf[c.pos]
	c.store = out*(1-c.damp) + c.store*c.damp
	c.buf[c.pos] = in + c.store*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpassFilter struct {
	buf []float64
	pos int
}

func (a *allpassFilter) process(in float64) float64 {
	delayed := a.buf[a.pos]
	a.buf[a.pos] = in + delayed*allpassCoef
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return delayed - in
}

type reverbFx struct {
	combs     [4]combFilter
	allpasses [2]allpassFilter
	mix       float64
}

func newReverbFx(p reverbParams, sampleRate float64) *reverbFx {
	room := clamp(p.roomSize, 0, 1)
	damp := clamp(p.damping, 0, 0.99)
	r := &reverbFx{mix: clamp(p.mix, 0, 1)}
	scale := sampleRate / 44100.0
	// Room size maps to comb feedback, kept below unity so the tail
	// always decays. Each comb decays slightly differently.
	decayScales := [4]float64{0.97, 0.95, 0.93, 0.91}
	for i := range r.combs {
		length := int(float64(combLengths[i]) * scale)
		if length < 1 {
			length = 1
		}
		r.combs[i] = combFilter{
			buf:      make([]float64, length),
			feedback: (0.70 + 0.28*room) * decayScales[i],
			damp:     damp,
		}
	}
	for i := range r.allpasses {
		length := int(float64(allpassLengths[i]) * scale)
		if length < 1 {
			length = 1
		}
		r.allpasses[i] = allpassFilter{buf: make([]float64, length)}
	}
	return r
}

func (r *reverbFx) process(in float64) float64 {
	wet := 0.0
	for i := range r.combs {
		wet += r.combs[i].process(in)
	}
	for i := range r.allpasses {
		wet = r.allpasses[i].process(wet)
	}
	wet *= reverbAttenuation
	return in*(1-r.mix) + wet*r.mix
}
