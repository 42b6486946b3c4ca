package synth

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ----- Flanger Params ----- //

type flangerParams struct {
	enabled bool
	rateHz  float64 // 0.05-10
	depth   float64 // 0-1, fraction of the base delay
	baseMs  float64 // 1-15
	mix     float64 // 0-1
}
type flangerJSON struct {
	Enabled bool    `json:"enabled"`
	RateHz  float64 `json:"rateHz"`
	Depth   float64 `json:"depth"`
	BaseMs  float64 `json:"baseMs"`
	Mix     float64 `json:"mix"`
}

func newFlangerParams() flangerParams {
	return flangerParams{enabled: false, rateHz: 0.25, depth: 0.8, baseMs: 5, mix: 0.5}
}

func (p *flangerParams) applyJSON(data json.RawMessage) {
	var j flangerJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to flangerParams")
		return
	}
	p.enabled = j.Enabled
	p.rateHz = j.RateHz
	p.depth = j.Depth
	p.baseMs = j.BaseMs
	p.mix = j.Mix
}
func (p *flangerParams) toJSON() json.RawMessage {
	return toRawMessage(&flangerJSON{
		Enabled: p.enabled,
		RateHz:  p.rateHz,
		Depth:   p.depth,
		BaseMs:  p.baseMs,
		Mix:     p.mix,
	})
}
func (p *flangerParams) set(key string, value string) error {
	switch key {
	case "enabled":
		p.enabled = value == "true"
	case "rateHz":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.rateHz = v
	case "depth":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.depth = v
	case "baseMs":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.baseMs = v
	case "mix":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.mix = v
	}
	return nil
}

// ----- Flanger ----- //

// flangerFx sweeps a short delay line around a base offset with a sine
// LFO. The read position is interpolated between samples, giving the
// characteristic comb-filter sweep. The buffer is sized for the widest
// possible offset at construction and never grows.
type flangerFx struct {
	buf        []float64
	write      int
	base       float64 // samples
	depth      float64
	rate       float64 // Hz
	phase      float64 // [0,1)
	sampleRate float64
	mix        float64
}

func newFlangerFx(p flangerParams, sampleRate float64) *flangerFx {
	base := clamp(p.baseMs, 1, 15) * sampleRate / 1000
	depth := clamp(p.depth, 0, 1)
	length := int(base*(1+depth)) + 2
	return &flangerFx{
		buf:        make([]float64, length),
		base:       base,
		depth:      depth,
		rate:       clamp(p.rateHz, 0.05, 10),
		sampleRate: sampleRate,
		mix:        clamp(p.mix, 0, 1),
	}
}

func (f *flangerFx) process(in float64) float64 {
	f.buf[f.write] = in
	offset := f.base * (1 + f.depth*math.Sin(2*math.Pi*f.phase))
	if offset < 1 {
		offset = 1
	}
	readPos := positiveMod(float64(f.write)-offset, float64(len(f.buf)))
	i0 := int(readPos)
	frac := readPos - float64(i0)
	i1 := i0 + 1
	if i1 >= len(f.buf) {
		i1 = 0
	}
	wet := f.buf[i0]*(1-frac) + f.buf[i1]*frac

	f.write++
	if f.write >= len(f.buf) {
		f.write = 0
	}
	f.phase += f.rate / f.sampleRate
	_, f.phase = math.Modf(f.phase)
	return in*(1-f.mix) + wet*f.mix
}
