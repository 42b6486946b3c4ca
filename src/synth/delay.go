package synth

import (
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ----- Delay Params ----- //

type delayParams struct {
	enabled  bool
	timeMs   float64 // 10-2000
	feedback float64 // 0-0.95
	mix      float64 // 0-1
}
type delayJSON struct {
	Enabled  bool    `json:"enabled"`
	TimeMs   float64 `json:"timeMs"`
	Feedback float64 `json:"feedback"`
	Mix      float64 `json:"mix"`
}

func newDelayParams() delayParams {
	return delayParams{enabled: false, timeMs: 300, feedback: 0.4, mix: 0.5}
}

func (p *delayParams) applyJSON(data json.RawMessage) {
	var j delayJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to delayParams")
		return
	}
	p.enabled = j.Enabled
	p.timeMs = j.TimeMs
	p.feedback = j.Feedback
	p.mix = j.Mix
}
func (p *delayParams) toJSON() json.RawMessage {
	return toRawMessage(&delayJSON{
		Enabled:  p.enabled,
		TimeMs:   p.timeMs,
		Feedback: p.feedback,
		Mix:      p.mix,
	})
}
func (p *delayParams) set(key string, value string) error {
	switch key {
	case "enabled":
		p.enabled = value == "true"
	case "timeMs":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.timeMs = v
	case "feedback":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.feedback = v
	case "mix":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		p.mix = v
	}
	return nil
}

// ----- Delay ----- //

// delayFx is a feedback delay line. Parameters are clamped at
// construction so the buffer never grows and the feedback loop stays
// below unity gain.
type delayFx struct {
	buf      []float64
	cursor   int
	feedback float64
	mix      float64
}

func newDelayFx(p delayParams, sampleRate float64) *delayFx {
	ms := clamp(p.timeMs, 10, 2000)
	length := int(ms * sampleRate / 1000)
	if length < 1 {
		length = 1
	}
	return &delayFx{
		buf:      make([]float64, length),
		feedback: clamp(p.feedback, 0, 0.95),
		mix:      clamp(p.mix, 0, 1),
	}
}

func (d *delayFx) process(in float64) float64 {
	wet := d.buf[d.cursor]
	d.buf[d.cursor] = in + wet*d.feedback
	d.cursor++
	if d.cursor >= len(d.buf) {
		d.cursor = 0
	}
	return in*(1-d.mix) + wet*d.mix
}
