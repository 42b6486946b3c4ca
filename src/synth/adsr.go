package synth

import (
	"encoding/json"
	"strconv"

	"github.com/sirupsen/logrus"
)

// ----- ADSR Params ----- //

// Fader controls are integers in 0-99. Attack, decay and release scale
// linearly to 0-2 seconds; sustain scales to a loudness fraction 0-1.
const maxStageSeconds = 2.0

type adsrParams struct {
	attack  int // 0-99
	decay   int // 0-99
	sustain int // 0-99
	release int // 0-99
}
type adsrJSON struct {
	Attack  int `json:"attack"`
	Decay   int `json:"decay"`
	Sustain int `json:"sustain"`
	Release int `json:"release"`
}

func newAdsrParams() adsrParams {
	return adsrParams{attack: 0, decay: 0, sustain: 99, release: 20}
}

func (a *adsrParams) attackSeconds() float64 {
	return float64(a.attack) / 99.0 * maxStageSeconds
}
func (a *adsrParams) decaySeconds() float64 {
	return float64(a.decay) / 99.0 * maxStageSeconds
}
func (a *adsrParams) sustainLevel() float64 {
	return float64(a.sustain) / 99.0
}
func (a *adsrParams) releaseSeconds() float64 {
	return float64(a.release) / 99.0 * maxStageSeconds
}

func (a *adsrParams) applyJSON(data json.RawMessage) {
	var j adsrJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to adsrParams")
		return
	}
	a.attack = clampInt(j.Attack, 0, 99)
	a.decay = clampInt(j.Decay, 0, 99)
	a.sustain = clampInt(j.Sustain, 0, 99)
	a.release = clampInt(j.Release, 0, 99)
}
func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  a.attack,
		Decay:   a.decay,
		Sustain: a.sustain,
		Release: a.release,
	})
}
func (a *adsrParams) set(key string, value string) error {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return err
	}
	v := clampInt(int(parsed), 0, 99)
	switch key {
	case "attack":
		a.attack = v
	case "decay":
		a.decay = v
	case "sustain":
		a.sustain = v
	case "release":
		a.release = v
	}
	return nil
}

// ----- ADSR ----- //

const (
	phaseAttack = iota
	phaseDecay
	phaseSustain
	phaseRelease
	phaseDone
)

// A voice with no explicit stop event must still end: the envelope
// releases itself after sustaining this long.
const maxSustainSeconds = 5.0

/*
  1 +   x--x
    |  /    \
  s + /      x------x
    |/               \
  0 +-----+--+------+--+
    |a    |d |      |r |
*/
type adsr struct {
	src     *osc
	attack  float64 // s
	decay   float64 // s
	sustain float64 // 0-1
	release float64 // s

	phase       int
	pos         int // samples since note start
	releasePos  int // samples since release, -1 until released
	maxLifetime float64 // s, hard stop
}

func newAdsr(src *osc, p adsrParams) *adsr {
	a := &adsr{
		src:        src,
		attack:     p.attackSeconds(),
		decay:      p.decaySeconds(),
		sustain:    p.sustainLevel(),
		release:    p.releaseSeconds(),
		phase:      phaseAttack,
		releasePos: -1,
	}
	a.maxLifetime = a.attack + a.decay + maxSustainSeconds + a.release + 1.0
	return a
}

// noteOff starts the release stage. Further calls are no-ops; the phase
// never moves backwards.
func (a *adsr) noteOff() {
	if a.releasePos < 0 {
		a.releasePos = 0
	}
}

func (a *adsr) done() bool {
	return a.phase == phaseDone
}

// amplitude computes the envelope value for the current sample and
// advances the phase state machine.
func (a *adsr) amplitude() float64 {
	elapsed := float64(a.pos) * secPerSample
	if elapsed > a.maxLifetime {
		a.phase = phaseDone
		return 0
	}
	if a.releasePos < 0 && elapsed >= a.attack+a.decay+maxSustainSeconds {
		a.noteOff()
	}
	if a.releasePos >= 0 {
		a.phase = phaseRelease
		if a.release == 0 {
			a.phase = phaseDone
			return 0
		}
		relElapsed := float64(a.releasePos) * secPerSample
		amp := a.sustain * (1 - relElapsed/a.release)
		if amp <= 0 {
			a.phase = phaseDone
			return 0
		}
		a.releasePos++
		a.pos++
		return amp
	}
	var amp float64
	if elapsed <= a.attack {
		a.phase = phaseAttack
		if a.attack == 0 {
			amp = 1
		} else {
			amp = elapsed / a.attack
		}
	} else if elapsed <= a.attack+a.decay {
		a.phase = phaseDecay
		if a.decay == 0 {
			amp = a.sustain
		} else {
			t := (elapsed - a.attack) / a.decay
			amp = 1 - (1-a.sustain)*t
		}
	} else {
		a.phase = phaseSustain
		amp = a.sustain
	}
	a.pos++
	return amp
}

// next produces the next enveloped sample. ok is false once the release
// has completed or the lifetime cap elapsed; the stream is exhausted and
// must be discarded.
func (a *adsr) next() (float64, bool) {
	if a.phase == phaseDone {
		return 0, false
	}
	amp := a.amplitude()
	if a.phase == phaseDone {
		return 0, false
	}
	return a.src.next() * amp, true
}
