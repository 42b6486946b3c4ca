package synth

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ----- Presets ----- //

type adsrYAML struct {
	Attack  int `yaml:"attack"`
	Decay   int `yaml:"decay"`
	Sustain int `yaml:"sustain"`
	Release int `yaml:"release"`
}
type delayYAML struct {
	Enabled  bool    `yaml:"enabled"`
	TimeMs   float64 `yaml:"timeMs"`
	Feedback float64 `yaml:"feedback"`
	Mix      float64 `yaml:"mix"`
}
type reverbYAML struct {
	Enabled  bool    `yaml:"enabled"`
	RoomSize float64 `yaml:"roomSize"`
	Damping  float64 `yaml:"damping"`
	Mix      float64 `yaml:"mix"`
}
type flangerYAML struct {
	Enabled bool    `yaml:"enabled"`
	RateHz  float64 `yaml:"rateHz"`
	Depth   float64 `yaml:"depth"`
	BaseMs  float64 `yaml:"baseMs"`
	Mix     float64 `yaml:"mix"`
}
type presetYAML struct {
	Waveform     string      `yaml:"waveform"`
	Octave       int         `yaml:"octave"`
	FilterOn     bool        `yaml:"filterOn"`
	FilterFactor float64     `yaml:"filterFactor"`
	Adsr         adsrYAML    `yaml:"adsr"`
	Delay        delayYAML   `yaml:"delay"`
	Reverb       reverbYAML  `yaml:"reverb"`
	Flanger      flangerYAML `yaml:"flanger"`
}

// SavePreset writes the current configuration as YAML.
func (e *Engine) SavePreset(path string) error {
	e.state.Lock()
	p := e.state.params
	preset := presetYAML{
		Waveform:     waveKindToString(p.waveform),
		Octave:       p.octave,
		FilterOn:     p.filterOn,
		FilterFactor: p.filterFactor,
		Adsr: adsrYAML{
			Attack:  p.adsr.attack,
			Decay:   p.adsr.decay,
			Sustain: p.adsr.sustain,
			Release: p.adsr.release,
		},
		Delay: delayYAML{
			Enabled:  p.fx.delay.enabled,
			TimeMs:   p.fx.delay.timeMs,
			Feedback: p.fx.delay.feedback,
			Mix:      p.fx.delay.mix,
		},
		Reverb: reverbYAML{
			Enabled:  p.fx.reverb.enabled,
			RoomSize: p.fx.reverb.roomSize,
			Damping:  p.fx.reverb.damping,
			Mix:      p.fx.reverb.mix,
		},
		Flanger: flangerYAML{
			Enabled: p.fx.flanger.enabled,
			RateHz:  p.fx.flanger.rateHz,
			Depth:   p.fx.flanger.depth,
			BaseMs:  p.fx.flanger.baseMs,
			Mix:     p.fx.flanger.mix,
		},
	}
	e.state.Unlock()
	data, err := yaml.Marshal(&preset)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"path": path}).Info("preset saved")
	return nil
}

// LoadPreset replaces the configuration for subsequent notes; whatever
// is playing keeps the parameters it was built with.
func (e *Engine) LoadPreset(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var preset presetYAML
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return err
	}
	kind, err := waveKindFromString(preset.Waveform)
	if err != nil {
		return err
	}
	e.state.Lock()
	p := e.state.params
	p.waveform = kind
	p.octave = clampInt(preset.Octave, octaveLowerBound, octaveUpperBound)
	p.filterOn = preset.FilterOn
	p.filterFactor = clamp(preset.FilterFactor, 0.15, 1.0)
	p.adsr.attack = clampInt(preset.Adsr.Attack, 0, 99)
	p.adsr.decay = clampInt(preset.Adsr.Decay, 0, 99)
	p.adsr.sustain = clampInt(preset.Adsr.Sustain, 0, 99)
	p.adsr.release = clampInt(preset.Adsr.Release, 0, 99)
	p.fx.delay.enabled = preset.Delay.Enabled
	p.fx.delay.timeMs = preset.Delay.TimeMs
	p.fx.delay.feedback = preset.Delay.Feedback
	p.fx.delay.mix = preset.Delay.Mix
	p.fx.reverb.enabled = preset.Reverb.Enabled
	p.fx.reverb.roomSize = preset.Reverb.RoomSize
	p.fx.reverb.damping = preset.Reverb.Damping
	p.fx.reverb.mix = preset.Reverb.Mix
	p.fx.flanger.enabled = preset.Flanger.Enabled
	p.fx.flanger.rateHz = preset.Flanger.RateHz
	p.fx.flanger.depth = preset.Flanger.Depth
	p.fx.flanger.baseMs = preset.Flanger.BaseMs
	p.fx.flanger.mix = preset.Flanger.Mix
	e.state.Unlock()
	logrus.WithFields(logrus.Fields{"path": path}).Info("preset loaded")
	return nil
}
