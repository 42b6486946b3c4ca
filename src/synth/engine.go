package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/sirupsen/logrus"
)

// ----- State ----- //

// The visual display keeps a note lit for at least this long after the
// key is released, even with release at zero.
const minFadeSeconds = 0.1

type state struct {
	sync.Mutex
	params  *params
	voice   *voice // active pipeline, nil when silent
	session *session

	// observables for the visual-feedback collaborator
	currentFreq    float64 // 0 = none
	animationStart float64
	releasedAt     float64 // 0 = key still considered held
	fadeDuration   float64 // s, snapshot of release at key-up
}

func newState() *state {
	return &state{
		params:  newParams(),
		session: newSession(),
	}
}

// trigger assembles a fresh pipeline from the current configuration and
// installs it, replacing whatever was playing. Must be called with the
// state lock held.
func (s *state) trigger(note Note, octave int, nowTime float64) {
	freq := note.Frequency(octave)
	if s.params.filterOn {
		freq *= s.params.filterFactor
	}
	s.voice = newVoice(s.params.waveform, note, octave, freq, s.params.adsr, s.params.fx)
	s.currentFreq = freq
	s.animationStart = nowTime
	s.releasedAt = 0
	s.session.noteOn(note, octave, nowTime)
}

// ----- Engine ----- //

// Engine is the synthesizer core. It produces the audio stream (as an
// io.Reader of 16-bit little-endian interleaved stereo) and consumes
// trigger, parameter and transport commands.
type Engine struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
}

var _ io.Reader = (*Engine)(nil)

// NewEngine creates an engine with default configuration. The audio
// device is not opened until Start.
func NewEngine() *Engine {
	e := &Engine{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		state:     newState(),
	}
	go processCommands(e, e.CommandCh)
	return e
}

func processCommands(e *Engine, commandCh <-chan []string) {
	for command := range commandCh {
		if err := e.update(command); err != nil {
			logrus.WithFields(logrus.Fields{
				"command": command,
			}).WithError(err).Warn("command failed")
		}
	}
	logrus.Info("processCommands() ended")
}

// ----- Note Triggering ----- //

// NoteOn triggers the note at the live octave, cutting whatever was
// playing before.
func (e *Engine) NoteOn(note Note) {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.trigger(note, e.state.params.octave, now())
}

// TriggerNote triggers the note at an explicit octave. The live octave
// setting is not touched, so replayed notes cannot leak their octave
// into subsequent live triggers.
func (e *Engine) TriggerNote(note Note, octave int) {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.trigger(note, clampInt(octave, octaveLowerBound, octaveUpperBound), now())
}

// ReleaseImplicit signals that no key is held anymore. Very short
// release settings hard-stop the voice; otherwise the envelope performs
// the release (or auto-releases on its own).
func (e *Engine) ReleaseImplicit() {
	e.state.Lock()
	defer e.state.Unlock()
	if e.state.currentFreq == 0 || e.state.releasedAt != 0 {
		return
	}
	// A live voice is never mutated from this side: either it is cut
	// here, or the envelope auto-releases on its own.
	if e.state.params.adsr.release <= 10 {
		e.state.voice = nil
	}
	e.state.releasedAt = now()
	e.state.fadeDuration = e.state.params.adsr.releaseSeconds()
}

// ----- Configuration ----- //

// SetWaveform selects the generator formula for subsequent notes.
func (e *Engine) SetWaveform(kind string) error {
	k, err := waveKindFromString(kind)
	if err != nil {
		return err
	}
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.waveform = k
	return nil
}

// ToggleWaveform cycles sine -> square -> triangle -> saw.
func (e *Engine) ToggleWaveform() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.waveform = nextWaveKind(e.state.params.waveform)
}

func (e *Engine) IncreaseOctave() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.increaseOctave()
}
func (e *Engine) DecreaseOctave() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.decreaseOctave()
}
func (e *Engine) ToggleFilter() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.toggleFilter()
}
func (e *Engine) IncreaseFilterCutoff() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.increaseFilterCutoff()
}
func (e *Engine) DecreaseFilterCutoff() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.params.decreaseFilterCutoff()
}

// SetEnvelopeParam sets one of attack/decay/sustain/release to a 0-99
// control value.
func (e *Engine) SetEnvelopeParam(which string, value int) error {
	e.state.Lock()
	defer e.state.Unlock()
	return e.state.params.adsr.set(which, strconv.Itoa(value))
}

// ToggleEffect flips the enabled flag of "delay", "reverb" or
// "flanger". Voices already playing keep the chain they were built
// with; only subsequent voices see the change.
func (e *Engine) ToggleEffect(which string) error {
	e.state.Lock()
	defer e.state.Unlock()
	switch which {
	case "delay":
		e.state.params.fx.delay.enabled = !e.state.params.fx.delay.enabled
	case "reverb":
		e.state.params.fx.reverb.enabled = !e.state.params.fx.reverb.enabled
	case "flanger":
		e.state.params.fx.flanger.enabled = !e.state.params.fx.flanger.enabled
	default:
		return fmt.Errorf("unknown effect %q", which)
	}
	return nil
}

// ----- Recording & Playback ----- //

func (e *Engine) StartRecording() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.session.startRecording(now())
}
func (e *Engine) StopRecording() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.session.stopRecording(now())
}
func (e *Engine) StartPlayback() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.session.startPlayback(now())
}
func (e *Engine) StopPlayback() {
	e.state.Lock()
	defer e.state.Unlock()
	e.state.session.stopPlayback()
}

// Tick runs one scheduler pass: replayed notes that came due are
// triggered at their recorded octave, and the visual fade is cleared
// once the release window has passed. Called from the control loop at
// ~60Hz.
func (e *Engine) Tick(nowTime float64) {
	e.state.Lock()
	defer e.state.Unlock()
	for _, n := range e.state.session.advance(nowTime) {
		e.state.trigger(n.Note, n.Octave, nowTime)
	}
	if e.state.releasedAt != 0 {
		fade := e.state.fadeDuration
		if fade < minFadeSeconds {
			fade = minFadeSeconds
		}
		if nowTime-e.state.releasedAt > fade {
			e.state.currentFreq = 0
			e.state.releasedAt = 0
		}
	}
}

// ----- Snapshot ----- //

// Snapshot is a read-only view for UI/visual collaborators.
type Snapshot struct {
	Frequency      float64 // 0 when nothing sounds
	Amplitude      float64 // display fade fraction, 1 while held
	Waveform       string
	Attack         int
	Decay          int
	Sustain        int
	Release        int
	Octave         int
	FilterOn       bool
	FilterFactor   float64
	DelayOn        bool
	ReverbOn       bool
	FlangerOn      bool
	RecordingState string
	RecordedNotes  []RecordedNote
}

func (e *Engine) Snapshot() Snapshot {
	e.state.Lock()
	defer e.state.Unlock()
	p := e.state.params
	amp := 0.0
	if e.state.currentFreq != 0 {
		amp = 1.0
		if e.state.releasedAt != 0 {
			fade := e.state.fadeDuration
			if fade < minFadeSeconds {
				fade = minFadeSeconds
			}
			amp = clamp(1-(now()-e.state.releasedAt)/fade, 0, 1)
		}
	}
	return Snapshot{
		Frequency:      e.state.currentFreq,
		Amplitude:      amp,
		Waveform:       waveKindToString(p.waveform),
		Attack:         p.adsr.attack,
		Decay:          p.adsr.decay,
		Sustain:        p.adsr.sustain,
		Release:        p.adsr.release,
		Octave:         p.octave,
		FilterOn:       p.filterOn,
		FilterFactor:   p.filterFactor,
		DelayOn:        p.fx.delay.enabled,
		ReverbOn:       p.fx.reverb.enabled,
		FlangerOn:      p.fx.flanger.enabled,
		RecordingState: sessionStateToString(e.state.session.state),
		RecordedNotes:  e.state.session.recordedNotes(),
	}
}

// ----- JSON ----- //

type engineJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON replaces the whole configuration, e.g. from a UI sync.
func (e *Engine) ApplyJSON(data []byte) {
	e.state.Lock()
	defer e.state.Unlock()
	var j engineJSON
	if err := json.Unmarshal(data, &j); err != nil {
		logrus.WithError(err).Warn("failed to apply JSON to engine")
		return
	}
	e.state.params.applyJSON(j.Params)
}

// ToJSON serializes the current configuration.
func (e *Engine) ToJSON() []byte {
	e.state.Lock()
	defer e.state.Unlock()
	bytes, err := json.Marshal(&engineJSON{Params: e.state.params.toJSON()})
	if err != nil {
		panic(err)
	}
	return bytes
}

// ----- Commands ----- //

// update dispatches one command from a UI/input collaborator.
func (e *Engine) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "note_on":
		if len(command) < 2 {
			return fmt.Errorf("note_on requires a note")
		}
		note, err := noteFromString(command[1])
		if err != nil {
			return err
		}
		if len(command) >= 3 {
			octave, err := strconv.ParseInt(command[2], 10, 64)
			if err != nil {
				return err
			}
			e.TriggerNote(note, int(octave))
		} else {
			e.NoteOn(note)
		}
	case "note_off":
		e.ReleaseImplicit()
	case "toggle_waveform":
		e.ToggleWaveform()
	case "toggle_effect":
		if len(command) < 2 {
			return fmt.Errorf("toggle_effect requires an effect name")
		}
		return e.ToggleEffect(command[1])
	case "toggle_filter":
		e.ToggleFilter()
	case "octave":
		if len(command) < 2 {
			return fmt.Errorf("octave requires up or down")
		}
		switch command[1] {
		case "up":
			e.IncreaseOctave()
		case "down":
			e.DecreaseOctave()
		default:
			return fmt.Errorf("unknown octave direction %q", command[1])
		}
	case "record":
		if len(command) < 2 {
			return fmt.Errorf("record requires start or stop")
		}
		switch command[1] {
		case "start":
			e.StartRecording()
		case "stop":
			e.StopRecording()
		default:
			return fmt.Errorf("unknown record action %q", command[1])
		}
	case "play":
		if len(command) < 2 {
			return fmt.Errorf("play requires start or stop")
		}
		switch command[1] {
		case "start":
			e.StartPlayback()
		case "stop":
			e.StopPlayback()
		default:
			return fmt.Errorf("unknown play action %q", command[1])
		}
	case "set":
		if len(command) != 4 {
			return fmt.Errorf("invalid set command %v", command)
		}
		e.state.Lock()
		defer e.state.Unlock()
		switch command[1] {
		case "synth":
			return e.state.params.set(command[2], command[3])
		case "adsr":
			return e.state.params.adsr.set(command[2], command[3])
		case "delay":
			return e.state.params.fx.delay.set(command[2], command[3])
		case "reverb":
			return e.state.params.fx.reverb.set(command[2], command[3])
		case "flanger":
			return e.state.params.fx.flanger.set(command[2], command[3])
		default:
			return fmt.Errorf("unknown section %q", command[1])
		}
	case "preset":
		if len(command) != 3 {
			return fmt.Errorf("invalid preset command %v", command)
		}
		switch command[1] {
		case "save":
			return e.SavePreset(command[2])
		case "load":
			return e.LoadPreset(command[2])
		default:
			return fmt.Errorf("unknown preset action %q", command[1])
		}
	default:
		return fmt.Errorf("unknown command %q", command[0])
	}
	return nil
}

// ----- Audio Output ----- //

// Read fills buf with 16-bit little-endian interleaved stereo pulled
// from the active voice. The audio consumer owns the voice from here:
// nothing mutates a playing pipeline, the trigger side only replaces it.
func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		logrus.Info("Read() interrupted")
		return 0, io.EOF
	default:
		e.state.Lock()
		defer e.state.Unlock()
		sampleLength := len(buf) / bytesPerSample
		for i := 0; i < sampleLength; i++ {
			value := 0.0
			if e.state.voice != nil {
				v, ok := e.state.voice.next()
				if !ok {
					e.state.voice = nil
				}
				value = v
			}
			writeSample(buf, i, value)
		}
		return sampleLength * bytesPerSample, nil
	}
}

func writeSample(buf []byte, i int, value float64) {
	const max = 32767
	b := int16(clamp(value, -1, 1) * max)
	for ch := 0; ch < channelNum; ch++ {
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// ----- Lifecycle ----- //

// Start opens the audio device and blocks feeding it until ctx is
// cancelled. Device unavailability is fatal and returned to the caller.
func (e *Engine) Start(ctx context.Context) error {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return err
	}
	e.otoContext = otoContext
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			logrus.WithError(err).Error("failed to close player")
		}
	}()
	e.ctx = ctx
	if _, err := io.CopyBuffer(p, e, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	logrus.Info("Start() ended")
	return nil
}

// Close releases the audio device and stops command processing.
func (e *Engine) Close() error {
	logrus.Info("closing engine")
	close(e.CommandCh)
	if e.otoContext != nil {
		return e.otoContext.Close()
	}
	return nil
}
