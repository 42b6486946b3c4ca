package synth

import (
	"context"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/rtmididrv"
)

// ----- MIDI ----- //

// AddMidiEvent translates a raw MIDI message into a trigger or release.
// The note number carries its own octave, clamped to the synth's range.
func (e *Engine) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	status := data[0] >> 4
	if status == 8 || (status == 9 && data[2] == 0) {
		logrus.WithFields(logrus.Fields{"data": data}).Debug("got note-off")
		e.ReleaseImplicit()
	} else if status == 9 && data[2] > 0 {
		logrus.WithFields(logrus.Fields{"data": data}).Debug("got note-on")
		note := Note(int(data[1]) % 12)
		octave := int(data[1])/12 - 1
		e.TriggerNote(note, octave)
	}
}

// ListenToMidiIn opens the first MIDI input and forwards its messages
// until ctx is cancelled.
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		drv, err := rtmididrv.New()
		if err != nil {
			logrus.WithError(err).Warn("failed to initialize MIDI driver")
			return
		}
		defer func() {
			if err := drv.Close(); err != nil {
				logrus.WithError(err).Warn("failed to close MIDI driver")
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			logrus.WithError(err).Warn("failed to get MIDI IN")
			return
		}
		if len(ins) == 0 {
			logrus.Warn("MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			logrus.WithError(err).Warn("failed to open MIDI IN")
			return
		}
		logrus.WithFields(logrus.Fields{"port": in.String()}).Info("listening to MIDI IN")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			ch <- data
		}); err != nil {
			logrus.WithError(err).Warn("failed to set MIDI listener")
		}
		defer func() {
			if err := in.StopListening(); err != nil {
				logrus.WithError(err).Warn("failed to stop listening")
			}
		}()
		defer close(ch)
		<-ctx.Done()
	}()
	return ch
}
