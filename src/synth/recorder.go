package synth

import (
	"math"

	"github.com/sirupsen/logrus"
)

// ----- Recording & Playback ----- //

const (
	sessionStopped = iota
	sessionRecording
	sessionPlaying
)

func sessionStateToString(state int) string {
	switch state {
	case sessionRecording:
		return "recording"
	case sessionPlaying:
		return "playing"
	}
	return "stopped"
}

// Notes that sit at the very start of the loop are fired right after a
// wrap if their timestamp falls inside this window.
const loopEpsilon = 0.05 // s

// RecordedNote is one finalized note of a recorded performance.
// Timestamps are seconds from recording start and non-decreasing in
// append order.
type RecordedNote struct {
	Note      Note
	Octave    int
	Timestamp float64 // s from recording start
	Duration  float64 // s held
}

type pendingNote struct {
	note   Note
	octave int
	start  float64
}

// session owns all recording and playback state, including the playback
// watermark. Every method takes the current time explicitly, so the
// scheduler is pure with respect to its inputs and sessions never share
// hidden state.
type session struct {
	state       int
	notes       []RecordedNote
	recordStart float64
	playStart   float64
	pending     *pendingNote
	watermark   float64 // last examined playback position
}

func newSession() *session {
	return &session{state: sessionStopped}
}

func (s *session) startRecording(now float64) {
	if s.state != sessionStopped {
		return
	}
	s.state = sessionRecording
	s.recordStart = now
	s.notes = s.notes[:0]
	s.pending = nil
	logrus.Info("recording started")
}

// noteOn observes a trigger. While recording, the previous in-progress
// note is finalized and the new one starts tracking.
func (s *session) noteOn(note Note, octave int, nowTime float64) {
	if s.state != sessionRecording {
		return
	}
	s.finalizePending(nowTime)
	s.pending = &pendingNote{note: note, octave: octave, start: nowTime}
}

func (s *session) finalizePending(nowTime float64) {
	if s.pending == nil {
		return
	}
	s.notes = append(s.notes, RecordedNote{
		Note:      s.pending.note,
		Octave:    s.pending.octave,
		Timestamp: s.pending.start - s.recordStart,
		Duration:  nowTime - s.pending.start,
	})
	s.pending = nil
}

func (s *session) stopRecording(now float64) {
	if s.state != sessionRecording {
		return
	}
	s.finalizePending(now)
	s.state = sessionStopped
	s.recordStart = 0
	logrus.WithFields(logrus.Fields{
		"notes": len(s.notes),
	}).Info("recording stopped")
}

// startPlayback is a no-op when nothing was recorded.
func (s *session) startPlayback(now float64) {
	if s.state != sessionStopped || len(s.notes) == 0 {
		return
	}
	s.state = sessionPlaying
	s.playStart = now
	s.watermark = -1
	logrus.WithFields(logrus.Fields{
		"notes":      len(s.notes),
		"loopLength": s.loopLength(),
	}).Info("playback started")
}

func (s *session) stopPlayback() {
	if s.state != sessionPlaying {
		return
	}
	s.state = sessionStopped
	s.playStart = 0
	logrus.Info("playback stopped")
}

// loopLength is the full extent of the performance: the farthest point
// any note is still sounding.
func (s *session) loopLength() float64 {
	max := 0.0
	for _, n := range s.notes {
		end := n.Timestamp + n.Duration
		if end > max {
			max = end
		}
	}
	return max
}

// advance moves the watermark to the current playback position and
// returns the notes that newly came due. A note fires when the position
// crosses its timestamp going forward, or right after a loop wrap when
// its timestamp sits inside the leading window.
func (s *session) advance(nowTime float64) []RecordedNote {
	if s.state != sessionPlaying || len(s.notes) == 0 {
		return nil
	}
	elapsed := nowTime - s.playStart
	loopLen := s.loopLength()
	pos := elapsed
	if loopLen > 0 {
		pos = math.Mod(elapsed, loopLen)
	}
	wrapped := pos < s.watermark
	var due []RecordedNote
	for _, n := range s.notes {
		crossed := s.watermark < n.Timestamp && n.Timestamp <= pos
		atLoopStart := wrapped && n.Timestamp < loopEpsilon
		if crossed || atLoopStart {
			due = append(due, n)
		}
	}
	s.watermark = pos
	return due
}

// recordedNotes returns a copy for visualization.
func (s *session) recordedNotes() []RecordedNote {
	out := make([]RecordedNote, len(s.notes))
	copy(out, s.notes)
	return out
}
