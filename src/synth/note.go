package synth

import (
	"fmt"
	"math"
)

// ----- Note ----- //

const (
	octaveLowerBound = 1
	octaveUpperBound = 7
	defaultOctave    = 4
)

// Note is a pitch class within one octave, C through B.
type Note int

const (
	NoteC Note = iota
	NoteCSharp
	NoteD
	NoteDSharp
	NoteE
	NoteF
	NoteFSharp
	NoteG
	NoteGSharp
	NoteA
	NoteASharp
	NoteB
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (n Note) String() string {
	if n < 0 || int(n) >= len(noteNames) {
		return "?"
	}
	return noteNames[n]
}

func noteFromString(s string) (Note, error) {
	for i, name := range noteNames {
		if name == s {
			return Note(i), nil
		}
	}
	return 0, fmt.Errorf("unknown note %q", s)
}

// Frequency returns the equal-tempered pitch of the note at the given
// octave, referenced to A4 = 440 Hz.
func (n Note) Frequency(octave int) float64 {
	semitones := int(n) - int(NoteA) + (octave-4)*12
	return baseFreq * math.Pow(2, float64(semitones)/12)
}
