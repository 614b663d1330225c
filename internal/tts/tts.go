// Package tts converts script text into speech audio files.
//
// Two engines are available: edge-tts (free Microsoft neural voices, run as
// a Python subprocess) and ElevenLabs (paid REST API). The worker uses
// whichever is configured, preferring edge-tts.
package tts

import (
	"context"

	"github.com/educast/educast/internal/models"
)

// Profile describes one speaking voice.
type Profile struct {
	Name  string // host name or "Narrator"
	Voice string // engine-specific voice id
	Rate  string // e.g. "+5%", edge-tts only
	Pitch string // e.g. "+2Hz", edge-tts only
}

// Engine synthesizes one utterance to an audio file at outPath.
type Engine interface {
	Synthesize(ctx context.Context, text string, profile Profile, outPath string) error
	Name() string
}

// Default voice assignments. Alex is the curious host, Sam explains; the
// narrator voice carries video voiceover.
var (
	DefaultAlex     = Profile{Name: "Alex", Voice: "en-US-GuyNeural", Rate: "+5%", Pitch: "+2Hz"}
	DefaultSam      = Profile{Name: "Sam", Voice: "en-US-JennyNeural", Rate: "+0%", Pitch: "+0Hz"}
	DefaultNarrator = Profile{Name: "Narrator", Voice: "en-US-JennyNeural", Rate: "+0%", Pitch: "+0Hz"}
)

// Voices maps a dialogue speaker to its profile, with optional overrides
// from configuration.
type Voices struct {
	Alex     Profile
	Sam      Profile
	Narrator Profile
}

// NewVoices applies non-empty voice id overrides to the defaults.
func NewVoices(alexVoice, samVoice, narratorVoice string) Voices {
	v := Voices{Alex: DefaultAlex, Sam: DefaultSam, Narrator: DefaultNarrator}
	if alexVoice != "" {
		v.Alex.Voice = alexVoice
	}
	if samVoice != "" {
		v.Sam.Voice = samVoice
	}
	if narratorVoice != "" {
		v.Narrator.Voice = narratorVoice
	}
	return v
}

// ForSpeaker returns the profile for a dialogue turn's speaker. Unknown
// speakers get Sam's voice so synthesis never fails on a name.
func (v Voices) ForSpeaker(speaker string) Profile {
	switch speaker {
	case "Alex":
		return v.Alex
	case "Sam":
		return v.Sam
	default:
		return v.Sam
	}
}

// ForTurn is a convenience for dialogue synthesis.
func (v Voices) ForTurn(t models.Turn) Profile {
	return v.ForSpeaker(t.Speaker)
}
