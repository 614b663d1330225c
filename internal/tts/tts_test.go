package tts

import (
	"testing"

	"github.com/educast/educast/internal/models"
)

func TestNewVoicesOverrides(t *testing.T) {
	v := NewVoices("en-GB-RyanNeural", "", "en-US-AriaNeural")

	if v.Alex.Voice != "en-GB-RyanNeural" {
		t.Errorf("Alex override not applied: %s", v.Alex.Voice)
	}
	if v.Alex.Rate != DefaultAlex.Rate {
		t.Error("override should keep the default rate")
	}
	if v.Sam.Voice != DefaultSam.Voice {
		t.Errorf("Sam should keep default voice, got %s", v.Sam.Voice)
	}
	if v.Narrator.Voice != "en-US-AriaNeural" {
		t.Errorf("Narrator override not applied: %s", v.Narrator.Voice)
	}
}

func TestForSpeaker(t *testing.T) {
	v := NewVoices("", "", "")

	if v.ForSpeaker("Alex").Name != "Alex" {
		t.Error("expected Alex profile")
	}
	if v.ForSpeaker("Sam").Name != "Sam" {
		t.Error("expected Sam profile")
	}
	if v.ForSpeaker("Mystery Guest").Name != "Sam" {
		t.Error("unknown speakers should fall back to Sam")
	}
	if v.ForTurn(models.Turn{Speaker: "Alex"}).Name != "Alex" {
		t.Error("ForTurn should dispatch on the turn speaker")
	}
}
