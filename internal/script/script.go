// Package script turns extracted article text into structured generation
// scripts: slide decks for video, two-host dialogues for audio.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

// Generator produces structured scripts from source content. Implementations
// call a language model in JSON mode and validate the result before returning.
type Generator interface {
	GenerateVideoScript(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.Script, error)
	GenerateDialogue(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.DialogueScript, error)
}

// validSpeakers are the only hosts TTS has voices for.
var validSpeakers = map[string]bool{"Alex": true, "Sam": true}

func validateScript(s *models.Script) error {
	if s.Title == "" {
		return apperr.New(apperr.KindGeneration, "script missing title")
	}
	if len(s.Slides) == 0 {
		return apperr.New(apperr.KindGeneration, "script has no slides")
	}

	for i := range s.Slides {
		slide := &s.Slides[i]
		if strings.TrimSpace(slide.Narration) == "" {
			return apperr.New(apperr.KindGeneration, "slide %d has empty narration", i+1)
		}
		if slide.Heading == "" {
			slide.Heading = fmt.Sprintf("Part %d", i+1)
		}
		// Renumber so downstream file naming never sees gaps or duplicates
		slide.SlideNumber = i + 1
		slide.VisualType = string(models.NormalizeVisualType(slide.VisualType, slide.Heading, slide.VisualDescription))
		if slide.Duration <= 0 {
			slide.Duration = 30
		}
	}

	return nil
}

func validateDialogue(d *models.DialogueScript) error {
	if d.Title == "" {
		return apperr.New(apperr.KindGeneration, "dialogue missing title")
	}
	if len(d.Dialogue) == 0 {
		return apperr.New(apperr.KindGeneration, "dialogue has no turns")
	}

	for i := range d.Dialogue {
		turn := &d.Dialogue[i]
		if strings.TrimSpace(turn.Text) == "" {
			return apperr.New(apperr.KindGeneration, "dialogue turn %d has empty text", i+1)
		}
		if !validSpeakers[turn.Speaker] {
			// Unknown hosts alternate onto the two real voices
			if i%2 == 0 {
				turn.Speaker = "Alex"
			} else {
				turn.Speaker = "Sam"
			}
		}
	}

	return nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models emit even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
