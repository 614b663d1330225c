package script

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

func TestValidateScriptRenumbersAndDefaults(t *testing.T) {
	s := &models.Script{
		Title: "Photosynthesis",
		Slides: []models.Slide{
			{SlideNumber: 3, Heading: "Light Reactions", Narration: "Plants absorb light.", VisualType: "diagram"},
			{SlideNumber: 3, Narration: "ATP is produced.", Duration: -5},
		},
	}

	if err := validateScript(s); err != nil {
		t.Fatalf("validateScript failed: %v", err)
	}

	if s.Slides[0].SlideNumber != 1 || s.Slides[1].SlideNumber != 2 {
		t.Errorf("slides not renumbered: %d, %d", s.Slides[0].SlideNumber, s.Slides[1].SlideNumber)
	}
	if s.Slides[1].Heading != "Part 2" {
		t.Errorf("expected default heading, got %q", s.Slides[1].Heading)
	}
	if s.Slides[1].Duration != 30 {
		t.Errorf("expected default duration 30, got %d", s.Slides[1].Duration)
	}
	if s.Slides[0].VisualType != string(models.VisualHierarchy) {
		t.Errorf("expected diagram alias normalized to hierarchy, got %q", s.Slides[0].VisualType)
	}
}

func TestValidateScriptRejectsEmptyNarration(t *testing.T) {
	s := &models.Script{
		Title:  "Topic",
		Slides: []models.Slide{{Narration: "   "}},
	}
	err := validateScript(s)
	if err == nil {
		t.Fatal("expected error for empty narration")
	}
	if apperr.KindOf(err) != apperr.KindGeneration {
		t.Errorf("expected KindGeneration, got %s", apperr.KindOf(err))
	}
}

func TestValidateScriptRejectsEmpty(t *testing.T) {
	if err := validateScript(&models.Script{Title: "T"}); err == nil {
		t.Error("expected error for zero slides")
	}
	if err := validateScript(&models.Script{Slides: []models.Slide{{Narration: "x"}}}); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestValidateDialogueFixesSpeakers(t *testing.T) {
	d := &models.DialogueScript{
		Title: "Quantum Computing",
		Dialogue: []models.Turn{
			{Speaker: "Host A", Text: "What is a qubit?"},
			{Speaker: "Host B", Text: "A quantum bit."},
			{Speaker: "Sam", Text: "Exactly."},
		},
	}

	if err := validateDialogue(d); err != nil {
		t.Fatalf("validateDialogue failed: %v", err)
	}

	if d.Dialogue[0].Speaker != "Alex" {
		t.Errorf("expected turn 0 reassigned to Alex, got %q", d.Dialogue[0].Speaker)
	}
	if d.Dialogue[1].Speaker != "Sam" {
		t.Errorf("expected turn 1 reassigned to Sam, got %q", d.Dialogue[1].Speaker)
	}
	if d.Dialogue[2].Speaker != "Sam" {
		t.Errorf("known speaker should be untouched, got %q", d.Dialogue[2].Speaker)
	}
}

func TestValidateDialogueRejectsEmptyText(t *testing.T) {
	d := &models.DialogueScript{
		Title:    "T",
		Dialogue: []models.Turn{{Speaker: "Alex", Text: ""}},
	}
	if err := validateDialogue(d); err == nil {
		t.Fatal("expected error for empty turn text")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"{\"a\": 1}", "{\"a\": 1}"},
		{"```json\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"  ```json\n{}\n```  ", "{}"},
	}
	for _, c := range cases {
		if got := stripCodeFence(c.in); got != c.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildVideoPromptCapsContent(t *testing.T) {
	long := strings.Repeat("a", videoPromptContentLimit+5000)
	prompt := buildVideoPrompt("Title", long, models.GenerationOptions{})

	if strings.Count(prompt, "a") > videoPromptContentLimit+100 {
		t.Error("content not capped in video prompt")
	}
	if !strings.Contains(prompt, "college students") {
		t.Error("expected default audience in prompt")
	}

	// Non-ASCII source content must be cut on a rune boundary, not a byte
	// offset.
	long = strings.Repeat("日", videoPromptContentLimit+100)
	prompt = buildVideoPrompt("Title", long, models.GenerationOptions{})
	if !utf8.ValidString(prompt) {
		t.Error("capped prompt contains a split rune")
	}
}

func TestBuildVideoPromptOptions(t *testing.T) {
	prompt := buildVideoPrompt("Title", "body", models.GenerationOptions{
		TargetAudience: "high school students",
		FocusArea:      "the Krebs cycle",
		Tone:           "casual",
	})
	for _, want := range []string{"high school students", "Krebs cycle", "casual"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildDialoguePromptHosts(t *testing.T) {
	prompt := buildDialoguePrompt("Title", "body", models.GenerationOptions{})
	if !strings.Contains(prompt, "Alex") || !strings.Contains(prompt, "Sam") {
		t.Error("expected both host names in dialogue prompt")
	}
}
