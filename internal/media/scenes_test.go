package media

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/educast/educast/internal/models"
)

func TestSceneName(t *testing.T) {
	if got := SceneName(0); got != "Slide0Scene" {
		t.Errorf("SceneName(0) = %q", got)
	}
	if got := SceneName(4); got != "Slide4Scene" {
		t.Errorf("SceneName(4) = %q", got)
	}
}

func TestGenerateManimSource(t *testing.T) {
	script := &models.Script{
		Title: "Neural Networks",
		Slides: []models.Slide{
			{SlideNumber: 1, Heading: "Intro", Narration: "Neural networks mimic the brain.", VisualType: "text", Duration: 20},
			{SlideNumber: 2, Heading: "Math", Narration: "y = Wx + b describes one layer.", VisualType: "math", Duration: 30},
			{SlideNumber: 3, Heading: "Training", Narration: "Loss decreases over epochs.", VisualType: "graph", Duration: 25},
		},
	}

	src := GenerateManimSource(script, "video_abc123def456")

	for _, want := range []string{
		"from manim import *",
		"config.pixel_height = 720",
		"config.pixel_width = 1280",
		"config.frame_rate = 30",
		"class Slide0Scene(Scene):",
		"class Slide1Scene(Scene):",
		"class Slide2Scene(Scene):",
		"class FullVideo(Scene):",
		"video_abc123def456",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q", want)
		}
	}

	if strings.Contains(src, "Slide3Scene") {
		t.Error("generated a scene beyond the slide count")
	}
}

func TestGenerateManimSourceEscapesQuotes(t *testing.T) {
	script := &models.Script{
		Title: "Quotes",
		Slides: []models.Slide{
			{SlideNumber: 1, Heading: `The "Big" Idea`, Narration: "Something substantial to narrate here.", VisualType: "text", Duration: 10},
		},
	}

	src := GenerateManimSource(script, "video_000000000000")
	if strings.Contains(src, `"The "Big" Idea"`) {
		t.Error("unescaped quotes in generated Python literal")
	}
	if !strings.Contains(src, `\"Big\"`) {
		t.Error("expected escaped quotes in heading")
	}
}

func TestBulletsForExplicit(t *testing.T) {
	slide := models.Slide{
		BulletPoints: []string{"one", "two", "three", "four"},
		Narration:    "ignored when bullets exist",
	}
	got := bulletsFor(slide)
	if len(got) != 3 {
		t.Fatalf("expected 3 bullets, got %d", len(got))
	}
	if got[0] != "one" || got[2] != "three" {
		t.Errorf("unexpected bullets: %v", got)
	}
}

func TestBulletsForDerived(t *testing.T) {
	slide := models.Slide{
		Narration: "Mitochondria produce ATP for the cell. Too short. Ribosomes assemble proteins from amino acids. The endoplasmic reticulum folds and transports them onward through the cell.",
	}
	got := bulletsFor(slide)
	if len(got) == 0 {
		t.Fatal("expected derived bullets")
	}
	for _, b := range got {
		if len(b) > 53 {
			t.Errorf("bullet too long: %q", b)
		}
	}
	if got[0] != "Mitochondria produce ATP for the cell" {
		t.Errorf("unexpected first bullet: %q", got[0])
	}
	for _, b := range got {
		if b == "Too short" {
			t.Error("short fragment should be skipped")
		}
	}
}

func TestEscapePy(t *testing.T) {
	got := escapePy("a \"quoted\"\nback\\slash")
	if got != `a \"quoted\" back\\slash` {
		t.Errorf("escapePy = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("ab", 4); got != "ab" {
		t.Errorf("truncate should be identity under limit, got %q", got)
	}

	// Multi-byte headings must not be cut mid-rune; a split rune breaks the
	// generated Python source.
	got := truncate("日本語のテキスト", 4)
	if got != "日本語の" {
		t.Errorf("truncate on runes = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
}
