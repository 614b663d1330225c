package models

import "testing"

func TestNormalizeVisualTypeAliases(t *testing.T) {
	cases := []struct {
		raw  string
		want VisualType
	}{
		{"graph", VisualGraph},
		{"Chart", VisualGraph},
		{"hierarchy", VisualHierarchy},
		{"diagram", VisualHierarchy},
		{"brain_diagram", VisualHierarchy},
		{"flowchart", VisualHierarchy},
		{"formula", VisualMath},
		{"list", VisualList},
		{"code", VisualCode},
		{"text", VisualText},
	}

	for _, c := range cases {
		if got := NormalizeVisualType(c.raw, "", ""); got != c.want {
			t.Errorf("NormalizeVisualType(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestNormalizeVisualTypeInference(t *testing.T) {
	// Unknown raw values fall back to keyword inference over heading and
	// description
	got := NormalizeVisualType("animation", "Revenue Growth", "a chart showing trends over time")
	if got != VisualGraph {
		t.Errorf("expected graph from description keywords, got %s", got)
	}

	got = NormalizeVisualType("", "Training Pipeline", "the steps of the process")
	if got != VisualHierarchy {
		t.Errorf("expected hierarchy from process keywords, got %s", got)
	}

	got = NormalizeVisualType("", "Architecture", "a diagram of the system components")
	if got != VisualHierarchy {
		t.Errorf("expected hierarchy from diagram keyword, got %s", got)
	}

	got = NormalizeVisualType("something", "Introduction", "welcoming the viewer")
	if got != VisualText {
		t.Errorf("expected text fallback, got %s", got)
	}
}
