package models

import "strings"

// VisualType selects which scene template renders a slide.
type VisualType string

const (
	VisualGraph     VisualType = "graph"
	VisualHierarchy VisualType = "hierarchy"
	VisualMath      VisualType = "math"
	VisualList      VisualType = "list"
	VisualCode      VisualType = "code"
	VisualText      VisualType = "text"
)

// visualAliases maps model output variants onto the closed set.
var visualAliases = map[string]VisualType{
	"graph":         VisualGraph,
	"chart":         VisualGraph,
	"hierarchy":     VisualHierarchy,
	"diagram":       VisualHierarchy,
	"brain_diagram": VisualHierarchy,
	"tree":          VisualHierarchy,
	"flow":          VisualHierarchy,
	"flowchart":     VisualHierarchy,
	"math":          VisualMath,
	"formula":       VisualMath,
	"equation":      VisualMath,
	"list":          VisualList,
	"bullet":        VisualList,
	"bullets":       VisualList,
	"code":          VisualCode,
	"text":          VisualText,
}

// NormalizeVisualType maps a free-form visual type onto the closed set the
// renderer supports. Unknown values fall back to keyword inference over the
// slide's heading and visual description, then to plain text.
func NormalizeVisualType(raw, heading, description string) VisualType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if vt, ok := visualAliases[key]; ok {
		return vt
	}

	return inferVisualType(heading + " " + description)
}

func inferVisualType(hint string) VisualType {
	hint = strings.ToLower(hint)

	switch {
	case containsAny(hint, "graph", "chart", "plot", "trend", "growth", "data"):
		return VisualGraph
	case containsAny(hint, "hierarchy", "diagram", "tree", "structure", "flow", "process", "pipeline", "steps"):
		return VisualHierarchy
	case containsAny(hint, "equation", "formula", "math", "theorem"):
		return VisualMath
	case containsAny(hint, "code", "function", "algorithm", "snippet"):
		return VisualCode
	case containsAny(hint, "list", "points", "facts", "summary"):
		return VisualList
	default:
		return VisualText
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
