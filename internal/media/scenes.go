package media

import (
	"fmt"
	"strings"
	"time"

	"github.com/educast/educast/internal/models"
)

// SceneName returns the class name for a slide's Manim scene, indexed from
// zero to match generated file naming.
func SceneName(slideIndex int) string {
	return fmt.Sprintf("Slide%dScene", slideIndex)
}

// CombinedSceneName is the fallback scene that plays every slide in one
// render pass.
const CombinedSceneName = "FullVideo"

// GenerateManimSource produces the complete Python file for a script: one
// scene class per slide plus the combined FullVideo scene.
func GenerateManimSource(script *models.Script, jobID string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `from manim import *
import numpy as np

# Auto-generated video scenes for job %s
# Generated at %s

config.pixel_height = 720
config.pixel_width = 1280
config.frame_rate = 30

`, jobID, time.Now().UTC().Format(time.RFC3339))

	for i, slide := range script.Slides {
		b.WriteString(slideScene(slide, i))
		b.WriteString("\n\n")
	}

	b.WriteString(combinedScene(script.Slides))
	return b.String()
}

func slideScene(slide models.Slide, index int) string {
	duration := slide.Duration
	if duration <= 0 {
		duration = 10
	}

	vt := models.VisualType(slide.VisualType)
	switch vt {
	case models.VisualGraph:
		return graphScene(slide, index, duration)
	case models.VisualHierarchy:
		return hierarchyScene(slide, index, duration)
	case models.VisualMath:
		return mathScene(slide, index, duration)
	case models.VisualList:
		return listScene(slide, index, duration)
	case models.VisualCode:
		return codeScene(slide, index, duration)
	default:
		return textScene(slide, index, duration)
	}
}

// bulletsFor returns up to three short bullet strings, deriving them from
// the narration when the model supplied none.
func bulletsFor(slide models.Slide) []string {
	if len(slide.BulletPoints) > 0 {
		bullets := slide.BulletPoints
		if len(bullets) > 3 {
			bullets = bullets[:3]
		}
		return bullets
	}

	var bullets []string
	for _, sentence := range strings.Split(slide.Narration, ". ") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) <= 10 {
			continue
		}
		if len(sentence) > 50 {
			sentence = sentence[:50] + "..."
		}
		bullets = append(bullets, sentence)
		if len(bullets) == 3 {
			break
		}
	}
	return bullets
}

// escapePy makes a string safe inside a double-quoted Python literal.
func escapePy(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// truncate caps s at n characters, never splitting a multi-byte rune: a
// partial rune inside generated Python source is invalid syntax.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func waitFor(duration, consumed int) int {
	if duration-consumed < 1 {
		return 1
	}
	return duration - consumed
}

func graphScene(slide models.Slide, index, duration int) string {
	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=42, color=BLUE_B).to_edge(UP, buff=0.5)
        self.play(Write(title), run_time=1.5)

        axes = Axes(
            x_range=[0, 10, 1],
            y_range=[0, 10, 1],
            x_length=8,
            y_length=5,
            axis_config={"include_tip": True, "color": GRAY}
        ).shift(DOWN * 0.5)

        graph = axes.plot(lambda x: 0.1 * x**2 + 1, color=BLUE)
        label = axes.get_graph_label(graph, label="Progress")

        self.play(Create(axes), run_time=1)
        self.play(Create(graph), FadeIn(label), run_time=2)
        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), waitFor(duration, 5))
}

func hierarchyScene(slide models.Slide, index, duration int) string {
	colors := []string{"BLUE_C", "GREEN_C", "RED_C"}

	var nodes strings.Builder
	for i, bullet := range bulletsFor(slide) {
		color := "GRAY_C"
		if i < len(colors) {
			color = colors[i]
		}
		fmt.Fprintf(&nodes, `        n%d = VGroup(
            RoundedRectangle(width=3.5, height=0.8, color=%s, fill_opacity=0.2),
            Text("%s", font_size=18, color=WHITE)
        )
        nodes.add(n%d)
`, i, color, escapePy(truncate(bullet, 30)), i)
	}

	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=42, color=BLUE_B).to_edge(UP, buff=0.5)
        self.play(Write(title), run_time=1.5)

        root = VGroup(
            RoundedRectangle(width=3, height=1, color=GOLD, fill_opacity=0.3),
            Text("Core Concepts", font_size=20, color=GOLD)
        ).shift(UP * 1.5)
        self.play(FadeIn(root))

        nodes = VGroup()
%s        nodes.arrange(DOWN, buff=0.4).shift(DOWN * 0.5)

        for node in nodes:
            line = Line(root.get_bottom(), node.get_top(), color=GRAY, stroke_width=2)
            self.play(Create(line), FadeIn(node), run_time=0.8)

        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), nodes.String(), waitFor(duration, 6))
}

func mathScene(slide models.Slide, index, duration int) string {
	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=42, color=BLUE_B).to_edge(UP, buff=0.5)
        self.play(Write(title), run_time=1.5)

        formula = MathTex(r"f(x) = \sum_{i=1}^{n} w_i \cdot x_i + b", font_size=48)
        formula.shift(UP * 0.5)

        caption = Text("%s", font_size=24, color=GRAY_A)
        caption.next_to(formula, DOWN, buff=1.0)

        self.play(Write(formula), run_time=2)
        self.play(FadeIn(caption, shift=UP), run_time=1)
        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), escapePy(truncate(slide.VisualDescription, 80)), waitFor(duration, 5))
}

func listScene(slide models.Slide, index, duration int) string {
	var points []string
	for _, bullet := range bulletsFor(slide) {
		points = append(points, fmt.Sprintf(`            Text("→ %s", font_size=28, color=WHITE)`, escapePy(bullet)))
	}

	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=42, color=BLUE_B).to_edge(UP, buff=0.5)
        self.play(Write(title), run_time=1.5)

        points = VGroup(
%s
        ).arrange(DOWN, aligned_edge=LEFT, buff=0.5).shift(DOWN * 0.5)

        for point in points:
            self.play(FadeIn(point, shift=RIGHT * 0.5), run_time=0.8)
            self.wait(0.3)

        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), strings.Join(points, ",\n"), waitFor(duration, 5))
}

func codeScene(slide models.Slide, index, duration int) string {
	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=42).to_edge(UP)
        self.play(Write(title))

        code_text = '''# Algorithm Implementation
def process_data(input_stream):
    results = [analyze(item) for item in input_stream]
    return filter_valid(results)'''

        code = Code(
            code=code_text,
            language="python",
            font_size=20,
            background="rectangle",
            background_stroke_color=WHITE,
        ).shift(DOWN * 0.5)

        self.play(Create(code), run_time=1.5)
        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), waitFor(duration, 3))
}

func textScene(slide models.Slide, index, duration int) string {
	summary := escapePy(truncate(slide.Narration, 150))

	return fmt.Sprintf(`class %s(Scene):
    def construct(self):
        title = Text("%s", font_size=48, color=BLUE)
        title.to_edge(UP, buff=0.5)

        summary_text = "%s"
        if len(summary_text) > 80:
            summary_text = summary_text[:77] + "..."

        summary = Text(summary_text, font_size=28, color=WHITE)
        summary.next_to(title, DOWN, buff=1.2)

        box = RoundedRectangle(width=10, height=3, color=BLUE_D, fill_opacity=0.1)
        box.next_to(summary, DOWN, buff=0.5)

        self.play(Write(title), run_time=1)
        self.play(FadeIn(summary, shift=UP), run_time=1)
        self.play(Create(box), run_time=1)

        self.wait(%d)
        self.play(*[FadeOut(m) for m in self.mobjects])
`, SceneName(index), escapePy(slide.Heading), summary, waitFor(duration, 4))
}

func combinedScene(slides []models.Slide) string {
	var b strings.Builder
	b.WriteString(`class FullVideo(Scene):
    def construct(self):
        """Plays a simple title card per slide as a render fallback."""
`)

	for i, slide := range slides {
		duration := slide.Duration
		if duration <= 0 {
			duration = 10
		}
		wait := duration - 2
		if wait < 1 {
			wait = 1
		}

		fmt.Fprintf(&b, `
        slide%d_title = Text("%s", font_size=36).to_edge(UP)
        self.play(Write(slide%d_title), run_time=1)
        self.wait(%d)
        self.play(FadeOut(slide%d_title), run_time=0.5)
`, i, escapePy(slide.Heading), i, wait, i)
	}

	return b.String()
}
