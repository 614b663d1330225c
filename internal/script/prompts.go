package script

import (
	"fmt"
	"strings"

	"github.com/educast/educast/internal/models"
)

const (
	videoSystemPrompt = "You are an expert educational content creator who specializes in making complex technical topics accessible and engaging."

	dialogueSystemPrompt = "You are an award-winning podcast script writer known for making complex topics accessible and engaging. Your dialogues sound natural and capture the listener's attention from the first word."

	// Content is truncated further than the extraction cap so the prompt
	// stays inside the model's context comfortably.
	videoPromptContentLimit    = 8000
	dialoguePromptContentLimit = 12000
)

func buildVideoPrompt(title, content string, opts models.GenerationOptions) string {
	content = truncate(content, videoPromptContentLimit)

	audience := opts.TargetAudience
	if audience == "" {
		audience = "college students"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are an expert educational content creator. Create an engaging 5-10 minute video script from the following content.

Title: %s

Content:
%s

Generate a JSON response with the following structure:
{
  "title": "An engaging, educational video title (max 100 characters)",
  "description": "A compelling 2-3 sentence description of what viewers will learn",
  "slides": [
    {
      "slideNumber": 1,
      "heading": "Introduction",
      "narration": "The script text to be narrated (engaging, conversational tone)",
      "visualDescription": "Description of what should be shown on screen",
      "visualType": "Choose one: graph, hierarchy, math, list, code, or text",
      "bulletPoints": ["Key concept 1", "Key concept 2", "Key concept 3"],
      "duration": 30
    }
  ],
  "totalDuration": "8:30",
  "category": "AI/ML" or "Data Science" or "Research"
}

Guidelines:
- Make it engaging and easy to understand for %s
- Use conversational, friendly tone
- Break complex concepts into digestible chunks
- Include 3-4 bullet points per slide that summarize the core message
- Map visualType purposefully: use 'hierarchy' for structure/processes, 'graph' for data/growth, 'math' for formulas, 'list' for arrays of facts, 'code' for technical logic, 'text' otherwise
- 8-12 slides total, each 30-60 seconds
- Total duration should be 5-10 minutes
- Ensure smooth transitions between slides
`, title, content, audience)

	if opts.FocusArea != "" {
		fmt.Fprintf(&b, "- Pay special attention to: %s\n", opts.FocusArea)
	}
	if opts.Tone != "" {
		fmt.Fprintf(&b, "- Tone: %s\n", opts.Tone)
	}

	b.WriteString("\nReturn ONLY valid JSON, no markdown formatting.")
	return b.String()
}

func buildDialoguePrompt(title, content string, opts models.GenerationOptions) string {
	content = truncate(content, dialoguePromptContentLimit)

	audience := opts.TargetAudience
	if audience == "" {
		audience = "college students"
	}
	tone := opts.Tone
	if tone == "" {
		tone = "friendly and engaging"
	}
	duration := opts.Duration
	if duration == "" {
		duration = "5-8 minutes"
	}
	focus := "Cover the main concepts comprehensively"
	if opts.FocusArea != "" {
		focus = "Pay special attention to: " + opts.FocusArea
	}

	return fmt.Sprintf(`You are an expert podcast script writer. Create an engaging, natural-sounding conversation between two hosts discussing the following content.

CONTENT TITLE: %s

CONTENT:
%s

INSTRUCTIONS:
- Create a %s podcast-style dialogue between two hosts: Alex (enthusiastic, asks great questions) and Sam (knowledgeable, explains clearly)
- The conversation should feel NATURAL - include verbal cues like "Right!", "Exactly!", "That's fascinating!", "So what you're saying is..."
- %s
- Target audience: %s
- Tone: %s
- Start with a brief, engaging introduction
- Break complex concepts into digestible explanations
- Include real-world examples and analogies
- End with a memorable takeaway or call to action

OUTPUT FORMAT (JSON):
{
  "title": "An engaging podcast episode title",
  "description": "2-3 sentence description of what listeners will learn",
  "dialogue": [
    {"speaker": "Alex", "text": "The spoken text...", "emotion": "curious"},
    {"speaker": "Sam", "text": "The response...", "emotion": "explaining"}
  ],
  "topics": ["topic1", "topic2", "topic3"],
  "estimatedDuration": "6:30",
  "keyTakeaways": ["takeaway1", "takeaway2"]
}

GUIDELINES:
- Each dialogue turn should be 1-4 sentences (natural speaking length)
- Include 30-50 dialogue turns for a 5-8 minute podcast
- Alex asks questions and reacts; Sam provides depth and explanations
- Both hosts can share insights - it's a true conversation
- Avoid jargon unless explained immediately after
- Make it entertaining AND educational
- emotion is one of: curious, excited, thoughtful, surprised, explaining

Return ONLY valid JSON, no markdown formatting.`, title, content, duration, focus, audience, tone)
}

// truncate caps s at n characters on rune boundaries.
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
