package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

const geminiModel = "gemini-1.5-pro"

// GeminiGenerator is the fallback script generator, used when no OpenAI key
// is configured or the operator prefers Gemini.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

func (g *GeminiGenerator) GenerateVideoScript(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.Script, error) {
	raw, err := g.generateJSON(ctx, videoSystemPrompt+"\n\n"+buildVideoPrompt(title, content, opts))
	if err != nil {
		return nil, err
	}

	var script models.Script
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &script); err != nil {
		logRawResponse("script", raw)
		return nil, apperr.Wrap(apperr.KindGeneration, err, "failed to parse video script")
	}

	if err := validateScript(&script); err != nil {
		logRawResponse("script", raw)
		return nil, err
	}

	log.Printf("[Script] %q: %d slides (gemini)", script.Title, len(script.Slides))
	return &script, nil
}

func (g *GeminiGenerator) GenerateDialogue(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.DialogueScript, error) {
	raw, err := g.generateJSON(ctx, dialogueSystemPrompt+"\n\n"+buildDialoguePrompt(title, content, opts))
	if err != nil {
		return nil, err
	}

	var dialogue models.DialogueScript
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &dialogue); err != nil {
		logRawResponse("dialogue", raw)
		return nil, apperr.Wrap(apperr.KindGeneration, err, "failed to parse dialogue script")
	}

	if err := validateDialogue(&dialogue); err != nil {
		logRawResponse("dialogue", raw)
		return nil, err
	}

	log.Printf("[Script] %q: %d dialogue turns (gemini)", dialogue.Title, len(dialogue.Dialogue))
	return &dialogue, nil
}

func (g *GeminiGenerator) generateJSON(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(geminiModel)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, err, "gemini request failed")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.New(apperr.KindGeneration, "no response from gemini")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", apperr.New(apperr.KindGeneration, "gemini returned no text parts")
	}

	return out, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
