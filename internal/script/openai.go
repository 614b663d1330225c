package script

import (
	"context"
	"encoding/json"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/educast/educast/internal/apperr"
	"github.com/educast/educast/internal/models"
)

const (
	openaiModel = "gpt-4-turbo-preview"
	maxLogLen   = 2000
)

// OpenAIGenerator is the primary script generator.
type OpenAIGenerator struct {
	client *openai.Client
}

func NewOpenAIGenerator(apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{client: openai.NewClient(apiKey)}
}

func (g *OpenAIGenerator) GenerateVideoScript(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.Script, error) {
	raw, err := g.complete(ctx, videoSystemPrompt, buildVideoPrompt(title, content, opts), 0.7, 3000)
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

	log.Printf("[Script] %q: %d slides", script.Title, len(script.Slides))
	return &script, nil
}

func (g *OpenAIGenerator) GenerateDialogue(ctx context.Context, title, content string, opts models.GenerationOptions) (*models.DialogueScript, error) {
	raw, err := g.complete(ctx, dialogueSystemPrompt, buildDialoguePrompt(title, content, opts), 0.8, 4000)
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

	log.Printf("[Script] %q: %d dialogue turns", dialogue.Title, len(dialogue.Dialogue))
	return &dialogue, nil
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openaiModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", apperr.Wrap(apperr.KindGeneration, err, "openai request failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.KindGeneration, "no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

func logRawResponse(kind, raw string) {
	if len(raw) > maxLogLen {
		log.Printf("[Script] raw %s response (truncated): %s...", kind, raw[:maxLogLen])
	} else {
		log.Printf("[Script] raw %s response: %s", kind, raw)
	}
}
