package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/educast/educast/internal/apperr"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultModel = "eleven_flash_v2_5"
	elevenLabsOutputFormat = "mp3_44100_128"

	// elevenLabsVoiceAlex and Sam are stock voice ids used when a host
	// profile carries an edge-tts voice name instead of an ElevenLabs id.
	elevenLabsVoiceAlex = "pNInz6obpgDQGcFmaJgB"
	elevenLabsVoiceSam  = "EXAVITQu4vr4xnSDxMaL"
)

// ElevenLabsEngine synthesizes speech through the ElevenLabs REST API.
type ElevenLabsEngine struct {
	apiKey  string
	modelID string
	client  *http.Client
}

var _ Engine = (*ElevenLabsEngine)(nil)

func NewElevenLabsEngine(apiKey string) *ElevenLabsEngine {
	return &ElevenLabsEngine{
		apiKey:  apiKey,
		modelID: elevenLabsDefaultModel,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (e *ElevenLabsEngine) Name() string { return "elevenlabs" }

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

func (e *ElevenLabsEngine) Synthesize(ctx context.Context, text string, profile Profile, outPath string) error {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: &elevenLabsVoiceSettings{
			Stability:       0.60,
			SimilarityBoost: 0.80,
			Style:           0.35,
			UseSpeakerBoost: true,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		elevenLabsBaseURL, e.voiceID(profile), elevenLabsOutputFormat)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.KindToolchain, err, "elevenlabs request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apperr.New(apperr.KindToolchain, "elevenlabs returned status %d: %s", resp.StatusCode, string(body))
	}

	// The response body is the audio file itself
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return apperr.New(apperr.KindToolchain, "elevenlabs returned empty audio")
	}

	if err := os.WriteFile(outPath, audio, 0644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	log.Printf("[TTS] elevenlabs %s: %d chars -> %d bytes", profile.Name, len(text), len(audio))
	return nil
}

// voiceID maps a profile to an ElevenLabs voice. Host names get stock
// voices; anything else is assumed to already be an ElevenLabs voice id.
func (e *ElevenLabsEngine) voiceID(profile Profile) string {
	switch profile.Name {
	case "Alex":
		return elevenLabsVoiceAlex
	case "Sam", "Narrator":
		return elevenLabsVoiceSam
	default:
		return profile.Voice
	}
}
