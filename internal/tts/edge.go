package tts

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"

	"github.com/educast/educast/internal/apperr"
)

// EdgeEngine shells out to edge-tts (Microsoft neural voices). Invoked as
// "python -m edge_tts" for cross-platform compatibility with the installed
// pip package.
type EdgeEngine struct {
	python string
}

var _ Engine = (*EdgeEngine)(nil)

func NewEdgeEngine() *EdgeEngine {
	return &EdgeEngine{python: "python"}
}

func (e *EdgeEngine) Name() string { return "edge-tts" }

func (e *EdgeEngine) Synthesize(ctx context.Context, text string, profile Profile, outPath string) error {
	args := []string{
		"-m", "edge_tts",
		"--voice", profile.Voice,
		"--rate=" + profile.Rate,
		"--pitch=" + profile.Pitch,
		"--text", text,
		"--write-media", outPath,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.python, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return apperr.Wrap(apperr.KindToolchain, err,
			"edge-tts failed for voice %s: %s", profile.Voice, stderr.String())
	}

	// edge-tts exits 0 on some failures, so verify output exists
	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return apperr.New(apperr.KindToolchain, "edge-tts produced no audio for voice %s", profile.Voice)
	}

	log.Printf("[TTS] edge-tts %s: %d chars -> %d bytes", profile.Voice, len(text), info.Size())
	return nil
}

// Available checks that the edge-tts package is installed.
func (e *EdgeEngine) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.python, "-m", "edge_tts", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edge-tts not found (install with: pip install edge-tts): %w", err)
	}
	return nil
}
