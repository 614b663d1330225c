package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/educast/educast/internal/apperr"
)

// Quality folders Manim may write to, checked in preference order.
var manimQualities = []string{"720p30", "720p24", "720p15", "480p30", "480p15", "1080p30", "1080p60"}

// Manim renders generated scene files through the Python manim package.
type Manim struct {
	python string
	ffmpeg *FFmpeg
}

func NewManim(ffmpeg *FFmpeg) *Manim {
	return &Manim{python: "python", ffmpeg: ffmpeg}
}

// RenderScene renders one scene from sourcePath and returns the path of the
// produced mp4. Rendering runs in the source file's directory so Manim's
// media/ output lands next to it.
func (m *Manim) RenderScene(ctx context.Context, sourcePath, sceneName string) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.python, "-m", "manim", "render", "-ql", sourcePath, sceneName)
	cmd.Dir = filepath.Dir(sourcePath)
	cmd.Stderr = &stderr

	log.Printf("[Manim] rendering scene %s", sceneName)

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return "", apperr.Wrap(apperr.KindToolchain, err, "manim render failed for %s: %s", sceneName, tail)
	}

	return m.locateOutput(ctx, sourcePath, sceneName)
}

// locateOutput finds the rendered video. Manim writes to
// media/videos/<source base>/<quality>/<SceneName>.mp4; when the expected
// file is missing we fall back to a recursive search, then to stitching
// partial movie files.
func (m *Manim) locateOutput(ctx context.Context, sourcePath, sceneName string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sourcePath), ".py")
	mediaDir := filepath.Join(filepath.Dir(sourcePath), "media", "videos", base)

	for _, quality := range manimQualities {
		direct := filepath.Join(mediaDir, quality, sceneName+".mp4")
		if fileExists(direct) {
			return direct, nil
		}
	}

	if found := findFirstMP4(mediaDir); found != "" {
		log.Printf("[Manim] found video via search: %s", found)
		return found, nil
	}

	// Last resort: an interrupted render can leave only per-animation
	// partials behind
	for _, quality := range manimQualities {
		partialsDir := filepath.Join(mediaDir, quality, "partial_movie_files", sceneName)
		combined, err := m.combinePartials(ctx, partialsDir, filepath.Join(mediaDir, quality, sceneName+".mp4"))
		if err == nil && combined != "" {
			return combined, nil
		}
	}

	return "", apperr.New(apperr.KindToolchain, "video file not found after rendering %s in %s", sceneName, mediaDir)
}

func (m *Manim) combinePartials(ctx context.Context, partialsDir, outPath string) (string, error) {
	entries, err := os.ReadDir(partialsDir)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".mp4") {
			parts = append(parts, filepath.Join(partialsDir, entry.Name()))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no partial files in %s", partialsDir)
	}
	sort.Strings(parts)

	log.Printf("[Manim] combining %d partial files", len(parts))
	if err := m.ffmpeg.ConcatFiles(ctx, parts, filepath.Dir(outPath), outPath, false); err != nil {
		return "", err
	}
	return outPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findFirstMP4 walks dir for any rendered mp4, skipping the partials tree.
func findFirstMP4(dir string) string {
	var found string
	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && d.Name() == "partial_movie_files" {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".mp4") && found == "" {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
