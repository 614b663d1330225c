// Package media wraps the ffmpeg/ffprobe and Manim toolchain used to turn
// scripts and speech segments into finished video and podcast files.
package media

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/educast/educast/internal/apperr"
)

const (
	// Pause lengths inserted between dialogue segments during mixing.
	PauseSpeakerChange = 0.4  // seconds, between different speakers
	PauseSameSpeaker   = 0.15 // seconds, same speaker continuing

	loudnormFilter = "loudnorm=I=-16:TP=-1.5:LRA=11"
)

// FFmpeg shells out to ffmpeg/ffprobe on the worker host.
type FFmpeg struct{}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{}
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 500 {
			tail = tail[len(tail)-500:]
		}
		return apperr.Wrap(apperr.KindToolchain, err, "%s failed: %s", name, tail)
	}
	return nil
}

// Duration returns the media file's duration in seconds via ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, apperr.Wrap(apperr.KindToolchain, err, "ffprobe failed for %s", path)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindToolchain, err, "ffprobe returned non-numeric duration for %s", path)
	}
	return dur, nil
}

// Segment is one unit of mixed audio, in playback order.
type Segment struct {
	Path    string
	Speaker string
}

// Gap identifies which pause file to insert before a segment.
type Gap int

const (
	GapNone Gap = iota
	GapShort
	GapLong
)

// GapPlan computes the pause inserted before each segment: a long pause on
// speaker change, a short one when the same speaker continues, none before
// the first segment. Pure so mixing behavior is testable without ffmpeg.
func GapPlan(segments []Segment) []Gap {
	gaps := make([]Gap, len(segments))
	for i, seg := range segments {
		switch {
		case i == 0:
			gaps[i] = GapNone
		case segments[i-1].Speaker != seg.Speaker:
			gaps[i] = GapLong
		default:
			gaps[i] = GapShort
		}
	}
	return gaps
}

// MixSegments concatenates speech segments into one normalized mp3 with
// natural pauses between turns. Silence files are generated into tempDir.
func (f *FFmpeg) MixSegments(ctx context.Context, segments []Segment, tempDir, outPath string) error {
	if len(segments) == 0 {
		return apperr.New(apperr.KindToolchain, "no audio segments to mix")
	}

	longSilence := filepath.Join(tempDir, "silence_long.mp3")
	shortSilence := filepath.Join(tempDir, "silence_short.mp3")
	if err := f.makeSilence(ctx, PauseSpeakerChange, longSilence); err != nil {
		return err
	}
	if err := f.makeSilence(ctx, PauseSameSpeaker, shortSilence); err != nil {
		return err
	}

	var list strings.Builder
	for i, gap := range GapPlan(segments) {
		switch gap {
		case GapLong:
			fmt.Fprintf(&list, "file '%s'\n", concatPath(longSilence))
		case GapShort:
			fmt.Fprintf(&list, "file '%s'\n", concatPath(shortSilence))
		}
		fmt.Fprintf(&list, "file '%s'\n", concatPath(segments[i].Path))
	}

	listPath := filepath.Join(tempDir, "filelist.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	rawPath := filepath.Join(tempDir, "mixed_raw.mp3")
	if err := f.run(ctx, "ffmpeg",
		"-y", "-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame", "-q:a", "2",
		rawPath,
	); err != nil {
		return err
	}

	// Loudness normalization so episodes sit at a consistent level
	if err := f.run(ctx, "ffmpeg",
		"-y", "-i", rawPath,
		"-af", loudnormFilter,
		outPath,
	); err != nil {
		return err
	}

	log.Printf("[FFmpeg] mixed %d segments -> %s", len(segments), outPath)
	return nil
}

func (f *FFmpeg) makeSilence(ctx context.Context, seconds float64, outPath string) error {
	return f.run(ctx, "ffmpeg",
		"-y", "-f", "lavfi",
		"-i", "anullsrc=r=24000:cl=mono",
		"-t", strconv.FormatFloat(seconds, 'f', -1, 64),
		"-q:a", "9",
		outPath,
	)
}

// ConcatFiles joins audio or video files without re-encoding where possible.
func (f *FFmpeg) ConcatFiles(ctx context.Context, paths []string, listDir, outPath string, reencodeAudio bool) error {
	var list strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&list, "file '%s'\n", concatPath(p))
	}

	listPath := filepath.Join(listDir, "concat_list.txt")
	if err := os.WriteFile(listPath, []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listPath}
	if reencodeAudio {
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2")
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, outPath)

	return f.run(ctx, "ffmpeg", args...)
}

// SyncToAudio pads or trims a video to exactly match its narration track.
// A shorter video freezes on its last frame; a longer one is cut. Used both
// per slide and on the whole combined render.
func (f *FFmpeg) SyncToAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	videoDur, err := f.Duration(ctx, videoPath)
	if err != nil {
		return err
	}
	audioDur, err := f.Duration(ctx, audioPath)
	if err != nil {
		return err
	}

	log.Printf("[FFmpeg] syncing video %.1fs with audio %.1fs", videoDur, audioDur)

	if videoDur < audioDur {
		pad := fmt.Sprintf("[0:v]tpad=stop_mode=clone:stop_duration=%.3f[v]", audioDur-videoDur)
		return f.run(ctx, "ffmpeg",
			"-y", "-i", videoPath, "-i", audioPath,
			"-filter_complex", pad,
			"-map", "[v]", "-map", "1:a",
			"-c:v", "libx264", "-preset", "fast",
			"-c:a", "aac", "-shortest",
			outPath,
		)
	}

	return f.run(ctx, "ffmpeg",
		"-y", "-i", videoPath, "-i", audioPath,
		"-c:v", "copy", "-c:a", "aac",
		"-map", "0:v:0", "-map", "1:a:0",
		"-t", strconv.FormatFloat(audioDur, 'f', 3, 64),
		outPath,
	)
}

// Thumbnail grabs a 640x360 frame at the two second mark. Failure is
// reported but callers treat the thumbnail as optional.
func (f *FFmpeg) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	return f.run(ctx, "ffmpeg",
		"-y", "-i", videoPath,
		"-ss", "00:00:02",
		"-vframes", "1",
		"-vf", "scale=640:360",
		outPath,
	)
}

// concatPath normalizes path separators for ffmpeg's concat demuxer.
func concatPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
