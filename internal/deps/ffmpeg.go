package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// FFmpegRequirement describes the transcoder binary. binary may be a bare
// name resolved through PATH or an absolute path.
func FFmpegRequirement(binary string) Requirement {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return Requirement{
		Name:        "FFmpeg",
		Command:     binary,
		Description: "Decodes recordings for detection and encodes stream segments",
	}
}

// FFprobeRequirement describes the optional probe used when inspecting
// recordings by hand.
func FFprobeRequirement() Requirement {
	return Requirement{
		Name:        "FFprobe",
		Command:     "ffprobe",
		Description: "Helps inspect recordings that fail to decode",
		Optional:    true,
	}
}

// ResolveFFmpeg returns the absolute path of the ffmpeg binary that will run.
func ResolveFFmpeg(binary string) (string, error) {
	req := FFmpegRequirement(binary)
	path, err := exec.LookPath(req.Command)
	if err != nil {
		return "", fmt.Errorf("binary %q not found: %w", req.Command, err)
	}
	return path, nil
}
