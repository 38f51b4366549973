package ffmpegsource

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// findTool searches for an ffmpeg suite binary in PATH and common locations.
// A non-empty custom path is used as is and must exist.
func findTool(name, custom string, notFound error) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", notFound, custom)
	}

	execName := name
	if runtime.GOOS == "windows" {
		execName = name + ".exe"
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	if runtime.GOOS == "windows" {
		commonPaths = []string{
			`C:\ffmpeg\bin\` + execName,
			`C:\Program Files\ffmpeg\bin\` + execName,
		}
	} else {
		commonPaths = []string{
			"/usr/bin/" + execName,
			"/usr/local/bin/" + execName,
			"/opt/homebrew/bin/" + execName,
			"/snap/bin/" + execName,
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", notFound
}

// FindFFmpeg locates the ffmpeg binary.
func FindFFmpeg(custom string) (string, error) {
	return findTool("ffmpeg", custom, ErrFFmpegNotFound)
}

// FindFFprobe locates the ffprobe binary.
func FindFFprobe(custom string) (string, error) {
	return findTool("ffprobe", custom, ErrFFprobeNotFound)
}

// Available reports whether ffmpeg can be found.
func Available() bool {
	_, err := FindFFmpeg("")
	return err == nil
}
