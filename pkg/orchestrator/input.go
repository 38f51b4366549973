package orchestrator

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// sniffLen matches the number of bytes http.DetectContentType considers.
const sniffLen = 512

// videoExtensions covers containers missing from minimal mime tables.
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".ogv":  "video/ogg",
	".3gp":  "video/3gpp",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
}

// DetectMIME returns the media type of the file at path. The extension is
// consulted first and content sniffing is the fallback.
func DetectMIME(fs ports.FileSystem, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if t := mime.TypeByExtension(ext); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil && strings.HasPrefix(mt, "video/") {
			return mt, nil
		}
	}
	if t, ok := videoExtensions[ext]; ok {
		return t, nil
	}

	head, err := fs.ReadHead(path, sniffLen)
	if err != nil {
		return "", err
	}
	mt, _, err := mime.ParseMediaType(http.DetectContentType(head))
	if err != nil {
		return "", err
	}
	return mt, nil
}

// checkVideo fails with ErrInvalidInputFile unless path holds a video.
func checkVideo(fs ports.FileSystem, path string) error {
	mt, err := DetectMIME(fs, path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", pipeline.ErrInvalidInputFile, path, err)
	}
	if !strings.HasPrefix(mt, "video/") {
		return fmt.Errorf("%w: %s is %s", pipeline.ErrInvalidInputFile, path, mt)
	}
	return nil
}
