package validation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/username/pokerledger/backend/src/logger"
)

// AllowedAudioContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedAudioContentTypes = map[string]bool{
	"audio/m4a":                true,
	"audio/x-m4a":              true,
	"audio/mp4":                true,
	"audio/aac":                true,
	"audio/mpeg":               true,
	"audio/mp3":                true,
	"audio/wav":                true,
	"audio/x-wav":              true,
	"audio/wave":               true,
	"audio/ogg":                true,
	"audio/flac":               true,
	"application/octet-stream": true, // recorders often don't set a type
}

// ValidateClientContentType checks the Content-Type header declared for the
// uploaded audio part. An empty declaration is tolerated.
func ValidateClientContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !AllowedAudioContentTypes[normalized] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for audio upload", contentType)
	}
	return nil
}

// ValidateAudioContentByMagicBytes checks the actual file content signature
// (magic bytes) and returns the detected MIME type. The read pointer is reset
// so the caller can stream the full file afterwards.
func ValidateAudioContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	detected := detectAudioType(buffer[:n])
	if detected == "" {
		logger.L.Warn("File rejected: content not recognized as a supported audio format")
		return "", fmt.Errorf("file content is not a recognized audio format")
	}

	logger.L.Debug("Audio content type validated", "detectedContentType", detected)
	return detected, nil
}

// detectAudioType sniffs well-known audio container signatures. Returns the
// empty string when nothing matches.
func detectAudioType(buf []byte) string {
	switch {
	case len(buf) >= 12 && bytes.Equal(buf[4:8], []byte("ftyp")):
		// MP4/M4A container; the brand at offset 8 distinguishes audio-only files
		if bytes.HasPrefix(buf[8:], []byte("M4A")) {
			return "audio/m4a"
		}
		return "audio/mp4"
	case len(buf) >= 12 && bytes.Equal(buf[0:4], []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("WAVE")):
		return "audio/wav"
	case len(buf) >= 3 && bytes.Equal(buf[0:3], []byte("ID3")):
		return "audio/mpeg"
	case len(buf) >= 2 && buf[0] == 0xFF && buf[1]&0xE0 == 0xE0:
		// Raw MPEG audio frame sync
		return "audio/mpeg"
	case len(buf) >= 4 && bytes.Equal(buf[0:4], []byte("OggS")):
		return "audio/ogg"
	case len(buf) >= 4 && bytes.Equal(buf[0:4], []byte("fLaC")):
		return "audio/flac"
	}
	return ""
}
