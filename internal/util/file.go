package util

import (
	"io"
	"net/http"
	"strings"
)

// SniffMimeType reads up to 512 bytes from reader and detects the content
// type. It returns the detected type together with a reader that replays the
// consumed bytes before the remainder of the stream.
func SniffMimeType(reader io.Reader) (string, io.Reader, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", nil, err
	}

	mimeType := http.DetectContentType(buffer[:n])
	return mimeType, io.MultiReader(strings.NewReader(string(buffer[:n])), reader), nil
}

// IsImage reports whether the MIME type denotes an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// ImageExtension maps common image MIME types to a file extension, falling
// back to .img for exotic subtypes.
func ImageExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}
