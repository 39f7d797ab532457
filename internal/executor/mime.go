package executor

import (
	"github.com/gabriel-vasile/mimetype"

	"github.com/opfskit/bridge/internal/shared/vpath"
)

// extensionMIME is the fixed extension→MIME table used for opportunistic
// content-type inference during list and stat. Unknown extensions fall back
// to content sniffing on read paths, or to octet-stream when no content is
// at hand.
var extensionMIME = map[string]string{
	".txt":   "text/plain",
	".md":    "text/markdown",
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".csv":   "text/csv",
	".js":    "text/javascript",
	".mjs":   "text/javascript",
	".json":  "application/json",
	".xml":   "application/xml",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".wasm":  "application/wasm",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".bmp":   "image/bmp",
	".avif":  "image/avif",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
}

const defaultMIME = "application/octet-stream"

// mimeFromPath infers a content type from the filename extension alone.
func mimeFromPath(path string) string {
	if m, ok := extensionMIME[vpath.Ext(path)]; ok {
		return m
	}
	return defaultMIME
}

// mimeFor infers a content type from the extension, sniffing the content
// when the extension is unknown and content is available.
func mimeFor(path string, content []byte) string {
	if m, ok := extensionMIME[vpath.Ext(path)]; ok {
		return m
	}
	if len(content) > 0 {
		return mimetype.Detect(content).String()
	}
	return defaultMIME
}
