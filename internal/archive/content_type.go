package archive

import (
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/savaki/site-deployer/internal/constants"
)

// staticTypes covers static site assets that the platform mime tables either
// miss or annotate with a charset
var staticTypes = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".json":        "application/json",
	".map":         "application/json",
	".webmanifest": "application/manifest+json",
	".xml":         "application/xml",
	".txt":         "text/plain",
	".md":          "text/markdown",
	".csv":         "text/csv",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".avif":        "image/avif",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
	".eot":         "application/vnd.ms-fontobject",
	".pdf":         "application/pdf",
	".wasm":        "application/wasm",
	".zip":         "application/zip",
	".mp3":         "audio/mpeg",
	".mp4":         "video/mp4",
	".webm":        "video/webm",
}

// LookupContentType infers a content type from the extension of key
func LookupContentType(key string) (string, bool) {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return "", false
	}
	if v, ok := staticTypes[ext]; ok {
		return v, true
	}
	if v := mime.TypeByExtension(ext); v != "" {
		return stripParams(v), true
	}
	return "", false
}

// ContentType returns the content type for key. When the extension is unknown and
// sniff is set, data is inspected; otherwise application/octet-stream is used.
func ContentType(key string, data []byte, sniff bool) string {
	if v, ok := LookupContentType(key); ok {
		return v
	}
	if sniff && len(data) > 0 {
		return stripParams(mimetype.Detect(data).String())
	}
	return constants.DefaultContentType
}

func stripParams(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return v
	}
	return mediaType
}
