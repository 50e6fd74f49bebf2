package versioning

import (
	"net/url"
	"path"
	"strings"
)

const (
	// FallbackExtension is used for mime types outside the table.
	FallbackExtension = "bin"
	// FallbackMIME is returned when an extension cannot be mapped.
	FallbackMIME = "application/octet-stream"
)

var mimeExtensions = map[string]string{
	"application/pdf":    "pdf",
	"application/msword": "doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.ms-powerpoint":                                             "ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/vnd.ms-excel":                                                  "xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"image/png":                    "png",
	"image/jpeg":                   "jpg",
	"image/webp":                   "webp",
	"text/plain":                   "txt",
	"application/zip":              "zip",
	"application/x-zip-compressed": "zip",
}

var extensionMimes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"txt":  "text/plain",
	"zip":  "application/zip",
}

// NormalizeMIME lower-cases a mime type and drops its parameters.
func NormalizeMIME(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

// ExtensionFor returns the file extension for a mime type, or FallbackExtension.
func ExtensionFor(mime string) string {
	if ext, ok := mimeExtensions[NormalizeMIME(mime)]; ok {
		return ext
	}
	return FallbackExtension
}

// KnownMIME reports whether the mime type has an entry in the table.
func KnownMIME(mime string) bool {
	_, ok := mimeExtensions[NormalizeMIME(mime)]
	return ok
}

// ExtensionOf returns the lower-case extension of a file name or URL, without the dot.
func ExtensionOf(nameOrURL string) string {
	value := strings.TrimSpace(nameOrURL)
	if strings.Contains(value, "://") {
		if parsed, err := url.Parse(value); err == nil {
			value = parsed.Path
		}
	}
	if idx := strings.IndexAny(value, "?#"); idx >= 0 {
		value = value[:idx]
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(value), "."))
}

// InferMimeType guesses a mime type from a bare file name or URL.
func InferMimeType(nameOrURL string) string {
	if mime, ok := extensionMimes[ExtensionOf(nameOrURL)]; ok {
		return mime
	}
	return FallbackMIME
}
