// Package format classifies requested output tokens into media kinds and
// canonical containers.
package format

import (
	"mime"
	"path"
	"sort"
	"strings"
)

// Kind is the broad media category of a format token.
type Kind string

const (
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
)

// Classification is the result of Classify.
type Classification struct {
	Kind      Kind   `json:"kind"`
	Container string `json:"container"`
}

// audio is the closed set eligible for audio-only extraction and real-time
// audio transcoding.
var audio = map[string]bool{
	"mp3": true, "m4a": true, "wav": true, "aac": true,
	"flac": true, "ogg": true, "opus": true,
}

var video = map[string]bool{
	"mp4": true, "mp4-1080": true, "mp4-2k": true, "mp4-4k": true,
	"webm": true, "mkv": true, "mov": true, "avi": true, "flv": true,
	"wmv": true, "3gp": true, "mpeg": true, "m4v": true, "f4v": true,
	"vob": true, "ogv": true, "ts": true, "m2ts": true,
}

var image = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"bmp": true, "tiff": true, "svg": true, "ico": true, "heic": true,
	"psd": true, "ai": true, "eps": true, "raw": true, "cr2": true,
	"nef": true, "orf": true, "sr2": true,
}

var canonical = map[string]string{
	"mp4-1080": "mp4",
	"mp4-2k":   "mp4",
	"mp4-4k":   "mp4",
	"jpeg":     "jpg",
}

// Registry groups, in the order they are advertised.
var (
	audioTokens = []string{"mp3", "m4a", "wav", "aac", "flac", "ogg", "opus",
		"wma", "aiff", "amr", "mpa", "alac", "mka", "ape", "pcm"}
	videoTokens = []string{"mp4", "mp4-1080", "mp4-2k", "mp4-4k", "webm", "mkv", "mov", "avi",
		"flv", "wmv", "3gp", "mpeg", "m4v", "f4v", "vob", "ogv", "ts", "m2ts"}
	imageTokens = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff", "svg", "ico",
		"heic", "psd", "ai", "eps", "raw", "cr2", "nef", "orf", "sr2"}
	documentTokens = []string{"pdf", "txt", "docx", "doc", "xlsx", "xls", "pptx", "ppt", "csv",
		"json", "xml", "epub", "rtf", "odt", "ods", "odp"}
	archiveTokens      = []string{"zip", "rar", "7z", "tar", "gz", "bz2", "xz", "iso", "dmg"}
	codeTokens         = []string{"html", "css", "js", "py", "java", "cpp", "c", "php", "rb", "go", "rs", "sql", "yaml", "md"}
	professionalTokens = []string{"mxf", "dpx", "exr", "tga", "dds", "pnm", "jp2", "j2k", "jpf",
		"jpm", "jpg2", "j2c", "jpc", "jxr", "hdp", "wdp"}
)

var supported = func() map[string]bool {
	m := make(map[string]bool)
	for _, group := range [][]string{audioTokens, videoTokens, imageTokens, documentTokens,
		archiveTokens, codeTokens, professionalTokens} {
		for _, t := range group {
			m[t] = true
		}
	}
	return m
}()

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), ".")))
}

// Classify maps a format token to its kind and canonical container.
// Unknown tokens are documents whose container is the token itself.
func Classify(token string) Classification {
	t := normalize(token)
	container := t
	if c, ok := canonical[t]; ok {
		container = c
	}
	switch {
	case audio[t]:
		return Classification{Kind: KindAudio, Container: container}
	case video[t]:
		return Classification{Kind: KindVideo, Container: container}
	case image[t]:
		return Classification{Kind: KindImage, Container: container}
	default:
		return Classification{Kind: KindDocument, Container: container}
	}
}

// IsAudio reports whether token is one of the audio-extractable formats.
func IsAudio(token string) bool {
	return audio[normalize(token)]
}

// IsVideo reports whether token classifies as video.
func IsVideo(token string) bool {
	return video[normalize(token)]
}

// Supported returns every accepted format token, sorted.
func Supported() []string {
	out := make([]string, 0, len(supported))
	for t := range supported {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// IsSupported reports whether token is in the accepted registry.
func IsSupported(token string) bool {
	return supported[normalize(token)]
}

// FromFilename returns the lower-cased extension of name without the dot,
// or "" when there is none.
func FromFilename(name string) string {
	ext := path.Ext(strings.ReplaceAll(name, "\\", "/"))
	if ext == "" || ext == "." {
		return ""
	}
	return normalize(ext)
}

var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"opus": "audio/opus",
	"mp4":  "video/mp4",
	"webm": "video/webm",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"ts":   "video/mp2t",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// MIMEType returns the content type advertised for a target token.
func MIMEType(token string) string {
	c := Classify(token).Container
	if mt, ok := mimeTypes[c]; ok {
		return mt
	}
	if mt := mime.TypeByExtension("." + c); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// Keyed on the full media type: audio/mpeg and video/mpeg differ.
var mediaTypeExtensions = map[string]string{
	"audio/mpeg":               "mp3",
	"audio/mp3":                "mp3",
	"audio/x-wav":              "wav",
	"audio/wave":               "wav",
	"video/mpeg":               "mpeg",
	"video/quicktime":          "mov",
	"video/x-matroska":         "mkv",
	"video/x-msvideo":          "avi",
	"video/mp2t":               "ts",
	"image/jpeg":               "jpg",
	"application/octet-stream": "bin",
}

// ExtensionForContentType derives a file extension from a Content-Type value.
// Defaults to "bin".
func ExtensionForContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return "bin"
	}
	slash := strings.IndexByte(mt, '/')
	if slash < 0 || slash == len(mt)-1 {
		return "bin"
	}
	if ext, ok := mediaTypeExtensions[mt]; ok {
		return ext
	}
	sub := mt[slash+1:]
	if i := strings.IndexAny(sub, "+;"); i > 0 {
		sub = sub[:i]
	}
	return sub
}

// MatchesContentType reports whether an upstream Content-Type already carries
// the target container, so no conversion is needed.
func MatchesContentType(token, contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	c := Classify(token).Container
	if mimeTypes[c] == mt {
		return true
	}
	return ExtensionForContentType(mt) == c
}
