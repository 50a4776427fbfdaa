// Package filetype classifies uploaded files into the closed set of
// categories the drive understands and maps categories to listing routes.
package filetype

import (
	"fmt"
	"path"
	"strings"
)

// Category is one of the fixed file categories.
type Category string

const (
	Document Category = "document"
	Image    Category = "image"
	Video    Category = "video"
	Audio    Category = "audio"
	Other    Category = "other"
)

// All lists every category in display order.
var All = []Category{Document, Image, Video, Audio, Other}

var (
	documentExtensions = []string{
		"pdf", "doc", "docx", "txt", "xls", "xlsx", "csv", "rtf", "ods", "ppt", "odp",
		"md", "html", "htm", "epub", "pages", "fig", "psd", "ai", "indd", "xd", "sketch",
		"afdesign", "afphoto",
	}
	imageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp"}
	videoExtensions = []string{"mp4", "avi", "mov", "mkv", "webm", "wmv", "flv", "m4v", "3gp"}
	audioExtensions = []string{"mp3", "wav", "ogg", "flac", "aac", "wma", "m4a", "aiff", "alac", "mpeg"}
)

var byExtension = func() map[string]Category {
	m := make(map[string]Category)
	for _, e := range documentExtensions {
		m[e] = Document
	}
	for _, e := range imageExtensions {
		m[e] = Image
	}
	for _, e := range videoExtensions {
		m[e] = Video
	}
	for _, e := range audioExtensions {
		m[e] = Audio
	}
	return m
}()

// Parse converts a stored category value. ok is false for anything outside
// the enumeration.
func Parse(s string) (c Category, ok bool) {
	switch Category(s) {
	case Document, Image, Video, Audio, Other:
		return Category(s), true
	}
	return Other, false
}

// Extension returns the lowercased extension of filename without the dot.
func Extension(filename string) string {
	ext := path.Ext(filename)
	if ext == "" || ext == filename {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Detect classifies filename by its extension.
func Detect(filename string) (Category, string) {
	ext := Extension(filename)
	if ext == "" {
		return Other, ""
	}
	if c, ok := byExtension[ext]; ok {
		return c, ext
	}
	return Other, ext
}

// Listing routes.
const (
	RouteDocuments = "documents"
	RouteImages    = "images"
	RouteMedia     = "media"
	RouteOthers    = "others"
)

// Routes lists the listing routes in sidebar order.
var Routes = []string{RouteDocuments, RouteImages, RouteMedia, RouteOthers}

// ForRoute returns the categories shown on a listing route. Unknown routes
// get every category.
func ForRoute(route string) []Category {
	switch route {
	case RouteDocuments:
		return []Category{Document}
	case RouteImages:
		return []Category{Image}
	case RouteMedia:
		return []Category{Video, Audio}
	case RouteOthers:
		return []Category{Other}
	default:
		return append([]Category(nil), All...)
	}
}

// IsRoute reports whether route is one of the listing routes.
func IsRoute(route string) bool {
	for _, r := range Routes {
		if r == route {
			return true
		}
	}
	return false
}

// RouteFor maps a category to the listing route that shows it.
func RouteFor(c Category) string {
	switch c {
	case Document:
		return RouteDocuments
	case Image:
		return RouteImages
	case Video, Audio:
		return RouteMedia
	default:
		return RouteOthers
	}
}

// FormatSize renders a byte count the way the dashboard shows it.
// digits <= 0 means one decimal.
func FormatSize(size int64, digits int) string {
	if digits <= 0 {
		digits = 1
	}
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case size < kb:
		return fmt.Sprintf("%d Bytes", size)
	case size < mb:
		return fmt.Sprintf("%.*f KB", digits, float64(size)/kb)
	case size < gb:
		return fmt.Sprintf("%.*f MB", digits, float64(size)/mb)
	default:
		return fmt.Sprintf("%.*f GB", digits, float64(size)/gb)
	}
}
