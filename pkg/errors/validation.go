package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateGroupPath validates a slash-separated group path for safety.
// Group paths become nested output directories, so they must stay inside the
// output root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No empty, "." or ".." segments
//   - No backslashes (Windows-style paths)
func ValidateGroupPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "group path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "group path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "group path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "group path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "group path cannot contain backslashes")
	}

	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "":
			return New(ErrCodeInvalidPath, "group path %q has an empty segment", path)
		case ".", "..":
			return New(ErrCodeInvalidPath, "group path %q cannot contain %q segments", path, seg)
		}
	}

	return nil
}

var (
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]+`)
	underscoresRe = regexp.MustCompile(`_+`)
)

// SanitizeBaseName lower-cases name and collapses every run of characters
// outside [a-z0-9] to a single underscore. An empty result becomes "tile".
func SanitizeBaseName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = nonAlnumRe.ReplaceAllString(name, "_")
	name = underscoresRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "tile"
	}
	return name
}

// BaseNameFromGroup derives a default base name from the last segment of a
// group path.
func BaseNameFromGroup(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return SanitizeBaseName(path)
}

// ValidateTilesetID validates a tileset identifier used as a directory name.
func ValidateTilesetID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "tileset id cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidInput, "tileset id cannot contain path separators")
	}
	if id == "." || id == ".." {
		return New(ErrCodeInvalidInput, "tileset id %q is reserved", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "tileset id contains invalid control characters")
		}
	}
	return nil
}
