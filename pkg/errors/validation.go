package errors

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateTracePath checks that path names an existing regular file.
//
// The returned error carries [ErrCodeInvalidPath] and mentions only the
// file's base name, matching what the stats report prints:
//
//	path trace.json did not point to a file
//
// Directories, sockets, devices and missing paths are all rejected.
func ValidateTracePath(path string) error {
	name := filepath.Base(path)
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return New(ErrCodeInvalidPath, "path %s did not point to a file", name)
	}
	return nil
}

// ValidateQuantifierName validates a quantifier display name used in
// filter expressions.
//
// Names are opaque solver identifiers, so the rules are minimal:
//   - No empty names
//   - No control characters
//   - No leading or trailing whitespace
//   - Maximum length of 1024 characters
func ValidateQuantifierName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFilter, "quantifier name cannot be empty")
	}
	if len(name) > 1024 {
		return New(ErrCodeInvalidFilter, "quantifier name too long (max 1024 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFilter, "quantifier name contains invalid control characters")
		}
	}
	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidFilter, "quantifier name has surrounding whitespace: %q", name)
	}
	return nil
}
