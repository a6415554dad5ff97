package errors

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// nodeKeyPattern matches the keys produced by the layout engine:
// n_<stageId> for stage nodes, s_-1 for the start node, a_<negative id>
// for add placeholders.
var nodeKeyPattern = regexp.MustCompile(`^(n_-?[0-9]+|s_-1|a_-[0-9]+)$`)

// ValidateNodeKey validates a node key received from a client.
// Keys are short and strictly formatted; anything else is rejected before
// it reaches a lookup.
func ValidateNodeKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidNodeKey, "node key cannot be empty")
	}
	if len(key) > 32 {
		return New(ErrCodeInvalidNodeKey, "node key too long (max 32 characters)")
	}
	if !nodeKeyPattern.MatchString(key) {
		return New(ErrCodeInvalidNodeKey, "malformed node key: %q", key)
	}
	return nil
}

// stageExtensions are the file extensions stage files may use.
var stageExtensions = map[string]bool{
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
}

// ValidateStageFilename validates that a stage file path has a supported
// extension and no control characters.
func ValidateStageFilename(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "stage file path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "stage file path contains invalid control characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !stageExtensions[ext] {
		return New(ErrCodeInvalidInput, "unsupported stage file extension %q (must be .json, .yaml, .yml or .toml)", ext)
	}
	return nil
}

// ValidateOutputPath validates an output path for rendered artifacts.
// It prevents writing through parent directory references.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No ".." path components
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidInput, "output path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains invalid control characters")
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "output path cannot contain '..'")
		}
	}

	return nil
}
