package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Parse errors returned by ParseImageFileName. Callers report these per file;
// a bad filename never aborts the batch.
var (
	ErrUnsupportedExtension = errors.New("unsupported image extension")
	ErrNoMatch              = errors.New("filename does not match SKU-NAME-INDEX pattern")
)

// allowedImageExtensions is the set of image types accepted into the pipeline.
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ParsedFileName is the result of parsing one image filename.
type ParsedFileName struct {
	SKU      string
	NameHint string
	Position int
}

// ParseImageFileName extracts the SKU, an optional human-readable name hint
// and the gallery position from a filename following the
// SKU-DESCRIPTIVE_NAME-INDEX.ext convention.
//
// The SKU is the leading hyphen-separated token, INDEX is the trailing
// integer before the extension, and everything in between (hyphens included)
// becomes the name hint with hyphens replaced by spaces. SKU-INDEX.ext with
// no descriptive segment is also accepted.
//
// The function is pure: the same filename always yields the same result.
func ParseImageFileName(fileName string) (*ParsedFileName, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedImageExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	parts := strings.Split(base, "-")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, fileName)
	}

	sku := strings.TrimSpace(parts[0])
	if sku == "" {
		return nil, fmt.Errorf("%w: %q has an empty SKU segment", ErrNoMatch, fileName)
	}

	position, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: %q has no trailing index", ErrNoMatch, fileName)
	}

	// Middle segments form the descriptive name, hyphen-for-space.
	nameHint := strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " "))

	return &ParsedFileName{
		SKU:      sku,
		NameHint: nameHint,
		Position: position,
	}, nil
}
