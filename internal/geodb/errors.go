package geodb

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by an update cycle. Callers match them with errors.Is;
// the wrapped cause is kept alongside.
var (
	ErrMissingCredential = errors.New("missing provider license key")
	ErrTransport         = errors.New("download failed")
	ErrFilesystem        = errors.New("filesystem operation failed")
	ErrDecompress        = errors.New("archive extraction failed")
	ErrUnexpectedLayout  = errors.New("unexpected archive layout")
	ErrMalformedMarker   = errors.New("malformed version marker")
	ErrClockSkew         = errors.New("version marker is in the future")
	ErrNotLoaded         = errors.New("database not loaded")
)

func fsErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrFilesystem, op, path, err)
}
