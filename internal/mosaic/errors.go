package mosaic

import "errors"

var (
	// ErrUnsupportedKind indicates an unrecognized fim type. Checked before
	// any raster I/O so a bad selector never costs an open.
	ErrUnsupportedKind = errors.New("mosaic: unsupported fim type")

	// ErrBlockMerge indicates an I/O or computation failure while merging a
	// specific window. The wrapping error names the window and source.
	ErrBlockMerge = errors.New("mosaic: block merge failed")
)
