package raster

import "errors"

// Sentinel errors surfaced by the raster layer. Callers match them with
// errors.Is; every failure is fatal to the run.
var (
	// ErrMissingInput indicates a listed raster path could not be opened.
	ErrMissingInput = errors.New("raster: input cannot be opened")

	// ErrMissingNodata indicates a source has no declared nodata value.
	// Merging cannot distinguish valid from invalid pixels without one.
	ErrMissingNodata = errors.New("raster: source has no nodata value")

	// ErrIncompatibleGrid indicates sources disagree on pixel size or carry
	// a rotated geotransform. Detected before any merge I/O.
	ErrIncompatibleGrid = errors.New("raster: incompatible source grids")

	// ErrWrite indicates a failure creating or writing the destination.
	ErrWrite = errors.New("raster: destination write failed")
)
