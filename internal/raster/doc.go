// Package raster is the GDAL-backed I/O layer of the mosaicker. It opens
// and validates input tiles (Source, Registry), plans the output grid and
// its block partition (Grid, Window), and owns the destination dataset
// (Writer). All georeferenced math assumes axis-aligned north-up grids with
// a shared pixel size; anything else is rejected up front.
package raster
