package raster

import (
	"fmt"
	"os"

	"github.com/airbusgeo/godal"
)

// Writer owns the destination dataset. The GeoTIFF is created once, before
// any block is merged, internally tiled at the window size so that each
// block write touches exactly one storage tile. All writes go through this
// single handle; the engine serializes them through a result queue.
type Writer struct {
	path string
	ds   *godal.Dataset
	band godal.Band
}

// CreateOutput creates the destination raster with the grid's dimensions and
// geotransform, the profile's datatype and nodata value, and a tiled layout
// of block×block.
func CreateOutput(path string, grid Grid, dtype godal.DataType, nodata float64, block int, opts Options) (*Writer, error) {
	if block <= 0 {
		block = DefaultBlockSize
	}

	createOpts := []godal.DatasetCreateOption{
		godal.CreationOption(
			"TILED=YES",
			fmt.Sprintf("BLOCKXSIZE=%d", block),
			fmt.Sprintf("BLOCKYSIZE=%d", block),
		),
	}
	if opts.GDALCacheMB > 0 {
		createOpts = append(createOpts, godal.ConfigOption(fmt.Sprintf("GDAL_CACHEMAX=%d", opts.GDALCacheMB)))
	}

	ds, err := godal.Create(godal.GTiff, path, 1, dtype, grid.Width, grid.Height, createOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrWrite, path, err)
	}

	if err := ds.SetGeoTransform(grid.GeoTransform()); err != nil {
		ds.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s: set geotransform: %v", ErrWrite, path, err)
	}
	if err := ds.SetNoData(nodata); err != nil {
		ds.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s: set nodata: %v", ErrWrite, path, err)
	}
	if grid.Projection != "" {
		sr, err := godal.NewSpatialRefFromWKT(grid.Projection)
		if err != nil {
			ds.Close()
			os.Remove(path)
			return nil, fmt.Errorf("%w: %s: parse projection: %v", ErrWrite, path, err)
		}
		defer sr.Close()
		if err := ds.SetSpatialRef(sr); err != nil {
			ds.Close()
			os.Remove(path)
			return nil, fmt.Errorf("%w: %s: set projection: %v", ErrWrite, path, err)
		}
	}

	return &Writer{path: path, ds: ds, band: ds.Bands()[0]}, nil
}

// WriteBlock commits one merged window. buf must be a []uint8 or []float32
// of length win.W*win.H matching the destination datatype.
func (w *Writer) WriteBlock(win Window, buf interface{}) error {
	if err := w.band.Write(win.X, win.Y, buf, win.W, win.H); err != nil {
		return fmt.Errorf("%w: %s: window %s: %v", ErrWrite, w.path, win, err)
	}
	return nil
}

// Close flushes and finalizes the destination exactly once.
func (w *Writer) Close() error {
	if w.ds == nil {
		return nil
	}
	err := w.ds.Close()
	w.ds = nil
	if err != nil {
		return fmt.Errorf("%w: %s: finalize: %v", ErrWrite, w.path, err)
	}
	return nil
}

// Discard closes the destination and removes the file. A partially written
// mosaic is invalid and must never be left behind looking like a result.
func (w *Writer) Discard() {
	if w.ds != nil {
		w.ds.Close()
		w.ds = nil
	}
	os.Remove(w.path)
}
