package raster

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
)

// pixelSizeTolerance is the relative tolerance used when comparing pixel
// sizes across sources. Co-registered tiles written by different tools can
// disagree in the last few bits of the geotransform.
const pixelSizeTolerance = 1e-6

// Options carries explicit I/O tuning for source and destination handles.
// The core never reads the process environment itself.
type Options struct {
	// GDALCacheMB sets the GDAL block cache size in megabytes for datasets
	// opened with these options. Zero keeps the library default.
	GDALCacheMB int
}

func (o Options) openOptions() []godal.OpenOption {
	var opts []godal.OpenOption
	if o.GDALCacheMB > 0 {
		opts = append(opts, godal.ConfigOption(fmt.Sprintf("GDAL_CACHEMAX=%d", o.GDALCacheMB)))
	}
	return opts
}

// Source is one open input raster: a single-band georeferenced tile with a
// declared nodata sentinel. Fields are read-only after OpenSources validates
// the set.
type Source struct {
	Path         string
	DataType     godal.DataType
	NoData       float64
	GeoTransform [6]float64
	Width        int
	Height       int
	Projection   string // WKT, may be empty

	ds   *godal.Dataset
	band godal.Band
}

// Read fills buf with the w×h sub-window of the source at pixel offset
// (x, y) in the source's own coordinates. Values are converted to float64
// by the underlying library.
func (s *Source) Read(x, y, w, h int, buf []float64) error {
	return s.band.Read(x, y, buf, w, h)
}

// Close releases the underlying dataset handle.
func (s *Source) Close() error {
	if s.ds == nil {
		return nil
	}
	err := s.ds.Close()
	s.ds = nil
	return err
}

// Registry owns the open source handles for the duration of a run. Handles
// are opened and validated once; block reads are issued on demand without
// re-opening files. GDAL dataset handles are not safe for concurrent use, so
// parallel workers each call Reopen for an independent handle set.
type Registry struct {
	paths   []string
	opts    Options
	sources []*Source
}

// OpenSources opens every path read-only, records its metadata, and
// validates that the set shares one pixel grid. Any failure closes the
// handles already opened and fails the whole job: partial results are never
// produced from an inconsistent grid.
func OpenSources(paths []string, opts Options) (*Registry, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no input rasters given", ErrMissingInput)
	}

	reg := &Registry{paths: paths, opts: opts}
	for _, path := range paths {
		src, err := openSource(path, opts)
		if err != nil {
			reg.Close()
			return nil, err
		}
		reg.sources = append(reg.sources, src)
	}

	if err := validateSources(reg.sources); err != nil {
		reg.Close()
		return nil, err
	}
	return reg, nil
}

// Sources returns the open handles in input order.
func (r *Registry) Sources() []*Source {
	return r.sources
}

// Reopen opens a fresh, independently owned handle set over the same paths.
// The caller is responsible for closing the returned registry.
func (r *Registry) Reopen() (*Registry, error) {
	return OpenSources(r.paths, r.opts)
}

// Close releases all source handles. Safe to call after a partial open.
func (r *Registry) Close() error {
	var first error
	for _, s := range r.sources {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.sources = nil
	return first
}

func openSource(path string, opts Options) (*Source, error) {
	ds, err := godal.Open(path, opts.openOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}

	st := ds.Structure()
	band := ds.Bands()[0]

	nodata, ok := band.NoData()
	if !ok {
		ds.Close()
		return nil, fmt.Errorf("%w: %s", ErrMissingNodata, path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		ds.Close()
		return nil, fmt.Errorf("%w: %s: no geotransform: %v", ErrMissingInput, path, err)
	}

	// An absent CRS is tolerated; the output then carries none either.
	wkt, _ := ds.SpatialRef().WKT()

	return &Source{
		Path:         path,
		DataType:     band.Structure().DataType,
		NoData:       nodata,
		GeoTransform: gt,
		Width:        st.SizeX,
		Height:       st.SizeY,
		Projection:   wkt,
		ds:           ds,
		band:         band,
	}, nil
}

// validateSources checks that every source shares the reference pixel size
// and that no source carries rotation terms. Axis-aligned north-up grids
// only.
func validateSources(sources []*Source) error {
	ref := sources[0]
	for _, s := range sources {
		gt := s.GeoTransform
		if gt[2] != 0 || gt[4] != 0 {
			return fmt.Errorf("%w: %s has a rotated geotransform", ErrIncompatibleGrid, s.Path)
		}
		if !closeEnough(gt[1], ref.GeoTransform[1]) || !closeEnough(gt[5], ref.GeoTransform[5]) {
			return fmt.Errorf("%w: %s pixel size (%g, %g) differs from %s (%g, %g)",
				ErrIncompatibleGrid, s.Path, gt[1], gt[5],
				ref.Path, ref.GeoTransform[1], ref.GeoTransform[5])
		}
	}
	return nil
}

func closeEnough(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return math.Abs(a-b) <= pixelSizeTolerance*scale
}

// Info describes a raster without retaining a handle. Unlike Source it does
// not require a nodata value, so it can report on arbitrary files.
type Info struct {
	Path         string
	Width        int
	Height       int
	DataType     godal.DataType
	NoData       float64
	HasNoData    bool
	GeoTransform [6]float64
	Projection   string
}

// Inspect opens path, reads its metadata, and closes it again.
func Inspect(path string, opts Options) (Info, error) {
	ds, err := godal.Open(path, opts.openOptions()...)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
	}
	defer ds.Close()

	st := ds.Structure()
	band := ds.Bands()[0]
	nodata, ok := band.NoData()
	gt, _ := ds.GeoTransform()
	wkt, _ := ds.SpatialRef().WKT()

	return Info{
		Path:         path,
		Width:        st.SizeX,
		Height:       st.SizeY,
		DataType:     band.Structure().DataType,
		NoData:       nodata,
		HasNoData:    ok,
		GeoTransform: gt,
		Projection:   wkt,
	}, nil
}
