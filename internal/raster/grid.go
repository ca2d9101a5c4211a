package raster

import (
	"fmt"
	"math"
)

// DefaultBlockSize is the window edge length used when no block size is
// configured. It matches the GeoTIFF tile size of the output, so one window
// maps onto exactly one storage tile.
const DefaultBlockSize = 256

// snapEps absorbs float noise when converting georeferenced extents to whole
// pixel counts.
const snapEps = 1e-6

// Window is a rectangular sub-region of the output grid in pixel
// coordinates: the unit of I/O and of parallel work.
type Window struct {
	X, Y int // offset of the top-left pixel
	W, H int // width and height in pixels
}

func (w Window) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", w.X, w.Y, w.W, w.H)
}

// Intersect returns the overlap of two windows and whether it is non-empty.
func (w Window) Intersect(o Window) (Window, bool) {
	x0 := max(w.X, o.X)
	y0 := max(w.Y, o.Y)
	x1 := min(w.X+w.W, o.X+o.W)
	y1 := min(w.Y+w.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Window{}, false
	}
	return Window{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, true
}

// Grid is the output raster grid: the union bounding box of all source
// bounds snapped onto the common pixel lattice.
type Grid struct {
	OriginX    float64
	OriginY    float64
	PixelSizeX float64 // positive, west to east
	PixelSizeY float64 // negative, north to south
	Width      int
	Height     int
	Projection string // WKT taken from the first source
}

// PlanGrid computes the union bounding box of all sources, snapped outward
// onto the first source's pixel lattice so that every source pixel aligns
// exactly to an output pixel. No resampling ever happens downstream.
func PlanGrid(sources []*Source) (Grid, error) {
	if err := validateSources(sources); err != nil {
		return Grid{}, err
	}

	ref := sources[0]
	px := ref.GeoTransform[1]
	py := ref.GeoTransform[5]

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range sources {
		gt := s.GeoTransform
		minX = math.Min(minX, gt[0])
		maxX = math.Max(maxX, gt[0]+float64(s.Width)*px)
		maxY = math.Max(maxY, gt[3])
		minY = math.Min(minY, gt[3]+float64(s.Height)*py)
	}

	// Snap the union origin outward onto the reference lattice.
	originX := ref.GeoTransform[0] + math.Floor((minX-ref.GeoTransform[0])/px+snapEps)*px
	originY := ref.GeoTransform[3] + math.Floor((maxY-ref.GeoTransform[3])/py+snapEps)*py

	width := int(math.Ceil((maxX-originX)/px - snapEps))
	height := int(math.Ceil((minY-originY)/py - snapEps))

	return Grid{
		OriginX:    originX,
		OriginY:    originY,
		PixelSizeX: px,
		PixelSizeY: py,
		Width:      width,
		Height:     height,
		Projection: ref.Projection,
	}, nil
}

// GeoTransform returns the affine pixel-to-georeferenced mapping of the grid.
func (g Grid) GeoTransform() [6]float64 {
	return [6]float64{g.OriginX, g.PixelSizeX, 0, g.OriginY, 0, g.PixelSizeY}
}

// Bounds returns the window covering the whole grid.
func (g Grid) Bounds() Window {
	return Window{X: 0, Y: 0, W: g.Width, H: g.Height}
}

// Windows partitions the grid into disjoint block×block windows, clipped at
// the right and bottom edges. The windows tile the grid exactly: no gaps, no
// overlap, so writes from different workers never touch the same region.
func (g Grid) Windows(block int) []Window {
	if block <= 0 {
		block = DefaultBlockSize
	}
	var windows []Window
	for y := 0; y < g.Height; y += block {
		h := min(block, g.Height-y)
		for x := 0; x < g.Width; x += block {
			windows = append(windows, Window{X: x, Y: y, W: min(block, g.Width-x), H: h})
		}
	}
	return windows
}

// SourceWindow returns the source's pixel extent expressed in output-grid
// coordinates. Sources are co-registered, so the offset is an exact whole
// number of pixels up to float noise.
func (g Grid) SourceWindow(s *Source) Window {
	offX := int(math.Round((s.GeoTransform[0] - g.OriginX) / g.PixelSizeX))
	offY := int(math.Round((s.GeoTransform[3] - g.OriginY) / g.PixelSizeY))
	return Window{X: offX, Y: offY, W: s.Width, H: s.Height}
}
