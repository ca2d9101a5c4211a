package mosaic

import (
	"fmt"

	"github.com/hazemap/mosaic/internal/raster"
)

// Outcome is one merged block: a typed pixel buffer shaped like its window,
// ready for a single write at the window's offset. Consumed by the writer
// and then discarded.
type Outcome struct {
	Window raster.Window
	Buf    interface{} // []uint8 or []float32 per the profile datatype
}

// Merger computes merged pixel values for one output window at a time under
// a profile's merge rule and nodata mask. Pure given its inputs: reads are
// its only side effect.
type Merger struct {
	profile Profile
	grid    raster.Grid
}

// NewMerger returns a Merger for the given profile over the planned grid.
func NewMerger(profile Profile, grid raster.Grid) *Merger {
	return &Merger{profile: profile, grid: grid}
}

// MergeWindow merges every source that geometrically intersects win.
// Sources with no overlap are skipped without any I/O, which keeps the
// merge cost proportional to valid data volume rather than sources × grid.
// Only the intersecting sub-window of each source is ever read.
func (m *Merger) MergeWindow(win raster.Window, sources []*raster.Source) (Outcome, error) {
	vals := make([]float64, win.W*win.H)
	valid := make([]bool, win.W*win.H)

	for _, src := range sources {
		srcWin := m.grid.SourceWindow(src)
		isect, ok := win.Intersect(srcWin)
		if !ok {
			continue
		}

		buf := make([]float64, isect.W*isect.H)
		if err := src.Read(isect.X-srcWin.X, isect.Y-srcWin.Y, isect.W, isect.H, buf); err != nil {
			return Outcome{}, fmt.Errorf("%w: window %s: read %s: %v", ErrBlockMerge, win, src.Path, err)
		}

		m.accumulate(vals, valid, win, isect, buf, src.NoData)
	}

	return Outcome{Window: win, Buf: m.profile.encodeBlock(vals, valid)}, nil
}

// accumulate folds one source sub-window into the running merge buffers.
// isect is the overlap in output-grid coordinates; buf holds its pixels
// row-major. Pixels equal to the source's nodata are masked out.
func (m *Merger) accumulate(vals []float64, valid []bool, win, isect raster.Window, buf []float64, nodata float64) {
	for row := 0; row < isect.H; row++ {
		di := (isect.Y - win.Y + row) * win.W
		si := row * isect.W
		for col := 0; col < isect.W; col++ {
			v := buf[si+col]
			if v == nodata {
				continue
			}
			d := di + isect.X - win.X + col
			vals[d] = m.profile.combine(vals[d], valid[d], v)
			valid[d] = true
		}
	}
}
