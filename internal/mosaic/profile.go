package mosaic

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// Kind selects the pixel-merge policy of a mosaic run.
type Kind string

const (
	// KindExtent merges binary inundation extent rasters: logical OR over
	// valid inputs, uint8 output, nodata 255.
	KindExtent Kind = "extent"

	// KindDepth merges inundation depth rasters: maximum over valid inputs,
	// float32 output, nodata -9999.
	KindDepth Kind = "depth"
)

// Profile binds a mosaic kind to its output datatype, nodata sentinel, and
// merge rule. Immutable; constructed once per run by ResolveProfile.
type Profile struct {
	Kind     Kind
	DataType godal.DataType
	NoData   float64

	// combine folds one valid source value v into the running merge value.
	// has reports whether any prior source was valid at the pixel. The rule
	// is commutative and associative over sources, so processing order and
	// parallel grouping never change the result.
	combine func(cur float64, has bool, v float64) float64
}

// ResolveProfile maps a kind selector to its Profile. Any value outside
// {extent, depth} fails with ErrUnsupportedKind.
func ResolveProfile(kind string) (Profile, error) {
	switch Kind(kind) {
	case KindExtent:
		return Profile{
			Kind:     KindExtent,
			DataType: godal.Byte,
			NoData:   255,
			combine:  combineExtent,
		}, nil
	case KindDepth:
		return Profile{
			Kind:     KindDepth,
			DataType: godal.Float32,
			NoData:   -9999,
			combine:  combineDepth,
		}, nil
	default:
		return Profile{}, fmt.Errorf("%w: %q (want %q or %q)", ErrUnsupportedKind, kind, KindExtent, KindDepth)
	}
}

// combineExtent ORs presence across sources. Any valid nonzero pixel counts
// as presence, so out-of-range extent values collapse to 1 and the output
// codomain stays {0, 1, nodata}.
func combineExtent(cur float64, has bool, v float64) float64 {
	presence := 0.0
	if v != 0 {
		presence = 1
	}
	if has && cur == 1 {
		return 1
	}
	return presence
}

// combineDepth keeps the maximum valid depth.
func combineDepth(cur float64, has bool, v float64) float64 {
	if !has || v > cur {
		return v
	}
	return cur
}

// encodeBlock converts the float64 working buffer to the profile's output
// datatype, substituting the profile nodata wherever no source was valid.
func (p Profile) encodeBlock(vals []float64, valid []bool) interface{} {
	switch p.DataType {
	case godal.Byte:
		out := make([]uint8, len(vals))
		for i, v := range vals {
			if valid[i] {
				out[i] = uint8(v)
			} else {
				out[i] = uint8(p.NoData)
			}
		}
		return out
	default:
		out := make([]float32, len(vals))
		for i, v := range vals {
			if valid[i] {
				out[i] = float32(v)
			} else {
				out[i] = float32(p.NoData)
			}
		}
		return out
	}
}
