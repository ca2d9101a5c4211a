// Package mosaic merges N single-band co-registered raster tiles into one
// combined raster under a type-specific pixel-merge policy. A Profile binds
// the mosaic kind (extent or depth) to its output datatype, nodata sentinel,
// and merge rule; the Merger computes merged values per block window; the
// Engine runs the block workload sequentially or across a bounded worker
// pool with deterministic output either way.
package mosaic
