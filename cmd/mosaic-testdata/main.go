// Command mosaic-testdata generates the mock input tiles used by the mosaic
// test suite: four 768x768 extent rasters and four 768x768 depth rasters,
// each carrying valid data in one corner and its own nodata sentinel in the
// center block.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
)

const (
	size      = 768
	tile      = 256
	pixelSize = 0.001
	originX   = 0.0
	originY   = 45.0
)

// corners lists each raster's valid corner block as (row, col) offsets.
var corners = [4][2]int{
	{0, 0},     // top-left
	{0, 512},   // top-right
	{512, 0},   // bottom-left
	{512, 512}, // bottom-right
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var outDir string

	fs := flag.NewFlagSet("mosaic-testdata", flag.ContinueOnError)
	fs.StringVar(&outDir, "out", "mock_data", "directory for the generated rasters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	godal.RegisterAll()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	if err := createExtentRasters(outDir); err != nil {
		return err
	}
	if err := createDepthRasters(outDir); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote 8 rasters to %s\n", outDir)
	return nil
}

// createExtentRasters writes raster1..4.tif: uint8 tiles, zero everywhere
// except 1 in the designated corner and that raster's own nodata value
// (255, 254, 253, 252) in the center block.
func createExtentRasters(dir string) error {
	nodata := [4]uint8{255, 254, 253, 252}
	for i := 0; i < 4; i++ {
		data := make([]uint8, size*size)
		fillBlock(data, 256, 256, nodata[i])
		fillBlock(data, corners[i][0], corners[i][1], 1)

		path := filepath.Join(dir, fmt.Sprintf("raster%d.tif", i+1))
		if err := writeTile(path, godal.Byte, data, float64(nodata[i])); err != nil {
			return err
		}
	}
	return nil
}

// createDepthRasters writes depth_raster1..4.tif: float32 tiles, zero
// everywhere except the corner depth (1.01, 2.02, 3.03, 4.04) and -9999 in
// the center block.
func createDepthRasters(dir string) error {
	for i := 0; i < 4; i++ {
		data := make([]float32, size*size)
		fillBlock(data, 256, 256, -9999)
		fillBlock(data, corners[i][0], corners[i][1], float32(1.01*float64(i+1)))

		path := filepath.Join(dir, fmt.Sprintf("depth_raster%d.tif", i+1))
		if err := writeTile(path, godal.Float32, data, -9999); err != nil {
			return err
		}
	}
	return nil
}

// fillBlock sets one 256x256 block of a 768x768 buffer to v.
func fillBlock[T uint8 | float32](data []T, row, col int, v T) {
	for r := row; r < row+tile; r++ {
		for c := col; c < col+tile; c++ {
			data[r*size+c] = v
		}
	}
}

func writeTile(path string, dtype godal.DataType, data interface{}, nodata float64) error {
	ds, err := godal.Create(godal.GTiff, path, 1, dtype, size, size,
		godal.CreationOption("TILED=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256"))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	gt := [6]float64{originX, pixelSize, 0, originY, 0, -pixelSize}
	if err := ds.SetGeoTransform(gt); err != nil {
		ds.Close()
		return err
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		ds.Close()
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		ds.Close()
		return err
	}
	if err := ds.SetNoData(nodata); err != nil {
		ds.Close()
		return err
	}
	if err := ds.Bands()[0].Write(0, 0, data, size, size); err != nil {
		ds.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return ds.Close()
}
