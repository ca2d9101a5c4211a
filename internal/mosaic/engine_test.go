package mosaic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/hazemap/mosaic/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	godal.RegisterAll()
}

const (
	testSize  = 768
	testTile  = 256
	testPixel = 0.001
)

// writeTestRaster creates a single-band GeoTIFF at path. data must be a
// []uint8 or []float32 of length w*h.
func writeTestRaster(t *testing.T, path string, dtype godal.DataType, w, h int, originX, originY float64, data interface{}, nodata float64) {
	t.Helper()

	ds, err := godal.Create(godal.GTiff, path, 1, dtype, w, h,
		godal.CreationOption("TILED=YES", "BLOCKXSIZE=256", "BLOCKYSIZE=256"))
	require.NoError(t, err)

	require.NoError(t, ds.SetGeoTransform([6]float64{originX, testPixel, 0, originY, 0, -testPixel}))
	require.NoError(t, ds.SetNoData(nodata))
	require.NoError(t, ds.Bands()[0].Write(0, 0, data, w, h))
	require.NoError(t, ds.Close())
}

// cornerBlocks lists the four valid-corner offsets (row, col), clockwise
// from top-left.
var cornerBlocks = [4][2]int{{0, 0}, {0, 512}, {512, 0}, {512, 512}}

// writeExtentFixtures creates the four 768x768 extent tiles: corner block 1,
// center block that tile's own nodata (255, 254, 253, 252), rest 0.
func writeExtentFixtures(t *testing.T, dir string) []string {
	t.Helper()
	nodata := [4]uint8{255, 254, 253, 252}
	paths := make([]string, 4)
	for i := 0; i < 4; i++ {
		data := make([]uint8, testSize*testSize)
		setBlock(data, 256, 256, nodata[i])
		setBlock(data, cornerBlocks[i][0], cornerBlocks[i][1], 1)
		paths[i] = filepath.Join(dir, fmt.Sprintf("raster%d.tif", i+1))
		writeTestRaster(t, paths[i], godal.Byte, testSize, testSize, 0, 45, data, float64(nodata[i]))
	}
	return paths
}

// writeDepthFixtures creates the four 768x768 depth tiles: corner depths
// 1.01, 2.02, 3.03, 4.04, center block -9999, rest 0.
func writeDepthFixtures(t *testing.T, dir string) []string {
	t.Helper()
	paths := make([]string, 4)
	for i := 0; i < 4; i++ {
		data := make([]float32, testSize*testSize)
		setBlock(data, 256, 256, float32(-9999))
		setBlock(data, cornerBlocks[i][0], cornerBlocks[i][1], float32(1.01*float64(i+1)))
		paths[i] = filepath.Join(dir, fmt.Sprintf("depth_raster%d.tif", i+1))
		writeTestRaster(t, paths[i], godal.Float32, testSize, testSize, 0, 45, data, -9999)
	}
	return paths
}

func setBlock[T uint8 | float32](data []T, row, col int, v T) {
	for r := row; r < row+testTile; r++ {
		for c := col; c < col+testTile; c++ {
			data[r*testSize+c] = v
		}
	}
}

func runMosaic(t *testing.T, paths []string, outPath, kind string, workers int) *Result {
	t.Helper()

	profile, err := ResolveProfile(kind)
	require.NoError(t, err)

	reg, err := raster.OpenSources(paths, raster.Options{})
	require.NoError(t, err)
	defer reg.Close()

	engine := NewEngine(profile, reg, outPath, Options{Workers: workers}, nil)
	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	return result
}

func readUint8(t *testing.T, path string) (data []uint8, nodata float64, dtype godal.DataType) {
	t.Helper()
	ds, err := godal.Open(path)
	require.NoError(t, err)
	defer ds.Close()

	st := ds.Structure()
	band := ds.Bands()[0]
	nd, ok := band.NoData()
	require.True(t, ok, "output must carry a nodata value")

	data = make([]uint8, st.SizeX*st.SizeY)
	require.NoError(t, band.Read(0, 0, data, st.SizeX, st.SizeY))
	return data, nd, band.Structure().DataType
}

func readFloat32(t *testing.T, path string) (data []float32, nodata float64, dtype godal.DataType) {
	t.Helper()
	ds, err := godal.Open(path)
	require.NoError(t, err)
	defer ds.Close()

	st := ds.Structure()
	band := ds.Bands()[0]
	nd, ok := band.NoData()
	require.True(t, ok, "output must carry a nodata value")

	data = make([]float32, st.SizeX*st.SizeY)
	require.NoError(t, band.Read(0, 0, data, st.SizeX, st.SizeY))
	return data, nd, band.Structure().DataType
}

func TestEngine_ExtentFourCorners(t *testing.T) {
	dir := t.TempDir()
	paths := writeExtentFixtures(t, dir)
	outPath := filepath.Join(dir, "mosaic.tif")

	result := runMosaic(t, paths, outPath, "extent", 1)
	assert.Equal(t, testSize, result.Grid.Width)
	assert.Equal(t, testSize, result.Grid.Height)
	assert.Equal(t, 9, result.Blocks)

	data, nodata, dtype := readUint8(t, outPath)
	assert.Equal(t, godal.Byte, dtype)
	assert.Equal(t, 255.0, nodata)

	for r := 0; r < testSize; r++ {
		for c := 0; c < testSize; c++ {
			v := data[r*testSize+c]
			inCenter := r >= 256 && r < 512 && c >= 256 && c < 512
			inCorner := (r < 256 || r >= 512) && (c < 256 || c >= 512)
			switch {
			case inCenter:
				// Every tile is nodata there: output nodata.
				if v != 255 {
					t.Fatalf("center pixel (%d,%d) = %d, want 255", r, c, v)
				}
			case inCorner:
				if v != 1 {
					t.Fatalf("corner pixel (%d,%d) = %d, want 1", r, c, v)
				}
			default:
				if v != 0 {
					t.Fatalf("pixel (%d,%d) = %d, want 0", r, c, v)
				}
			}
		}
	}
}

func TestEngine_ExtentOutputCodomain(t *testing.T) {
	dir := t.TempDir()
	paths := writeExtentFixtures(t, dir)
	outPath := filepath.Join(dir, "mosaic.tif")

	runMosaic(t, paths, outPath, "extent", 1)

	data, _, _ := readUint8(t, outPath)
	for i, v := range data {
		if v != 0 && v != 1 && v != 255 {
			t.Fatalf("pixel %d = %d, want one of {0, 1, 255}", i, v)
		}
	}
}

func TestEngine_DepthFourCorners(t *testing.T) {
	dir := t.TempDir()
	paths := writeDepthFixtures(t, dir)
	outPath := filepath.Join(dir, "mosaic.tif")

	runMosaic(t, paths, outPath, "depth", 1)

	data, nodata, dtype := readFloat32(t, outPath)
	assert.Equal(t, godal.Float32, dtype)
	assert.Equal(t, -9999.0, nodata)

	// Each corner holds its own tile's depth value.
	wantCorner := []float32{1.01, 2.02, 3.03, 4.04}
	for i, corner := range cornerBlocks {
		v := data[(corner[0]+128)*testSize+corner[1]+128]
		assert.InDelta(t, wantCorner[i], v, 1e-5, "corner %d", i)
	}

	// Center is nodata in every tile.
	assert.Equal(t, float32(-9999), data[384*testSize+384])

	// Remaining area is 0, the maximum of the overlapping zero regions.
	assert.Equal(t, float32(0), data[128*testSize+384])
}

func TestEngine_DepthOverlapTakesMax(t *testing.T) {
	dir := t.TempDir()

	// Two fully overlapping 64x64 tiles with interleaved validity.
	a := make([]float32, 64*64)
	b := make([]float32, 64*64)
	for i := range a {
		a[i] = float32(i % 7)
		b[i] = float32(i % 5)
		if i%3 == 0 {
			a[i] = -9999
		}
	}
	pa := filepath.Join(dir, "a.tif")
	pb := filepath.Join(dir, "b.tif")
	writeTestRaster(t, pa, godal.Float32, 64, 64, 0, 45, a, -9999)
	writeTestRaster(t, pb, godal.Float32, 64, 64, 0, 45, b, -9999)

	outPath := filepath.Join(dir, "mosaic.tif")
	runMosaic(t, []string{pa, pb}, outPath, "depth", 1)

	data, _, _ := readFloat32(t, outPath)
	for i, v := range data {
		// Output is never less than any one valid input at that pixel.
		if a[i] != -9999 {
			assert.GreaterOrEqual(t, v, a[i], "pixel %d", i)
		}
		assert.GreaterOrEqual(t, v, b[i], "pixel %d", i)
	}
}

func TestEngine_DisjointSourcesKeepTheirValues(t *testing.T) {
	dir := t.TempDir()

	// Two 256x256 tiles side by side with a 256-pixel gap between them.
	a := make([]float32, 256*256)
	b := make([]float32, 256*256)
	for i := range a {
		a[i] = 1.5
		b[i] = 2.5
	}
	pa := filepath.Join(dir, "a.tif")
	pb := filepath.Join(dir, "b.tif")
	writeTestRaster(t, pa, godal.Float32, 256, 256, 0, 45, a, -9999)
	writeTestRaster(t, pb, godal.Float32, 256, 256, 0.512, 45, b, -9999)

	outPath := filepath.Join(dir, "mosaic.tif")
	result := runMosaic(t, []string{pa, pb}, outPath, "depth", 1)
	assert.Equal(t, 768, result.Grid.Width)
	assert.Equal(t, 256, result.Grid.Height)

	data, _, _ := readFloat32(t, outPath)
	assert.Equal(t, float32(1.5), data[128*768+128])
	assert.Equal(t, float32(-9999), data[128*768+384], "gap must be nodata")
	assert.Equal(t, float32(2.5), data[128*768+640])
}

func TestEngine_SequentialAndParallelMatch(t *testing.T) {
	dir := t.TempDir()

	for _, kind := range []string{"extent", "depth"} {
		t.Run(kind, func(t *testing.T) {
			var paths []string
			if kind == "extent" {
				paths = writeExtentFixtures(t, dir)
			} else {
				paths = writeDepthFixtures(t, dir)
			}

			seqPath := filepath.Join(dir, kind+"_seq.tif")
			parPath := filepath.Join(dir, kind+"_par.tif")
			runMosaic(t, paths, seqPath, kind, 1)
			runMosaic(t, paths, parPath, kind, 4)

			if kind == "extent" {
				seq, seqNd, _ := readUint8(t, seqPath)
				par, parNd, _ := readUint8(t, parPath)
				assert.Equal(t, seqNd, parNd)
				assert.Equal(t, seq, par)
			} else {
				seq, seqNd, _ := readFloat32(t, seqPath)
				par, parNd, _ := readFloat32(t, parPath)
				assert.Equal(t, seqNd, parNd)
				assert.Equal(t, seq, par)
			}
		})
	}
}

func TestEngine_UnknownKindFailsBeforeOutput(t *testing.T) {
	_, err := ResolveProfile("velocity")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestEngine_MissingNodataFailsWholeJob(t *testing.T) {
	dir := t.TempDir()

	// One good tile and one without a nodata value.
	good := filepath.Join(dir, "good.tif")
	writeTestRaster(t, good, godal.Byte, 64, 64, 0, 45, make([]uint8, 64*64), 255)

	bad := filepath.Join(dir, "bad.tif")
	ds, err := godal.Create(godal.GTiff, bad, 1, godal.Byte, 64, 64)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{0, testPixel, 0, 45, 0, -testPixel}))
	require.NoError(t, ds.Close())

	_, err = raster.OpenSources([]string{good, bad}, raster.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, raster.ErrMissingNodata)
	assert.Contains(t, err.Error(), "bad.tif")

	// The registry never opened, so no output was ever created.
	outPath := filepath.Join(dir, "mosaic.tif")
	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEngine_WorkerFailureRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	paths := writeExtentFixtures(t, dir)

	profile, err := ResolveProfile("extent")
	require.NoError(t, err)

	reg, err := raster.OpenSources(paths, raster.Options{})
	require.NoError(t, err)
	defer reg.Close()

	// Delete an input after validation so block reads fail mid-run: the
	// parallel workers re-open sources by path.
	require.NoError(t, os.Remove(paths[2]))

	outPath := filepath.Join(dir, "mosaic.tif")
	engine := NewEngine(profile, reg, outPath, Options{Workers: 4}, nil)
	_, err = engine.Run(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr), "partial output must be discarded")
}
