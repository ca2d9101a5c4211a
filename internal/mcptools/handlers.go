package mcptools

import (
	"context"
	"fmt"

	"github.com/hazemap/mosaic/internal/mosaic"
	"github.com/hazemap/mosaic/internal/raster"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MosaicService holds the I/O options shared by MCP tool handlers.
type MosaicService struct {
	io raster.Options
}

// NewMosaicService creates a MosaicService with the given raster I/O options.
func NewMosaicService(io raster.Options) *MosaicService {
	return &MosaicService{io: io}
}

// RunMosaic merges the given rasters into one mosaic and reports the output
// dimensions. It runs the same engine as the CLI: fail-fast, no partial
// output left behind.
func (s *MosaicService) RunMosaic(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunMosaicInput,
) (*mcp.CallToolResult, RunMosaicOutput, error) {
	if len(input.RasterPaths) == 0 {
		return nil, RunMosaicOutput{}, fmt.Errorf("rasterPaths is required")
	}
	if input.OutputPath == "" {
		return nil, RunMosaicOutput{}, fmt.Errorf("outputPath is required")
	}

	profile, err := mosaic.ResolveProfile(input.FimType)
	if err != nil {
		return nil, RunMosaicOutput{}, err
	}

	reg, err := raster.OpenSources(input.RasterPaths, s.io)
	if err != nil {
		return nil, RunMosaicOutput{}, err
	}
	defer reg.Close()

	engine := mosaic.NewEngine(profile, reg, input.OutputPath, mosaic.Options{
		BlockSize: input.BlockSize,
		Workers:   input.ParallelBlocks,
		IO:        s.io,
	}, nil)

	result, err := engine.Run(ctx)
	if err != nil {
		return nil, RunMosaicOutput{}, err
	}

	return nil, RunMosaicOutput{
		OutputPath: result.OutputPath,
		Width:      result.Grid.Width,
		Height:     result.Grid.Height,
		Blocks:     result.Blocks,
	}, nil
}

// DescribeRaster reports the metadata of a single raster without requiring
// a nodata value, so it works on arbitrary files.
func (s *MosaicService) DescribeRaster(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DescribeRasterInput,
) (*mcp.CallToolResult, DescribeRasterOutput, error) {
	if input.Path == "" {
		return nil, DescribeRasterOutput{}, fmt.Errorf("path is required")
	}

	info, err := raster.Inspect(input.Path, s.io)
	if err != nil {
		return nil, DescribeRasterOutput{}, err
	}

	out := DescribeRasterOutput{
		Path:         info.Path,
		Width:        info.Width,
		Height:       info.Height,
		DataType:     info.DataType.String(),
		GeoTransform: info.GeoTransform,
		Projection:   info.Projection,
	}
	if info.HasNoData {
		nd := info.NoData
		out.NoData = &nd
	}
	return nil, out, nil
}
