package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMosaicMCPServer creates an MCP server with the 2 mosaic tools
// registered: run_mosaic and describe_raster.
func NewMosaicMCPServer(svc *MosaicService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mosaic",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_mosaic",
		Description: "Merge co-registered single-band GeoTIFF tiles into one mosaic. extent merges binary inundation maps with logical OR; depth keeps the maximum depth per pixel. Nodata pixels never contribute.",
	}, svc.RunMosaic)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_raster",
		Description: "Report a raster's dimensions, datatype, nodata value, geotransform, and projection.",
	}, svc.DescribeRaster)

	return server
}

// RunMosaicMCPServerStdio runs the MCP server on stdio transport, blocking
// until stdin is closed or the context is cancelled.
func RunMosaicMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
