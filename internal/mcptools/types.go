package mcptools

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// RunMosaicInput is the input for the run_mosaic MCP tool.
type RunMosaicInput struct {
	RasterPaths    []string `json:"rasterPaths" jsonschema:"input GeoTIFF paths to merge, all co-registered to one pixel grid"`
	OutputPath     string   `json:"outputPath" jsonschema:"destination GeoTIFF path"`
	FimType        string   `json:"fimType" jsonschema:"merge policy: extent (binary OR, uint8) or depth (max, float32)"`
	ParallelBlocks int      `json:"parallelBlocks,omitempty" jsonschema:"worker pool size; 1 or absent runs sequentially"`
	BlockSize      int      `json:"blockSize,omitempty" jsonschema:"square block edge in pixels (default: 256)"`
}

// RunMosaicOutput is the result of the run_mosaic MCP tool.
type RunMosaicOutput struct {
	OutputPath string `json:"outputPath"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Blocks     int    `json:"blocks"`
}

// DescribeRasterInput is the input for the describe_raster MCP tool.
type DescribeRasterInput struct {
	Path string `json:"path" jsonschema:"path of the raster to describe"`
}

// DescribeRasterOutput is the result of the describe_raster MCP tool.
type DescribeRasterOutput struct {
	Path         string     `json:"path"`
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	DataType     string     `json:"dataType"`
	NoData       *float64   `json:"noData,omitempty"`
	GeoTransform [6]float64 `json:"geoTransform"`
	Projection   string     `json:"projection,omitempty"`
}
