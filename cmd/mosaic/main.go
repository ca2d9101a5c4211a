package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/hazemap/mosaic/internal/config"
	"github.com/hazemap/mosaic/internal/mcptools"
	"github.com/hazemap/mosaic/internal/mosaic"
	"github.com/hazemap/mosaic/internal/raster"
)

// CLI flags parsed from command line.
type cliFlags struct {
	RasterPaths    string
	OutputPath     string
	FimType        string
	ParallelBlocks int
	BlockSize      int
	GDALCacheMB    int
	Verbose        bool
	ServeMCP       bool
	Version        bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("mosaic", flag.ContinueOnError)
	fs.StringVar(&flags.RasterPaths, "rasters", "", "space-delimited input GeoTIFF paths")
	fs.StringVar(&flags.OutputPath, "output", "", "destination GeoTIFF path")
	fs.StringVar(&flags.FimType, "fim-type", "", "merge policy: extent or depth")
	fs.IntVar(&flags.ParallelBlocks, "parallel-blocks", 0, "worker pool size (1 = sequential)")
	fs.IntVar(&flags.BlockSize, "block-size", 0, "square block edge in pixels (default 256)")
	fs.IntVar(&flags.GDALCacheMB, "gdal-cache", 0, "GDAL block cache size in MB (0 = library default)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "print per-block progress")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	godal.RegisterAll()

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	applyDefaults(&flags, cfg)

	ioOpts := raster.Options{GDALCacheMB: flags.GDALCacheMB}

	if flags.ServeMCP {
		server := mcptools.NewMosaicMCPServer(mcptools.NewMosaicService(ioOpts))
		return mcptools.RunMosaicMCPServerStdio(context.Background(), server)
	}

	paths := strings.Fields(flags.RasterPaths)
	if len(paths) == 0 {
		return fmt.Errorf("no input rasters: use -rasters %q", "a.tif b.tif")
	}
	if flags.OutputPath == "" {
		return fmt.Errorf("no output path: use -output")
	}

	// Resolve the profile before touching any raster so a bad fim type
	// never costs an open.
	profile, err := mosaic.ResolveProfile(flags.FimType)
	if err != nil {
		return err
	}

	reg, err := raster.OpenSources(paths, ioOpts)
	if err != nil {
		return err
	}
	defer reg.Close()

	var onProgress func(mosaic.ProgressEvent)
	if flags.Verbose {
		onProgress = func(ev mosaic.ProgressEvent) {
			fmt.Fprintln(os.Stderr, mosaic.FormatProgress(ev))
		}
	}

	engine := mosaic.NewEngine(profile, reg, flags.OutputPath, mosaic.Options{
		BlockSize: flags.BlockSize,
		Workers:   flags.ParallelBlocks,
		IO:        ioOpts,
	}, onProgress)

	result, err := engine.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "mosaicked %d rasters into %s (%dx%d, %d blocks)\n",
		len(paths), result.OutputPath, result.Grid.Width, result.Grid.Height, result.Blocks)
	return nil
}

// applyDefaults fills unset flags from the project config, then from hard
// defaults. Explicit flags always win.
func applyDefaults(flags *cliFlags, cfg *config.ProjectConfig) {
	if flags.BlockSize == 0 {
		flags.BlockSize = cfg.BlockSize
	}
	if flags.ParallelBlocks == 0 {
		flags.ParallelBlocks = cfg.ParallelBlocks
	}
	if flags.ParallelBlocks == 0 {
		flags.ParallelBlocks = 1
	}
	if flags.GDALCacheMB == 0 {
		flags.GDALCacheMB = cfg.GDALCacheMB
	}
	if !flags.Verbose {
		flags.Verbose = cfg.Verbose
	}
}
