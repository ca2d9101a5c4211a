package mosaic

import (
	"context"

	"github.com/hazemap/mosaic/internal/raster"
	"golang.org/x/sync/errgroup"
)

// Options tunes a mosaic run. Zero values fall back to sensible defaults.
type Options struct {
	// BlockSize is the square window edge in pixels. Also the output tile
	// size. Defaults to raster.DefaultBlockSize.
	BlockSize int

	// Workers is the parallelism degree. 1 (or less) runs every window
	// sequentially on the caller path.
	Workers int

	// IO is passed through to source and destination handles.
	IO raster.Options
}

// Result summarizes a completed run.
type Result struct {
	OutputPath string
	Grid       raster.Grid
	Blocks     int
}

// Engine drives the block-merge workload: it plans the output grid, creates
// the destination, and executes one merge per window either sequentially or
// across a bounded worker pool. First failure aborts outstanding work; the
// partial output is removed. No retries: failures here are data or
// configuration problems, not transient ones.
type Engine struct {
	profile    Profile
	reg        *raster.Registry
	outPath    string
	opts       Options
	onProgress func(ProgressEvent)
}

// NewEngine creates an Engine over an already validated source registry.
// onProgress may be nil.
func NewEngine(profile Profile, reg *raster.Registry, outPath string, opts Options, onProgress func(ProgressEvent)) *Engine {
	if opts.BlockSize <= 0 {
		opts.BlockSize = raster.DefaultBlockSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Engine{
		profile:    profile,
		reg:        reg,
		outPath:    outPath,
		opts:       opts,
		onProgress: onProgress,
	}
}

// Run executes the whole mosaic job and finalizes the destination.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	grid, err := raster.PlanGrid(e.reg.Sources())
	if err != nil {
		return nil, err
	}
	windows := grid.Windows(e.opts.BlockSize)

	writer, err := raster.CreateOutput(e.outPath, grid, e.profile.DataType, e.profile.NoData, e.opts.BlockSize, e.opts.IO)
	if err != nil {
		return nil, err
	}

	if e.opts.Workers == 1 {
		err = e.runSequential(ctx, writer, grid, windows)
	} else {
		err = e.runParallel(ctx, writer, grid, windows)
	}
	if err != nil {
		writer.Discard()
		return nil, err
	}

	if err := writer.Close(); err != nil {
		writer.Discard()
		return nil, err
	}
	return &Result{OutputPath: e.outPath, Grid: grid, Blocks: len(windows)}, nil
}

// runSequential processes every window on the caller path against the
// registry's own handles.
func (e *Engine) runSequential(ctx context.Context, writer *raster.Writer, grid raster.Grid, windows []raster.Window) error {
	merger := NewMerger(e.profile, grid)
	for _, win := range windows {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := e.mergeOne(merger, win, e.reg.Sources())
		if err != nil {
			return err
		}
		if err := writer.WriteBlock(out.Window, out.Buf); err != nil {
			return err
		}
	}
	return nil
}

// runParallel distributes windows across Workers goroutines, each holding
// its own independently opened source handles (GDAL datasets are not safe
// for concurrent use). Merge outcomes flow through a result queue to a
// single goroutine owning the destination handle, so writes are serialized
// while windows stay disjoint by construction. The first failure cancels
// the derived context and aborts the rest.
func (e *Engine) runParallel(ctx context.Context, writer *raster.Writer, grid raster.Grid, windows []raster.Window) error {
	g, gctx := errgroup.WithContext(ctx)
	winCh := make(chan raster.Window)
	outCh := make(chan Outcome, e.opts.Workers)

	g.Go(func() error {
		defer close(winCh)
		for _, win := range windows {
			select {
			case winCh <- win:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		workers, wctx := errgroup.WithContext(gctx)
		for i := 0; i < e.opts.Workers; i++ {
			workers.Go(func() error {
				return e.mergeWorker(wctx, grid, winCh, outCh)
			})
		}
		err := workers.Wait()
		close(outCh)
		return err
	})

	g.Go(func() error {
		for out := range outCh {
			if err := writer.WriteBlock(out.Window, out.Buf); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}

// mergeWorker pulls windows until the channel closes or the run is aborted.
func (e *Engine) mergeWorker(ctx context.Context, grid raster.Grid, winCh <-chan raster.Window, outCh chan<- Outcome) error {
	srcs, err := e.reg.Reopen()
	if err != nil {
		return err
	}
	defer srcs.Close()

	merger := NewMerger(e.profile, grid)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case win, ok := <-winCh:
			if !ok {
				return nil
			}
			out, err := e.mergeOne(merger, win, srcs.Sources())
			if err != nil {
				return err
			}
			select {
			case outCh <- out:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (e *Engine) mergeOne(merger *Merger, win raster.Window, sources []*raster.Source) (Outcome, error) {
	e.emit(ProgressEvent{Window: win, Status: ProgressWorking})
	out, err := merger.MergeWindow(win, sources)
	if err != nil {
		e.emit(ProgressEvent{Window: win, Status: ProgressFailed, Message: err.Error()})
		return Outcome{}, err
	}
	e.emit(ProgressEvent{Window: win, Status: ProgressComplete})
	return out, nil
}

func (e *Engine) emit(ev ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(ev)
	}
}
