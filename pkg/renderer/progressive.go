// Package renderer drives progressive rendering: it folds one path per pixel
// per frame into persistent running means, spreads the tiles of each frame
// over a worker pool and groups frames into passes of growing length.
package renderer

import (
	"context"
	"image"
	"time"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/core"
	"github.com/df07/go-spectral-sdf/pkg/integrator"
	"github.com/df07/go-spectral-sdf/pkg/log"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
)

// Renderer owns the per-pixel state of one view and renders frames into it.
// It is not safe for concurrent use; SetConfig must not overlap a frame.
type Renderer struct {
	scene  scene.Scene
	tables *spectrum.Tables

	view         *integrator.View
	viewHash     uint64
	tileRenderer *TileRenderer
	buffers      *Buffers
	tiles        []*Tile
	workerPool   *WorkerPool
	frames       int // frames accumulated since the view last changed

	logger log.Logger
}

// NewRenderer resolves the view for s and cfg and allocates its pixel state
func NewRenderer(s scene.Scene, cfg config.Config, tables *spectrum.Tables) (*Renderer, error) {
	r := &Renderer{
		scene:  s,
		tables: tables,
		logger: log.New("renderer"),
	}
	if err := r.SetConfig(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// SetConfig switches to a new configuration. When anything that changes the
// image differs from the current view, every accumulator restarts at zero
// samples; generator states are kept. Tonemap and schedule settings apply
// without discarding samples.
func (r *Renderer) SetConfig(cfg config.Config) error {
	view, err := integrator.NewView(r.scene, cfg, r.tables)
	if err != nil {
		return err
	}
	integ, err := integrator.New(view)
	if err != nil {
		return err
	}
	cfg = view.Config
	hash := ViewHash(cfg)

	switch {
	case r.buffers == nil || r.buffers.Width != cfg.Image.Width || r.buffers.Height != cfg.Image.Height:
		r.buffers = NewBuffers(cfg.Image.Width, cfg.Image.Height, cfg.Render.Seed)
		r.frames = 0
	case hash != r.viewHash:
		r.logger.Noticef("view changed after %d frames, resetting accumulation", r.frames)
		r.buffers.ResetRadiance()
		r.frames = 0
	}

	if r.view == nil || r.view.Config.Render.TileSize != cfg.Render.TileSize ||
		r.view.Config.Image != cfg.Image || r.view.Config.Render.NumWorkers != cfg.Render.NumWorkers {
		r.Close()
		r.tiles = NewTileGrid(cfg.Image.Width, cfg.Image.Height, cfg.Render.TileSize)
	}

	r.view = view
	r.viewHash = hash
	r.tileRenderer = NewTileRenderer(view.Camera, integ, cfg.Integrator.Jitter, cfg.Integrator.SkipProbability)
	return nil
}

// Config returns the sanitized configuration in use
func (r *Renderer) Config() config.Config {
	return r.view.Config
}

// View returns the resolved rendering state
func (r *Renderer) View() *integrator.View {
	return r.view
}

// Frames returns the number of frames accumulated since the view last changed
func (r *Renderer) Frames() int {
	return r.frames
}

// Pick reports the hit distance and material under pixel (px, py)
func (r *Renderer) Pick(px, py int) (float64, core.Material) {
	return r.view.Pick(px, py)
}

// Close stops the worker pool. The next frame starts a new one.
func (r *Renderer) Close() {
	if r.workerPool != nil {
		r.workerPool.Stop()
		r.workerPool = nil
	}
}

func (r *Renderer) pool() *WorkerPool {
	if r.workerPool == nil {
		r.workerPool = NewWorkerPool(r.view.Config.Render.NumWorkers, len(r.tiles))
		r.workerPool.Start()
		r.logger.Infof("started %d render workers", r.workerPool.GetNumWorkers())
	}
	return r.workerPool
}

// RenderFrame adds one sample (or a skip) to every pixel and publishes the
// result. tileCallback, when set, is called for every tile after the frame
// is published, in completion order.
func (r *Renderer) RenderFrame(tileCallback func(tile *Tile, number int)) RenderStats {
	pool := r.pool()
	for id, tile := range r.tiles {
		pool.SubmitTask(TileTask{
			Tile:     tile,
			Frame:    r.frames + 1,
			TaskID:   id,
			Renderer: r.tileRenderer,
			Buffers:  r.buffers,
		})
	}

	stats := RenderStats{TotalPixels: r.buffers.Width * r.buffers.Height}
	order := make([]int, 0, len(r.tiles))
	for range r.tiles {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		stats.TotalSamples += result.Stats.TotalSamples
		stats.Skipped += result.Stats.Skipped
		order = append(order, result.TaskID)
	}

	r.buffers.Swap()
	r.frames++
	r.logger.Debugf("frame %d: %d samples, %d skipped", r.frames, stats.TotalSamples, stats.Skipped)

	if tileCallback != nil {
		for i, id := range order {
			tileCallback(r.tiles[id], i+1)
		}
	}
	return stats
}

// FramesForPass returns the total number of frames accumulated once the
// given pass (starting at 1) is complete. Totals double from InitialFrames
// and the last pass always reaches MaxFrames.
func (r *Renderer) FramesForPass(pass int) int {
	return framesForPass(r.view.Config.Render, pass)
}

func framesForPass(cfg config.RenderConfig, pass int) int {
	if pass >= cfg.MaxPasses {
		return cfg.MaxFrames
	}
	frames := cfg.InitialFrames
	for i := 1; i < pass && frames < cfg.MaxFrames; i++ {
		frames *= 2
	}
	return min(frames, cfg.MaxFrames)
}

// RenderPass renders frames until the pass's frame total is reached. The
// context is checked between frames; a cancelled pass leaves the last
// published frame intact.
func (r *Renderer) RenderPass(ctx context.Context, pass int, tileCallback func(TileCompletionResult)) (*image.RGBA, RenderStats, error) {
	target := r.FramesForPass(pass)
	r.logger.Infof("pass %d: target %d frames", pass, target)

	for r.frames < target {
		select {
		case <-ctx.Done():
			r.logger.Noticef("pass %d cancelled after %d frames", pass, r.frames)
			return nil, RenderStats{}, ctx.Err()
		default:
		}

		var onTile func(*Tile, int)
		if tileCallback != nil && r.frames+1 == target {
			onTile = func(tile *Tile, number int) {
				tile.PassesCompleted++
				tileCallback(TileCompletionResult{
					TileX:       tile.Bounds.Min.X / r.view.Config.Render.TileSize,
					TileY:       tile.Bounds.Min.Y / r.view.Config.Render.TileSize,
					TileImage:   r.buffers.Image(tile.Bounds, r.view.Config.Tonemap),
					PassNumber:  pass,
					TileNumber:  number,
					TotalTiles:  len(r.tiles),
					TotalPasses: r.view.Config.Render.MaxPasses,
				})
			}
		}
		r.RenderFrame(onTile)
	}

	img, stats := r.assembleCurrentImage(target)
	return img, stats, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Image      *image.RGBA
	Stats      RenderStats
	Duration   time.Duration
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // Image data for just this tile
	PassNumber int         // Which pass this tile was rendered in

	// Progress information
	TileNumber  int // Current tile number in this pass (1-based)
	TotalTiles  int // Total number of tiles in the image
	TotalPasses int // Total number of passes planned
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders passes in a goroutine and reports them on the
// returned channels, which are closed when rendering stops. If
// options.TileUpdates is false the tile channel is closed immediately.
func (r *Renderer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan PassResult, <-chan TileCompletionResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	tileChan := make(chan TileCompletionResult, 100)
	errChan := make(chan error, 1)

	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(passChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)
		defer r.Close()

		renderCfg := r.view.Config.Render
		r.logger.Noticef("rendering %s at %dx%d: %d passes, up to %d frames",
			r.scene.Name(), r.buffers.Width, r.buffers.Height, renderCfg.MaxPasses, renderCfg.MaxFrames)

		for pass := 1; pass <= renderCfg.MaxPasses; pass++ {
			startTime := time.Now()

			var tileCallback func(TileCompletionResult)
			if options.TileUpdates {
				tileCallback = func(result TileCompletionResult) {
					select {
					case tileChan <- result:
					case <-ctx.Done():
					default:
						// Channel full; the pass image carries the tile anyway
					}
				}
			}

			img, stats, err := r.RenderPass(ctx, pass, tileCallback)
			if err != nil {
				errChan <- err
				return
			}

			passTime := time.Since(startTime)
			r.logger.Infof("pass %d completed in %v (%.1f samples/pixel)", pass, passTime, stats.AverageSamples)

			isLast := pass == renderCfg.MaxPasses || r.frames >= renderCfg.MaxFrames
			select {
			case passChan <- PassResult{PassNumber: pass, Image: img, Stats: stats, Duration: passTime, IsLast: isLast}:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}

			if isLast {
				r.logger.Noticef("reached %d frames, stopping", r.frames)
				return
			}
		}
	}()

	return passChan, tileChan, errChan
}

// Image tonemaps the published frame
func (r *Renderer) Image() *image.RGBA {
	return r.buffers.Image(image.Rect(0, 0, r.buffers.Width, r.buffers.Height), r.view.Config.Tonemap)
}

// Image64 tonemaps the published frame at 16 bits per channel
func (r *Renderer) Image64() *image.RGBA64 {
	return r.buffers.Image64(r.view.Config.Tonemap)
}

// Radiance returns the accumulated XYZ mean and sample count of a pixel
func (r *Renderer) Radiance(x, y int) (core.Vec3, int) {
	acc := r.buffers.Read(x, y).Radiance
	return acc.Mean, acc.Count
}

// assembleCurrentImage creates an image from the published pixel state and
// calculates render statistics in a single pass
func (r *Renderer) assembleCurrentImage(targetFrames int) (*image.RGBA, RenderStats) {
	stats := RenderStats{
		TotalPixels:  r.buffers.Width * r.buffers.Height,
		TargetFrames: targetFrames,
		MinSamples:   targetFrames,
	}
	for _, p := range r.buffers.Pixels() {
		stats.TotalSamples += p.Radiance.Count
		stats.MinSamples = min(stats.MinSamples, p.Radiance.Count)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, p.Radiance.Count)
	}
	stats.AverageSamples = float64(stats.TotalSamples) / float64(max(1, stats.TotalPixels))
	return r.Image(), stats
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int             // Number of passes completed for this tile
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tilesX := (width + tileSize - 1) / tileSize
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			bounds := image.Rect(x0, y0, min(x0+tileSize, width), min(y0+tileSize, height))
			tiles = append(tiles, &Tile{ID: len(tiles), Bounds: bounds})
		}
	}
	return tiles
}
