package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-spectral-sdf/pkg/config"
	"github.com/df07/go-spectral-sdf/pkg/integrator"
	"github.com/df07/go-spectral-sdf/pkg/loaders"
	"github.com/df07/go-spectral-sdf/pkg/log"
	"github.com/df07/go-spectral-sdf/pkg/renderer"
	"github.com/df07/go-spectral-sdf/pkg/scene"
	"github.com/df07/go-spectral-sdf/pkg/spectrum"
	"github.com/df07/go-spectral-sdf/web/server"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"
)

var logger = log.New("spectral-sdf")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// overrides are command line values replacing scene configuration fields.
// Zero values leave the field alone.
type overrides struct {
	Width, Height int
	Frames        int
	Passes        int
	Integrator    string
	Exposure      float64
	Workers       int
}

func (o overrides) apply(cfg *config.Config) {
	if o.Width > 0 {
		cfg.Image.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Image.Height = o.Height
	}
	if o.Frames > 0 {
		cfg.Render.MaxFrames = o.Frames
	}
	if o.Passes > 0 {
		cfg.Render.MaxPasses = o.Passes
	}
	if o.Integrator != "" {
		cfg.Integrator.Kind = o.Integrator
	}
	if o.Exposure > 0 {
		cfg.Tonemap.Exposure = o.Exposure
	}
	if o.Workers > 0 {
		cfg.Render.NumWorkers = o.Workers
	}
}

// loadScene resolves the scene named on the command line and layers the
// optional config file and flag overrides on top of its configuration
func loadScene(ctx *cli.Context) (scene.Scene, config.Config, error) {
	sc, cfg, err := scene.Resolve(ctx.String("scene"), ctx.String("presets"))
	if err != nil {
		return nil, cfg, err
	}
	if path := ctx.String("config"); path != "" {
		if cfg, err = config.LoadOver(cfg, path); err != nil {
			return nil, cfg, err
		}
	}
	overrides{
		Width:      ctx.Int("width"),
		Height:     ctx.Int("height"),
		Frames:     ctx.Int("frames"),
		Passes:     ctx.Int("passes"),
		Integrator: ctx.String("integrator"),
		Exposure:   ctx.Float64("exposure"),
		Workers:    ctx.Int("workers"),
	}.apply(&cfg)
	return sc, cfg, nil
}

// RenderScene renders the selected scene until its frame target is reached
// or the process is interrupted.
func RenderScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, cfg, err := loadScene(ctx)
	if err != nil {
		return err
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		logger.Infof("host: %d default workers, %s of %s memory available",
			renderer.DefaultWorkerCount(), fmtBytes(vm.Available), fmtBytes(vm.Total))
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := renderOptions{
		Output:   ctx.String("out"),
		Snapshot: ctx.String("snapshot"),
		Resume:   ctx.String("resume"),
	}
	stats, elapsed, err := renderToFile(runCtx, sc, cfg, opts)
	if errors.Is(err, context.Canceled) {
		logger.Notice("render interrupted, keeping the last completed pass")
	} else if err != nil {
		return err
	}

	displayRenderStats(os.Stdout, sc.Name(), stats, elapsed)
	return nil
}

type renderOptions struct {
	Output   string
	Snapshot string
	Resume   string
}

// renderToFile runs the progressive passes one after another, writing the
// image (and snapshot when requested) after each so the latest result
// survives an interruption.
func renderToFile(ctx context.Context, sc scene.Scene, cfg config.Config, opts renderOptions) (renderer.RenderStats, time.Duration, error) {
	var stats renderer.RenderStats
	r, err := renderer.NewRenderer(sc, cfg, spectrum.Default())
	if err != nil {
		return stats, 0, err
	}
	defer r.Close()

	if opts.Resume != "" {
		if err := readSnapshot(r, opts.Resume); err != nil {
			return stats, 0, err
		}
		logger.Noticef("resumed %s at %d frames", opts.Resume, r.Frames())
	}
	if dir := filepath.Dir(opts.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, 0, fmt.Errorf("creating output directory: %w", err)
		}
	}

	renderCfg := r.Config().Render
	start := time.Now()
	for pass := 1; pass <= renderCfg.MaxPasses; pass++ {
		img, passStats, err := r.RenderPass(ctx, pass, nil)
		if err != nil {
			return stats, time.Since(start), err
		}
		stats = passStats

		var out image.Image = img
		if wideOutput(opts.Output) {
			out = r.Image64()
		}
		if err := loaders.SaveImage(opts.Output, out); err != nil {
			return stats, time.Since(start), err
		}
		if opts.Snapshot != "" {
			if err := writeSnapshot(r, opts.Snapshot); err != nil {
				return stats, time.Since(start), err
			}
		}
		logger.Infof("pass %d: %.1f samples/pixel, saved %s", pass, stats.AverageSamples, opts.Output)

		if r.Frames() >= renderCfg.MaxFrames {
			break
		}
	}
	return stats, time.Since(start), nil
}

// wideOutput reports whether the output format keeps 16 bits per channel
func wideOutput(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return true
	}
	return false
}

func writeSnapshot(r *renderer.Renderer, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := r.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readSnapshot(r *renderer.Renderer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.ReadSnapshot(f)
}

func displayRenderStats(w io.Writer, sceneName string, stats renderer.RenderStats, elapsed time.Duration) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Scene", "Pixels", "Samples", "Samples/pixel", "Skipped", "Time"})
	table.Append([]string{
		sceneName,
		strconv.Itoa(stats.TotalPixels),
		strconv.Itoa(stats.TotalSamples),
		fmt.Sprintf("%.1f (%d - %d)", stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed),
		strconv.Itoa(stats.Skipped),
		elapsed.Round(time.Millisecond).String(),
	})
	table.Render()
}

// PickPixel reports the first hit under a pixel of the selected scene.
func PickPixel(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 2 {
		return errors.New("expected pixel coordinates x and y")
	}
	x, errX := strconv.Atoi(ctx.Args().Get(0))
	y, errY := strconv.Atoi(ctx.Args().Get(1))
	if errX != nil || errY != nil {
		return fmt.Errorf("invalid pixel coordinates %q %q", ctx.Args().Get(0), ctx.Args().Get(1))
	}

	sc, cfg, err := loadScene(ctx)
	if err != nil {
		return err
	}
	view, err := integrator.NewView(sc, cfg, spectrum.Default())
	if err != nil {
		return err
	}
	if x < 0 || y < 0 || x >= view.Config.Image.Width || y >= view.Config.Image.Height {
		return fmt.Errorf("pixel (%d, %d) outside the %dx%d image", x, y, view.Config.Image.Width, view.Config.Image.Height)
	}

	distance, mat := view.Pick(x, y)
	fmt.Printf("%s (%d, %d): %s at distance %.4f\n", sc.Name(), x, y, mat, distance)
	return nil
}

// ListScenes prints the built-in scenes and presets.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	response, err := scene.ListAllScenes(ctx.String("presets"))
	if err != nil {
		return err
	}
	displayScenes(os.Stdout, response)
	return nil
}

func displayScenes(w io.Writer, response scene.ScenesResponse) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Group", "ID", "Name", "Description"})
	for _, group := range response.Groups {
		for _, info := range group.Scenes {
			table.Append([]string{group.Name, info.ID, info.Name, info.Description})
		}
	}
	table.Render()
}

// Serve starts the web interface.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	staticDir := ctx.String("static")
	if _, err := os.Stat(staticDir); err != nil {
		logger.Warningf("static directory %s not found, serving the API only", staticDir)
		staticDir = ""
	}
	return server.NewServer(ctx.Int("port"), ctx.String("presets"), staticDir).Start()
}

// ShowInfo prints the CPU and memory available to the renderer.
func ShowInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Resource", "Value"})

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		table.Append([]string{"CPU", infos[0].ModelName})
	}
	if logical, err := cpu.Counts(true); err == nil {
		table.Append([]string{"Logical cores", strconv.Itoa(logical)})
	}
	if physical, err := cpu.Counts(false); err == nil {
		table.Append([]string{"Physical cores", strconv.Itoa(physical)})
	}
	table.Append([]string{"Default workers", strconv.Itoa(renderer.DefaultWorkerCount())})

	if vm, err := mem.VirtualMemory(); err == nil {
		table.Append([]string{"Memory", fmtBytes(vm.Total)})
		table.Append([]string{"Available", fmt.Sprintf("%s (%.1f%% used)", fmtBytes(vm.Available), vm.UsedPercent)})
	} else {
		logger.Warningf("reading memory stats: %v", err)
	}
	table.Render()
	return nil
}

func fmtBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
