package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "spectral-sdf"
	app.Usage = "progressive spectral rendering of signed distance field scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	sceneFlags := []cli.Flag{
		cli.StringFlag{
			Name:  "scene, s",
			Value: "default",
			Usage: "built-in scene name or preset:<name>",
		},
		cli.StringFlag{
			Name:  "presets",
			Value: "scenes",
			Usage: "directory holding scene presets",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "JSON file whose fields override the scene configuration",
		},
		cli.IntFlag{
			Name:  "width",
			Usage: "image width (0 keeps the scene value)",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "image height (0 keeps the scene value)",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a scene progressively and save the result",
			Description: `
Render passes of doubling frame counts until the frame or pass limit is
reached. The image is written after every pass so an interrupted render keeps
its latest result. Use a .tiff output for 16 bits per channel.`,
			Flags: append(append([]cli.Flag{}, sceneFlags...),
				cli.IntFlag{
					Name:  "frames, f",
					Usage: "maximum frames per pixel (0 keeps the scene value)",
				},
				cli.IntFlag{
					Name:  "passes, p",
					Usage: "maximum passes (0 keeps the scene value)",
				},
				cli.StringFlag{
					Name:  "integrator, i",
					Usage: "path, ao, firsthit or normals",
				},
				cli.Float64Flag{
					Name:  "exposure",
					Usage: "tonemap exposure (0 keeps the scene value)",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "render workers (0 uses every CPU)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "render.png",
					Usage: "output image (.png, .jpg, .tiff or .bmp)",
				},
				cli.StringFlag{
					Name:  "snapshot",
					Usage: "write the accumulation state to this file after every pass",
				},
				cli.StringFlag{
					Name:  "resume",
					Usage: "continue from a snapshot written by an earlier render",
				},
			),
			Action: RenderScene,
		},
		{
			Name:      "pick",
			Usage:     "report the distance and material under a pixel",
			ArgsUsage: "x y",
			Flags:     sceneFlags,
			Action:    PickPixel,
		},
		{
			Name:  "scenes",
			Usage: "list built-in scenes and presets",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "presets",
					Value: "scenes",
					Usage: "directory holding scene presets",
				},
			},
			Action: ListScenes,
		},
		{
			Name:  "serve",
			Usage: "start the web interface",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "port",
					Value: 8080,
					Usage: "port to serve on",
				},
				cli.StringFlag{
					Name:  "presets",
					Value: "scenes",
					Usage: "directory holding scene presets",
				},
				cli.StringFlag{
					Name:  "static",
					Value: "web/static",
					Usage: "directory of static files for the browser client",
				},
			},
			Action: Serve,
		},
		{
			Name:   "info",
			Usage:  "show the host resources available for rendering",
			Action: ShowInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
