package main

import (
	"os"

	"github.com/df07/go-spectral-sdf/pkg/log"
	"github.com/df07/go-spectral-sdf/web/server"
	"github.com/urfave/cli"
)

var logger = log.New("web")

func main() {
	app := cli.NewApp()
	app.Name = "spectral-sdf-web"
	app.Usage = "serve the progressive renderer to a browser"
	app.Flags = []cli.Flag{
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
			Usage: "directory of static files for the browser client",
		},
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
	}
	app.Action = func(ctx *cli.Context) error {
		if ctx.Bool("v") {
			log.SetLevel(log.Info)
		}
		logger.Noticef("visit http://localhost:%d to start rendering", ctx.Int("port"))
		return server.NewServer(ctx.Int("port"), ctx.String("presets"), ctx.String("static")).Start()
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorf("error starting server: %v", err)
		os.Exit(1)
	}
}
