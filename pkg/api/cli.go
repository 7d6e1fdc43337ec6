package api

import (
	"github.com/urfave/cli/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/api/routes"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/config"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/elastic_client"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/extract"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/metrics"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/redis_client"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/transforms"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen target for the web server, overrides the configuration",
					},
				},
				Action: func(c *cli.Context) error {
					if err := config.Load(); err != nil {
						return err
					}
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					engine, err := transforms.LoadEngine(config.Config.Transforms.File)
					if err != nil {
						return err
					}

					options := config.Config.ExtractorOptions()
					options.Transform = engine.Apply

					routes.Extractor = extract.NewExtractor(options)
					routes.SetupCache()

					metrics.Instance.Serve(config.Config.Metrics.Listen)

					listen := config.Config.API.Listen
					if c.String("listen") != "" {
						listen = c.String("listen")
					}

					return SetupServer(listen)
				},
			},
		},
	}
}
