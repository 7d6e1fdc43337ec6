package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/api"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/dataimporter"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/dbwatch"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/drafts"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/events"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/indexer"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/quickadjust"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/serviceband"

	_ "time/tzdata"
)

func main() {
	_ = godotenv.Load()

	if os.Getenv("SCHEDULER_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("SCHEDULER_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "busscheduler",
		Description: "Single binary of truth for BusScheduler - runs all the services",

		Commands: []*cli.Command{
			api.RegisterCLI(),
			dataimporter.RegisterCLI(),
			drafts.RegisterCLI(),
			serviceband.RegisterCLI(),
			quickadjust.RegisterCLI(),
			events.RegisterCLI(),
			dbwatch.RegisterCLI(),
			indexer.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
