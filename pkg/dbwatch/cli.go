package dbwatch

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/config"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/metrics"
	"github.com/mikermcconnell/BusScheduler-sub003/pkg/redis_client"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "dbwatch",
		Usage: "Watches the database and raises events",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run events server",
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

					log.Info().Msg("Starting dbwatch server")

					metrics.Instance.Serve(config.Config.Metrics.Listen)

					draftsWatch := NewDraftsWatch()
					go draftsWatch.Run()

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					return nil
				},
			},
		},
	}
}
