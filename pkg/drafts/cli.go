package drafts

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/urfave/cli/v2"

	"github.com/mikermcconnell/BusScheduler-sub003/pkg/database"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "drafts",
		Usage: "Inspect and manage saved schedule drafts",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list saved drafts, newest first",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "limit",
						Usage: "maximum number of drafts to show",
						Value: 25,
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}

					saved, err := List(c.Int64("limit"))
					if err != nil {
						return err
					}

					for _, draft := range saved {
						valid := "unvalidated"
						if draft.Validation != nil {
							if draft.Validation.IsValid {
								valid = "valid"
							} else {
								valid = "invalid"
							}
						}

						fmt.Printf("%s  %s  %s  %s\n",
							draft.PrimaryIdentifier,
							draft.CreationDateTime.Format("2006-01-02 15:04:05"),
							valid,
							draft.FileName,
						)
					}

					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "dump a single draft",
				ArgsUsage: "<identifier>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one draft identifier")
					}

					if err := database.Connect(); err != nil {
						return err
					}

					draft, err := GetByIdentifier(c.Args().First())
					if err != nil {
						return err
					}

					pretty.Println(draft)

					return nil
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a draft and its travel time records",
				ArgsUsage: "<identifier>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one draft identifier")
					}

					if err := database.Connect(); err != nil {
						return err
					}

					identifier := c.Args().First()

					if err := Delete(identifier); err != nil {
						return err
					}
					if err := DeleteTravelTimes(identifier); err != nil {
						return err
					}

					fmt.Printf("deleted %s\n", identifier)

					return nil
				},
			},
		},
	}
}
