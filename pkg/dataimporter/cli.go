package dataimporter

import (
	"errors"

	"github.com/nextstop/nextstop/pkg/database"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Import static timetable data",
		Subcommands: []*cli.Command{
			{
				Name:  "gtfs-schedule",
				Usage: "import a GTFS static zip for a feed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "feed",
						Usage:    "feed code the schedule belongs to",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "path to the GTFS zip",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					if c.String("feed") == "" || c.String("file") == "" {
						return errors.New("feed and file are required")
					}

					if err := database.Connect(); err != nil {
						return err
					}

					return ImportGTFSSchedule(c.String("feed"), c.String("file"))
				},
			},
		},
	}
}
