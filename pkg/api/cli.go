package api

import (
	"context"

	"github.com/nextstop/nextstop/pkg/assembler"
	"github.com/nextstop/nextstop/pkg/clock"
	"github.com/nextstop/nextstop/pkg/config"
	"github.com/nextstop/nextstop/pkg/database"
	"github.com/nextstop/nextstop/pkg/feeds"
	"github.com/nextstop/nextstop/pkg/feeds/gtfsdb"
	"github.com/nextstop/nextstop/pkg/livestream"
	"github.com/nextstop/nextstop/pkg/redis_client"
	"github.com/nextstop/nextstop/pkg/transit"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "feeds",
						Usage: "path to the feeds configuration file",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					feedsConfig, err := config.Load(c.String("feeds"))
					if err != nil {
						return err
					}

					server, err := BuildServer(feedsConfig)
					if err != nil {
						return err
					}

					return server.SetupServer(c.String("listen"))
				},
			},
		},
	}
}

// BuildServer wires the registry, federator, assembler and live engine
// from the feed configuration.
func BuildServer(feedsConfig *config.Config) (*Server, error) {
	registry := feeds.NewRegistry()
	fuzzyFeeds := map[string]bool{}

	for _, feedConfig := range feedsConfig.Feeds {
		realtimeTTL, err := feedConfig.RealtimeTTLDuration()
		if err != nil {
			return nil, err
		}

		backend := gtfsdb.NewBackend(
			feedConfig.Code,
			database.MongoGlobalInstance.Database,
			feedConfig.RealtimeURL,
			realtimeTTL,
			clock.RealClock{},
		)
		backend.SetupCache(redis_client.Client)

		registry.Register(feedConfig.Code, backend)

		if feedConfig.FuzzyTripMatching {
			fuzzyFeeds[feedConfig.Code] = true
		}
	}

	scheduleAssembler := assembler.NewAssembler(clock.RealClock{})
	scheduleAssembler.FuzzyFeeds = fuzzyFeeds

	server := &Server{
		Registry:  registry,
		Federator: feeds.NewFederator(registry),
		Assembler: scheduleAssembler,
	}

	server.Live = livestream.NewEngine(func(ctx context.Context, query transit.ScheduleQuery) ([]transit.ResolvedTrip, error) {
		backend, err := server.backendFor(query)
		if err != nil {
			return nil, err
		}

		return scheduleAssembler.Assemble(ctx, backend, query)
	}, livestream.DefaultConfig())

	return server, nil
}
