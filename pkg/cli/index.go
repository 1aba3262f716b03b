package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	"github.com/secmon-lab/docqa/pkg/repository/firestore"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/secmon-lab/docqa/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIndex() *cli.Command {
	var dryRun bool
	var appCfg config.AppConfig
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview the Firestore index migration without applying it",
			Destination: &dryRun,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "index",
		Aliases: []string{"x"},
		Usage:   "Create the vector index when missing and wait until it is ready",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			logger.Info("Index configuration",
				"index", appCfg.Index.Name,
				"dimension", appCfg.Index.Dimension,
				"backend", repoCfg.Backend(),
				"dryRun", dryRun)

			if dryRun {
				if repoCfg.Backend() != "firestore" {
					return goerr.New("dry run is only supported for the firestore backend", goerr.V("backend", repoCfg.Backend()))
				}
				indexConfig := firestore.IndexConfig(repoCfg.CollectionPrefix(), appCfg.Index.Name, appCfg.Index.Dimension)
				steps, err := firestore.PlanIndex(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), indexConfig)
				if err != nil {
					return err
				}

				if len(steps) == 0 {
					logger.Info("No changes required")
					return nil
				}
				for _, step := range steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
				return nil
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc := usecase.NewIndexUseCase(repo.VectorIndex(), usecase.WithReadinessPolicy(appCfg.ReadinessPolicy()))
			if err := uc.EnsureIndex(ctx, appCfg.Index.Name, appCfg.Index.Dimension); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s %s (dimension %d)\n",
				color.GreenString("✓ index ready:"), appCfg.Index.Name, appCfg.Index.Dimension)
			return nil
		},
	}
}
