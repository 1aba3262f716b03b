package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	"github.com/secmon-lab/docqa/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var runID string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var llmCfg config.LLM
	var sourceCfg config.Source

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "run-id",
			Usage:       "Identifier of this run (generated when empty)",
			Destination: &runID,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, sourceCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Ensure the index and ingest every configured document source",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			p, err := buildPipeline(ctx, pipelineConfig{
				app:    &appCfg,
				repo:   &repoCfg,
				llm:    &llmCfg,
				source: &sourceCfg,
			})
			if err != nil {
				return err
			}
			defer p.Close()

			if len(p.Setup.Sources()) == 0 {
				return goerr.Wrap(config.ErrNoSource, "specify --source-dir, --gcs-bucket or --notion-database-id")
			}

			result, err := p.Setup.Setup(ctx, runID)
			printSetupResult(os.Stdout, appCfg.Index.Name, result, err)
			return err
		},
	}
}

func printSetupResult(w io.Writer, indexName string, result *usecase.SetupResult, err error) {
	label := color.New(color.FgCyan).SprintFunc()
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", color.RedString("✗ ingest failed:"), err.Error())
	} else {
		fmt.Fprintf(w, "%s\n", color.GreenString("✓ ingest completed"))
	}
	if result == nil {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", label("run id:   "), result.RunID)
	fmt.Fprintf(w, "  %s %s\n", label("index:    "), indexName)
	fmt.Fprintf(w, "  %s %d\n", label("documents:"), result.Documents)
	fmt.Fprintf(w, "  %s %d\n", label("chunks:   "), result.Chunks)
	fmt.Fprintf(w, "  %s %d\n", label("vectors:  "), result.Vectors)
	fmt.Fprintf(w, "  %s %d\n", label("batches:  "), result.Batches)
}
