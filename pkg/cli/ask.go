package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docqa/pkg/cli/config"
	"github.com/secmon-lab/docqa/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdAsk() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var llmCfg config.LLM

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:      "ask",
		Aliases:   []string{"a"},
		Usage:     "Answer a question from the indexed documents",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return goerr.New("question is required")
			}

			if err := appCfg.Configure(); err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			p, err := buildPipeline(ctx, pipelineConfig{
				app:     &appCfg,
				repo:    &repoCfg,
				llm:     &llmCfg,
				answers: true,
			})
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Answer.Answer(ctx, question)
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			printAnswer(os.Stdout, result, appCfg.Query.MaxLinks)
			return nil
		},
	}
}

func printAnswer(w io.Writer, result *model.AnswerResult, maxLinks int) {
	fmt.Fprintln(w, result.Answer)

	n := 0
	for _, l := range result.Links {
		if n == maxLinks {
			break
		}
		if l.Link == "" {
			continue
		}
		if n == 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, color.New(color.Bold).Sprint("Sources:"))
		}
		title := l.Title
		if title == "" {
			title = l.Link
		}
		fmt.Fprintf(w, "  - %s %s\n", title, color.BlueString("<%s>", l.Link))
		n++
	}
}
