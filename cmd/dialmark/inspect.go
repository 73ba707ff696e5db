package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/backchannel"
	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/inspect"
	"github.com/revelaction/dialmark/render"
)

func inspectCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Browse a corpus interactively",
		ArgsUsage: "CORPUS",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "backchannels",
				Usage: "Show backchannel candidates next to the utterances",
			},
			&cli.StringFlag{
				Name:  "lexicon",
				Usage: "Backchannel lexicon `FILE`, added to the built-in words",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, cs, err := e.parseCorpus(c)
			if err != nil {
				return err
			}

			var found []candidate.Candidate
			if c.Bool("backchannels") {
				lex, err := e.lexicon(c, cfg)
				if err != nil {
					return err
				}
				found, err = backchannel.New(lex, cfg.BackchannelOptions()).Extract(c.Context, cs)
				if err != nil {
					return err
				}
			}

			r := render.NewRenderer()
			r.Out = e.ui.Out
			r.HasColor = e.color(c)

			fmt.Fprintf(e.ui.Out, "%d documents, %d utterances, %d candidates\n", len(cs.Documents), cs.Len(), len(found))
			return inspect.NewHandler(cs, found, r).Run()
		},
	}
}
