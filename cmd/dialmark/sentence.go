package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/render"
)

func sentenceCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "sentence",
		Usage:     "Show one utterance and its tokens",
		ArgsUsage: "CORPUS SENT_ID",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("sentence: expected CORPUS and SENT_ID")
			}

			cs, err := corpus.ReadFile(c.Args().Get(0))
			if err != nil {
				return err
			}

			id := c.Args().Get(1)
			s, ok := cs.Sentence(id)
			if !ok {
				return fmt.Errorf("sentence %q not found", id)
			}

			r := render.NewRenderer()
			r.Out = e.ui.Out
			r.HasColor = e.color(c)
			r.Sentence(s, fmt.Sprintf("✍  %s ", s.ID))
			fmt.Fprintln(e.ui.Out)
			r.Tokens(s)

			return nil
		},
	}
}
