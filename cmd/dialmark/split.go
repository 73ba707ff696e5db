package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/split"
)

func splitCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "split",
		Usage:     "Split an annotated corpus along reference split files",
		ArgsUsage: "MERGED NAME=PATH...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Required: true,
				Usage:    "Output `DIR`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("split: expected MERGED and at least one NAME=PATH")
			}

			var refs []split.Ref
			for _, arg := range c.Args().Slice()[1:] {
				name, path, ok := strings.Cut(arg, "=")
				if !ok || name == "" || path == "" {
					return fmt.Errorf("split: %q is not NAME=PATH", arg)
				}
				ref, err := split.ReadRef(name, path)
				if err != nil {
					return err
				}
				refs = append(refs, ref)
			}

			merged, err := corpus.ReadFile(c.Args().First())
			if err != nil {
				return err
			}

			outs, err := split.Split(merged, refs)
			if err != nil {
				return err
			}
			if err := split.WriteFiles(c.String("out"), outs); err != nil {
				return err
			}

			for _, o := range outs {
				fmt.Fprintf(e.ui.Out, "%-8s %6d sentences\n", o.Name, o.Sentences)
			}
			return nil
		},
	}
}
