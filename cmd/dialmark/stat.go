package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/render"
	"github.com/revelaction/dialmark/stat"
)

func statCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show corpus statistics",
		ArgsUsage: "CORPUS...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: " + strings.Join(render.SupportedFormats(), ", "),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("stat: expected at least one CORPUS")
			}

			hdl := stat.NewHandler()
			for _, path := range c.Args().Slice() {
				cs, err := corpus.ReadFile(path)
				if err != nil {
					return err
				}
				hdl.Aggregate(cs)
			}

			r, err := render.New(c.String("format"), e.ui.Out, e.color(c))
			if err != nil {
				return err
			}
			return r.Stats(hdl.Get())
		},
	}
}
