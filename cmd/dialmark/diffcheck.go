package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/diffcheck"
	dmfile "github.com/revelaction/dialmark/file"
	"github.com/revelaction/dialmark/render"
)

func diffcheckCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "diffcheck",
		Usage:     "Check that annotated files only add sanctioned MISC keys",
		ArgsUsage: "[SRC OUT]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "pair",
				Usage: "Compare `NAME=SRC,OUT`, repeatable",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Report format: " + strings.Join(render.SupportedFormats(), ", "),
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Also write the text report to `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			pairs, err := diffPairs(c)
			if err != nil {
				return err
			}

			cfg, err := e.config(c)
			if err != nil {
				return err
			}

			rep, err := diffcheck.CompareFiles(pairs, cfg.DiffcheckOptions())
			if err != nil {
				return err
			}
			rep.RunID = e.runID

			if path := c.String("report"); path != "" {
				var buf bytes.Buffer
				r, _ := render.New("text", &buf, false)
				if err := r.Report(rep); err != nil {
					return err
				}
				if err := dmfile.WriteBytes(path, buf.Bytes()); err != nil {
					return err
				}
			}

			return e.report(c, rep)
		},
	}
}

func diffPairs(c *cli.Context) ([]diffcheck.Pair, error) {
	var pairs []diffcheck.Pair

	switch c.NArg() {
	case 0:
	case 2:
		pairs = append(pairs, diffcheck.Pair{Name: "merged", Src: c.Args().Get(0), Out: c.Args().Get(1)})
	default:
		return nil, fmt.Errorf("diffcheck: expected SRC and OUT, got %d arguments", c.NArg())
	}

	for _, p := range c.StringSlice("pair") {
		name, files, ok := strings.Cut(p, "=")
		src, out, ok2 := strings.Cut(files, ",")
		if !ok || !ok2 || name == "" || src == "" || out == "" {
			return nil, fmt.Errorf("diffcheck: --pair %q is not NAME=SRC,OUT", p)
		}
		pairs = append(pairs, diffcheck.Pair{Name: name, Src: src, Out: out})
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("diffcheck: nothing to compare")
	}
	return pairs, nil
}
