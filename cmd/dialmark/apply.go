package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/decision"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/merge"
	"github.com/revelaction/dialmark/render"
	"github.com/revelaction/dialmark/storage"
)

func applyCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Merge reviewed decisions into a corpus",
		Subcommands: []*cli.Command{
			applyKindCommand(e, candidate.Backchannel, "backchannels"),
			applyKindCommand(e, candidate.Coconstruction, "coconstructions"),
		},
	}
}

func applyKindCommand(e *env, kind candidate.Kind, name string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("Annotate accepted %s in the MISC column", name),
		ArgsUsage: "CORPUS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "decisions",
				Aliases:  []string{"d"},
				Required: true,
				Usage:    "Reviewed table `FILE` (.csv, or .db/.sqlite for SQLite)",
			},
			&cli.StringFlag{
				Name:  "table",
				Value: kind.TableName(),
				Usage: "Table name inside a SQLite decisions file",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the annotated corpus to `FILE`",
			},
			&cli.StringFlag{
				Name:  "delimiter",
				Usage: "CSV delimiter, detected when empty",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Validate the decisions without writing",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Run diffcheck on the result and fail on unexpected changes",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Format of the --check report: " + strings.Join(render.SupportedFormats(), ", "),
			},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("dry-run") && c.String("out") == "" {
				return fmt.Errorf("apply %s: --out is required unless --dry-run", name)
			}

			cfg, cs, err := e.parseCorpus(c)
			if err != nil {
				return err
			}

			delim := cfg.Delimiter()
			if c.IsSet("delimiter") {
				r, size := utf8.DecodeRuneInString(c.String("delimiter"))
				if r == utf8.RuneError || size != len(c.String("delimiter")) {
					return fmt.Errorf("--delimiter must be a single character, got %q", c.String("delimiter"))
				}
				delim = r
			}

			repo, err := NewTableRepository(e.pool, c.String("decisions"), delim)
			if err != nil {
				return err
			}
			rows, err := readDecisions(repo, c.String("table"), kind, cfg.DecisionOptions())
			if err != nil {
				return fmt.Errorf("%s: %w", c.String("decisions"), err)
			}

			m := merge.New()
			if c.Bool("dry-run") {
				if err := m.Validate(cs, rows); err != nil {
					return err
				}
				_, err := fmt.Fprintf(e.ui.Out, "%d %s decisions valid\n", len(rows), kind)
				return err
			}

			incr, stop := e.progressBar(c, len(rows))
			m.Progress = incr
			merged, st, err := m.Apply(cs, rows)
			stop()
			if err != nil {
				return err
			}

			out := c.String("out")
			if err := merged.WriteFile(out); err != nil {
				return err
			}

			fmt.Fprintf(e.ui.Out, "%s: %d rows, %d patched, %d unchanged\n", out, st.Rows, st.Patched, st.Unchanged)

			if !c.Bool("check") {
				return nil
			}

			src, err := os.ReadFile(c.Args().First())
			if err != nil {
				return err
			}
			sec := diffcheck.Compare("merged", src, merged.Bytes(), cfg.DiffcheckOptions())
			sec.Src, sec.Out = c.Args().First(), out

			return e.report(c, diffcheck.Report{Sections: []diffcheck.Section{sec}, Pass: sec.Pass})
		},
	}
}

func readDecisions(repo storage.TableReader, table string, kind candidate.Kind, opts decision.Options) ([]decision.Row, error) {
	t, err := repo.ReadTable(table)
	if err != nil {
		return nil, err
	}

	if kind == candidate.Coconstruction {
		return decision.ParseCoconstructions(t, opts)
	}
	return decision.ParseBackchannels(t, opts)
}

// report renders a diffcheck report and turns a FAIL into an error.
func (e *env) report(c *cli.Context, rep diffcheck.Report) error {
	rep.RunID = e.runID

	r, err := render.New(c.String("format"), e.ui.Out, e.color(c))
	if err != nil {
		return err
	}
	if err := r.Report(rep); err != nil {
		return err
	}

	if !rep.Pass {
		return errFailed
	}
	return nil
}
