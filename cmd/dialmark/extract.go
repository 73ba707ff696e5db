package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/backchannel"
	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/coconstruct"
	"github.com/revelaction/dialmark/config"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/lexicon"
	"github.com/revelaction/dialmark/render"
)

// flags shared by the extraction commands
func extractFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Write the review table to `FILE` (.csv, or .db/.sqlite for SQLite)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Value:   "text",
			Usage:   "Output format without --out: " + strings.Join(render.SupportedFormats(), ", "),
		},
		&cli.StringFlag{
			Name:  "min-confidence",
			Value: "LOW",
			Usage: "Drop candidates below HIGH, MEDIUM or LOW",
		},
		&cli.StringFlag{
			Name:  "lexicon",
			Usage: "Backchannel lexicon `FILE`, added to the built-in words",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of documents processed in parallel",
		},
	}
}

func backchannelsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "backchannels",
		Usage:     "Find backchannel candidates",
		ArgsUsage: "CORPUS",
		Flags: append(extractFlags(),
			&cli.IntFlag{Name: "window", Usage: "Utterances after A in which A's speaker must continue"},
			&cli.IntFlag{Name: "end-k", Usage: "B is near the end when at most `K` utterances follow"},
			&cli.BoolFlag{Name: "require-all-in-lexicon", Usage: "Drop B when a word is not in the lexicon"},
			&cli.BoolFlag{Name: "require-continuation", Usage: "Drop pairs without continuation evidence"},
			&cli.BoolFlag{Name: "include-greetings", Usage: "Keep B utterances containing greetings"},
		),
		Action: func(c *cli.Context) error {
			cfg, cs, err := e.parseCorpus(c)
			if err != nil {
				return err
			}

			lex, err := e.lexicon(c, cfg)
			if err != nil {
				return err
			}

			opts := cfg.BackchannelOptions()
			if c.IsSet("window") {
				opts.Window = c.Int("window")
			}
			if c.IsSet("end-k") {
				opts.EndK = c.Int("end-k")
			}
			if c.Bool("require-all-in-lexicon") {
				opts.RequireAllInLexicon = true
			}
			if c.Bool("require-continuation") {
				opts.RequireContinuation = true
			}
			if c.Bool("include-greetings") {
				opts.ExcludeGreetings = false
			}
			if c.IsSet("workers") {
				opts.Workers = c.Int("workers")
			}

			incr, stop := e.progressBar(c, len(cs.Documents))
			opts.Progress = incr
			found, err := backchannel.New(lex, opts).Extract(c.Context, cs)
			stop()
			if err != nil {
				return err
			}

			return e.emit(c, candidate.Backchannel, found)
		},
	}
}

func coconstructionsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "coconstructions",
		Usage:     "Find co-construction candidates",
		ArgsUsage: "CORPUS",
		Flags: append(extractFlags(),
			&cli.StringFlag{Name: "mode", Usage: "first-pass or focused"},
			&cli.IntFlag{Name: "short-max", Usage: "B with at most `N` tokens is short"},
			&cli.StringFlag{Name: "sort", Usage: "score or length"},
			&cli.BoolFlag{Name: "ignore-annotated", Usage: "Do not skip utterances already annotated as backchannels"},
		),
		Action: func(c *cli.Context) error {
			cfg, cs, err := e.parseCorpus(c)
			if err != nil {
				return err
			}

			lex, err := e.lexicon(c, cfg)
			if err != nil {
				return err
			}

			opts, err := cfg.CoconstructionOptions()
			if err != nil {
				return err
			}
			if c.IsSet("mode") {
				if opts.Mode, err = coconstruct.ParseMode(c.String("mode")); err != nil {
					return err
				}
			}
			if c.IsSet("sort") {
				if opts.Order, err = coconstruct.ParseOrder(c.String("sort")); err != nil {
					return err
				}
			}
			if c.IsSet("short-max") {
				opts.ShortMax = c.Int("short-max")
			}
			if c.IsSet("workers") {
				opts.Workers = c.Int("workers")
			}
			if !c.Bool("ignore-annotated") {
				opts.Annotated = coconstruct.AnnotatedBackchannels(cs)
			}

			incr, stop := e.progressBar(c, len(cs.Documents))
			opts.Progress = incr
			found, err := coconstruct.New(lex, opts).Extract(c.Context, cs)
			stop()
			if err != nil {
				return err
			}

			return e.emit(c, candidate.Coconstruction, found)
		},
	}
}

// parseCorpus loads the configuration and the CORPUS argument.
func (e *env) parseCorpus(c *cli.Context) (*config.Config, *corpus.Corpus, error) {
	if c.NArg() != 1 {
		return nil, nil, fmt.Errorf("%s: expected one CORPUS argument, got %d", c.Command.Name, c.NArg())
	}

	cfg, err := e.config(c)
	if err != nil {
		return nil, nil, err
	}

	cs, err := corpus.ReadFile(c.Args().First())
	if err != nil {
		return nil, nil, err
	}

	log.Debug().
		Str("path", c.Args().First()).
		Int("documents", len(cs.Documents)).
		Int("sentences", cs.Len()).
		Msg("corpus parsed")

	return cfg, cs, nil
}

func (e *env) lexicon(c *cli.Context, cfg *config.Config) (*lexicon.Lexicon, error) {
	opts := cfg.LexiconOptions()
	if c.IsSet("lexicon") {
		opts.File = c.String("lexicon")
	}
	return lexicon.New(opts)
}

// emit filters candidates by confidence, then writes them to --out or
// renders them on the output stream.
func (e *env) emit(c *cli.Context, kind candidate.Kind, cs []candidate.Candidate) error {
	floor, err := candidate.ParseConfidence(c.String("min-confidence"))
	if err != nil {
		return err
	}

	kept := cs[:0:0]
	for _, cd := range cs {
		if cd.Confidence >= floor {
			kept = append(kept, cd)
		}
	}

	out := c.String("out")
	if out == "" {
		r, err := render.New(c.String("format"), e.ui.Out, e.color(c))
		if err != nil {
			return err
		}
		return r.Candidates(kept)
	}

	cfg, err := e.config(c)
	if err != nil {
		return err
	}
	repo, err := NewTableRepository(e.pool, out, cfg.Delimiter())
	if err != nil {
		return err
	}
	if err := repo.WriteTable(kind.TableName(), candidate.Table(kind, kept)); err != nil {
		return err
	}

	log.Info().Str("path", out).Str("kind", kind.String()).Int("candidates", len(kept)).Msg("review table written")
	_, err = fmt.Fprintf(e.ui.Out, "%d %s candidates written to %s\n", len(kept), kind, out)
	return err
}
