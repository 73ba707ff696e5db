package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/config"
)

// Set at build time with -ldflags "-X main.BuildTag=... -X main.BuildCommit=..."
var (
	BuildTag    = "dev"
	BuildCommit = "none"
)

// errFailed is returned by commands whose check did not pass. The report
// has already been printed.
var errFailed = errors.New("check failed")

// UI contains the output streams for the application.
// Used for injecting buffers during testing.
type UI struct {
	Out io.Writer
	Err io.Writer
}

func main() {
	ui := UI{Out: os.Stdout, Err: os.Stderr}

	if err := run(os.Args, ui); err != nil {
		fprintErr(ui.Err, err)
		os.Exit(1)
	}
}

func fprintErr(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "dialmark: %v\n", err)
}

func run(args []string, ui UI) error {
	return newApp(ui).Run(args)
}

// env is the state shared by the commands of one run.
type env struct {
	ui    UI
	runID string
	cfg   *config.Config
	pool  *Pool
}

func newApp(ui UI) *cli.App {
	e := &env{ui: ui, pool: &Pool{}}

	return &cli.App{
		Name:                 "dialmark",
		Usage:                "annotate backchannels and co-constructions in spoken CoNLL-U corpora",
		Version:              BuildTag,
		Writer:               ui.Out,
		ErrWriter:            ui.Err,
		EnableBashCompletion: true,
		// --pair values hold a comma
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				EnvVars: []string{"DIALMARK_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show progress bars",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			e.runID = uuid.NewString()
			return e.setupLogger(c.String("log-level"), c.String("log-format"))
		},
		After: func(c *cli.Context) error {
			return e.pool.Close()
		},
		Commands: []*cli.Command{
			backchannelsCommand(e),
			coconstructionsCommand(e),
			applyCommand(e),
			splitCommand(e),
			diffcheckCommand(e),
			statCommand(e),
			sentenceCommand(e),
			inspectCommand(e),
			configCommand(e),
			bashCommand(e),
			versionCommand(e),
		},
	}
}

// config loads and validates the configuration once. Log flags given on
// the command line win over the configuration.
func (e *env) config(c *cli.Context) (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		format = c.String("log-format")
	}
	if err := e.setupLogger(level, format); err != nil {
		return nil, err
	}

	log.Debug().Str("source", cfg.Source).Msg("config loaded")
	e.cfg = cfg
	return cfg, nil
}

// setupLogger points the global logger at the error stream. Every line
// carries the run id.
func (e *env) setupLogger(level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var w io.Writer
	switch format {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: e.ui.Err, TimeFormat: time.TimeOnly, NoColor: true}
	case "json":
		w = e.ui.Err
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Str("run", e.runID).Logger()
	return nil
}

// color reports whether text output is colored.
func (e *env) color(c *cli.Context) bool {
	if c.Bool("no-color") {
		return false
	}
	f, ok := e.ui.Out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
