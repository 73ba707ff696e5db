package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/revelaction/dialmark/config"
)

func configCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "dialmark.toml",
					},
				},
				Action: func(c *cli.Context) error {
					outputPath := c.String("output")
					if err := config.InitConfig(outputPath); err != nil {
						return fmt.Errorf("failed to initialize config: %w", err)
					}

					fmt.Fprintf(e.ui.Out, "Created configuration file at %s\n", outputPath)
					return nil
				},
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(c *cli.Context) error {
					cfg, err := e.config(c)
					if err != nil {
						return err
					}

					data, err := cfg.Marshal()
					if err != nil {
						return err
					}
					if cfg.Source != "" {
						fmt.Fprintf(e.ui.Out, "# %s\n", cfg.Source)
					}
					_, err = e.ui.Out.Write(data)
					return err
				},
			},
			{
				Name:  "validate",
				Usage: "Validate the configuration file",
				Action: func(c *cli.Context) error {
					cfg, err := e.config(c)
					if err != nil {
						return err
					}

					source := cfg.Source
					if source == "" {
						source = "defaults"
					}
					fmt.Fprintf(e.ui.Out, "Configuration is valid (%s)\n", source)
					return nil
				},
			},
		},
	}
}
