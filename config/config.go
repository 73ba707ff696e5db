// Package config loads the dialmark configuration from defaults, a TOML
// file and DIALMARK_ environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/revelaction/dialmark/backchannel"
	"github.com/revelaction/dialmark/coconstruct"
	"github.com/revelaction/dialmark/decision"
	"github.com/revelaction/dialmark/diffcheck"
	dmfile "github.com/revelaction/dialmark/file"
	"github.com/revelaction/dialmark/lexicon"
)

const EnvPrefix = "DIALMARK_"

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"./dialmark.toml", "$HOME/.dialmark.toml"}

// Config represents the application configuration
type Config struct {
	Lexicon struct {
		File   string   `koanf:"file"`
		Extra  []string `koanf:"extra"`
		NoSeed bool     `koanf:"no_seed"`
	} `koanf:"lexicon"`

	Backchannel struct {
		Window              int  `koanf:"window"`
		EndK                int  `koanf:"end_k"`
		RequireAllInLexicon bool `koanf:"require_all_in_lexicon"`
		RequireContinuation bool `koanf:"require_continuation"`
		ExcludeGreetings    bool `koanf:"exclude_greetings"`
	} `koanf:"backchannel"`

	Coconstruction struct {
		Mode     string `koanf:"mode"`
		ShortMax int    `koanf:"short_max"`
		Sort     string `koanf:"sort"`
	} `koanf:"coconstruction"`

	Decisions struct {
		KeepColumn   string `koanf:"keep_column"`
		FilterColumn string `koanf:"filter_column"`
		Delimiter    string `koanf:"delimiter"`
	} `koanf:"decisions"`

	Diffcheck struct {
		SanctionedKeys []string `koanf:"sanctioned_keys"`
		MaxSamples     int      `koanf:"max_samples"`
	} `koanf:"diffcheck"`

	Workers int `koanf:"workers"`

	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`

	// Source is the file the configuration was read from, "" for none.
	Source string `koanf:"-"`

	k *koanf.Koanf
}

func defaults() map[string]interface{} {
	bc := backchannel.DefaultOptions()
	dc := decision.DefaultOptions()
	df := diffcheck.DefaultOptions()

	return map[string]interface{}{
		"lexicon.file":    "",
		"lexicon.extra":   []string{},
		"lexicon.no_seed": false,

		"backchannel.window":                 bc.Window,
		"backchannel.end_k":                  bc.EndK,
		"backchannel.require_all_in_lexicon": bc.RequireAllInLexicon,
		"backchannel.require_continuation":   bc.RequireContinuation,
		"backchannel.exclude_greetings":      bc.ExcludeGreetings,

		"coconstruction.mode":      coconstruct.FirstPass.String(),
		"coconstruction.short_max": coconstruct.DefaultShortMax,
		"coconstruction.sort":      coconstruct.ByScore.String(),

		"decisions.keep_column":   dc.KeepColumn,
		"decisions.filter_column": dc.FilterColumn,
		"decisions.delimiter":     "",

		"diffcheck.sanctioned_keys": df.SanctionedKeys,
		"diffcheck.max_samples":     df.MaxSamples,

		"workers": 1,

		"log.level":  "info",
		"log.format": "console",
	}
}

// LoadConfig loads the configuration from a file. With an empty path the
// DefaultPaths are tried and a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	source := ""
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		source = configPath
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			source = path
			break
		}
	}

	// DIALMARK_BACKCHANNEL_END_K -> backchannel.end_k
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.Source = source
	config.k = k

	return &config, nil
}

// Marshal returns the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	if c.k == nil {
		return nil, errors.New("configuration was not loaded")
	}
	return c.k.Marshal(toml.Parser())
}

const sampleConfig = `# dialmark configuration

workers = 1

[log]
# trace, debug, info, warn, error
level = "info"
# console or json
format = "console"

[lexicon]
# file with "word|category" or "word" lines
file = ""
extra = []
no_seed = false

[backchannel]
window = 5
end_k = 2
require_all_in_lexicon = false
require_continuation = false
exclude_greetings = true

[coconstruction]
# first-pass or focused
mode = "first-pass"
short_max = 3
# score or length
sort = "score"

[decisions]
keep_column = "keep?"
filter_column = "is_coconstruction"
# empty detects ';' or ','
delimiter = ""

[diffcheck]
sanctioned_keys = ["Backchannel", "Coconstruct"]
max_samples = 8
`

// InitConfig writes a sample configuration file. An existing file is never
// overwritten.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	return dmfile.WriteBytes(configPath, []byte(sampleConfig))
}

// Validate checks ranges and enumerations and returns every problem found.
func Validate(config *Config) error {
	var errs []error
	add := func(format string, a ...any) {
		errs = append(errs, fmt.Errorf(format, a...))
	}

	if config.Backchannel.Window < 1 {
		add("backchannel.window must be at least 1, got %d", config.Backchannel.Window)
	}
	if config.Backchannel.EndK < 0 {
		add("backchannel.end_k must not be negative, got %d", config.Backchannel.EndK)
	}

	if _, err := coconstruct.ParseMode(config.Coconstruction.Mode); err != nil {
		errs = append(errs, fmt.Errorf("coconstruction.mode: %w", err))
	}
	if _, err := coconstruct.ParseOrder(config.Coconstruction.Sort); err != nil {
		errs = append(errs, fmt.Errorf("coconstruction.sort: %w", err))
	}
	if config.Coconstruction.ShortMax < 1 {
		add("coconstruction.short_max must be at least 1, got %d", config.Coconstruction.ShortMax)
	}

	if strings.TrimSpace(config.Decisions.KeepColumn) == "" {
		add("decisions.keep_column is required")
	}
	if d := config.Decisions.Delimiter; d != "" && utf8.RuneCountInString(d) != 1 {
		add("decisions.delimiter must be a single character, got %q", d)
	}

	if len(config.Diffcheck.SanctionedKeys) == 0 {
		add("diffcheck.sanctioned_keys must not be empty")
	}
	for _, k := range config.Diffcheck.SanctionedKeys {
		if k == "" || strings.ContainsAny(k, "|= \t") {
			add("diffcheck.sanctioned_keys: invalid MISC key %q", k)
		}
	}
	if config.Diffcheck.MaxSamples < 1 {
		add("diffcheck.max_samples must be at least 1, got %d", config.Diffcheck.MaxSamples)
	}

	if config.Workers < 1 {
		add("workers must be at least 1, got %d", config.Workers)
	}

	if _, err := zerolog.ParseLevel(config.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch config.Log.Format {
	case "console", "json":
	default:
		add("log.format must be console or json, got %q", config.Log.Format)
	}

	return errors.Join(errs...)
}

// LexiconOptions returns the lexicon builder options.
func (c *Config) LexiconOptions() lexicon.Options {
	return lexicon.Options{NoSeed: c.Lexicon.NoSeed, File: c.Lexicon.File, Extra: c.Lexicon.Extra}
}

func (c *Config) BackchannelOptions() backchannel.Options {
	opts := backchannel.DefaultOptions()
	opts.Window = c.Backchannel.Window
	opts.EndK = c.Backchannel.EndK
	opts.RequireAllInLexicon = c.Backchannel.RequireAllInLexicon
	opts.RequireContinuation = c.Backchannel.RequireContinuation
	opts.ExcludeGreetings = c.Backchannel.ExcludeGreetings
	opts.Workers = c.Workers
	return opts
}

func (c *Config) CoconstructionOptions() (coconstruct.Options, error) {
	opts := coconstruct.DefaultOptions()

	mode, err := coconstruct.ParseMode(c.Coconstruction.Mode)
	if err != nil {
		return opts, err
	}
	order, err := coconstruct.ParseOrder(c.Coconstruction.Sort)
	if err != nil {
		return opts, err
	}

	opts.Mode = mode
	opts.Order = order
	opts.ShortMax = c.Coconstruction.ShortMax
	opts.Workers = c.Workers
	return opts, nil
}

func (c *Config) DecisionOptions() decision.Options {
	return decision.Options{KeepColumn: c.Decisions.KeepColumn, FilterColumn: c.Decisions.FilterColumn}
}

// Delimiter returns the CSV delimiter, 0 to detect it.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Decisions.Delimiter)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

func (c *Config) DiffcheckOptions() diffcheck.Options {
	return diffcheck.Options{SanctionedKeys: c.Diffcheck.SanctionedKeys, MaxSamples: c.Diffcheck.MaxSamples}
}
