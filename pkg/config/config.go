// Package config loads pagestack settings from a TOML file.
//
// The file holds defaults for every run; command-line flags and form fields
// override them. A complete file:
//
//	[grid]
//	rows = 2
//	cols = 2
//	anchor = "top-left"
//
//	[label]
//	template = "Page {n}"
//	font = "helvetica"
//	size = 12
//	color = "#000000"
//
//	[output]
//	formats = ["pdf"]
//	optimize = true
//	scale = 0.5
//
//	[cache]
//	url = "redis://localhost:6379/0"
//
//	[convert]
//	soffice = "/usr/bin/soffice"
//	timeout = "2m"
//
//	[server]
//	addr = ":8080"
//	max_upload_mb = 64
package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/layout"
	"github.com/matzehuels/pagestack/pkg/pipeline"
	"github.com/matzehuels/pagestack/pkg/render"
	"github.com/matzehuels/pagestack/pkg/source"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config is the parsed config file. Zero values mean "not set".
type Config struct {
	Grid    Grid    `toml:"grid"`
	Label   Label   `toml:"label"`
	Output  Output  `toml:"output"`
	Cache   Cache   `toml:"cache"`
	Convert Convert `toml:"convert"`
	Server  Server  `toml:"server"`
}

// Grid holds layout defaults.
type Grid struct {
	Rows   int    `toml:"rows,omitempty"`
	Cols   int    `toml:"cols,omitempty"`
	Anchor string `toml:"anchor,omitempty"`
}

// Label holds page-number label defaults.
type Label struct {
	Template string  `toml:"template,omitempty"`
	Font     string  `toml:"font,omitempty"`
	Size     float64 `toml:"size,omitempty"`
	Color    string  `toml:"color,omitempty"`
}

// Output holds render defaults.
type Output struct {
	Formats  []string `toml:"formats,omitempty"`
	Optimize bool     `toml:"optimize,omitempty"`
	Scale    float64  `toml:"scale,omitempty"`
	Title    string   `toml:"title,omitempty"`
}

// Cache selects the cache backend, see cache.Open.
type Cache struct {
	URL      string `toml:"url,omitempty"`
	Disabled bool   `toml:"disabled,omitempty"`
}

// Convert configures the LibreOffice converter for legacy Office files.
type Convert struct {
	Soffice  string   `toml:"soffice,omitempty"`
	Timeout  Duration `toml:"timeout,omitempty"`
	Attempts int      `toml:"attempts,omitempty"`
}

// Server configures "pagestack serve".
type Server struct {
	Addr        string `toml:"addr,omitempty"`
	MaxUploadMB int    `toml:"max_upload_mb,omitempty"`
	CacheURL    string `toml:"cache_url,omitempty"`
}

// Duration is a time.Duration written as a string such as "90s" or "2m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid duration %q", b)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/pagestack/config.toml, falling back
// to the platform config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "pagestack", FileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pagestack", FileName), nil
}

// Load reads the config at path. With an empty path the default location is
// tried and a missing file yields an empty Config; an explicit path must
// exist.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, nil
		}
		path = p
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		if explicit {
			return Config{}, errors.New(errors.ErrCodeFileNotFound, "config file %s does not exist", path)
		}
		return Config{}, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "%s: unknown setting %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return cfg, nil
}

// Parse decodes config from r.
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidInput, "unknown setting %q", undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks every set value.
func (c Config) Validate() error {
	if c.Grid.Rows < 0 || c.Grid.Cols < 0 {
		return errors.New(errors.ErrCodeInvalidGeometry, "grid rows and cols must be positive")
	}
	if c.Grid.Anchor != "" {
		if _, err := layout.ParseAnchor(c.Grid.Anchor); err != nil {
			return err
		}
	}
	if c.Label.Template != "" {
		if err := errors.ValidateLabelTemplate(c.Label.Template); err != nil {
			return err
		}
	}
	if c.Label.Color != "" {
		if _, err := render.ParseColor(c.Label.Color); err != nil {
			return err
		}
	}
	if c.Label.Font != "" || c.Label.Size != 0 {
		style := render.DefaultLabelStyle()
		if c.Label.Font != "" {
			style.Font = c.Label.Font
		}
		if c.Label.Size != 0 {
			style.Size = c.Label.Size
		}
		if _, err := style.Validate(); err != nil {
			return err
		}
	}
	if _, err := render.ParseFormats(c.Output.Formats); err != nil {
		return err
	}
	if c.Output.Scale < 0 || c.Output.Scale > 4 {
		return errors.New(errors.ErrCodeInvalidInput, "output scale must be in (0, 4]")
	}
	if c.Convert.Timeout.Duration < 0 || c.Convert.Attempts < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "convert timeout and attempts must not be negative")
	}
	if c.Server.MaxUploadMB < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server max_upload_mb must not be negative")
	}
	return nil
}

// Apply fills every unset field of opts from the config.
func (c Config) Apply(opts *pipeline.Options) {
	setInt(&opts.Rows, c.Grid.Rows)
	setInt(&opts.Cols, c.Grid.Cols)
	setString(&opts.Anchor, c.Grid.Anchor)
	setString(&opts.Label, c.Label.Template)
	setString(&opts.Font, c.Label.Font)
	setFloat(&opts.FontSize, c.Label.Size)
	setString(&opts.Color, c.Label.Color)
	setFloat(&opts.Scale, c.Output.Scale)
	setString(&opts.Title, c.Output.Title)
	if len(opts.Formats) == 0 {
		opts.Formats = c.Output.Formats
	}
	opts.Optimize = opts.Optimize || c.Output.Optimize
	if opts.Converter == nil && c.Convert != (Convert{}) {
		opts.Converter = c.Converter()
	}
}

// Converter returns the LibreOffice converter described by the [convert]
// table; unset fields keep the converter's defaults.
func (c Config) Converter() *source.LibreOffice {
	return &source.LibreOffice{
		Binary:   c.Convert.Soffice,
		Timeout:  c.Convert.Timeout.Duration,
		Attempts: c.Convert.Attempts,
	}
}

// CacheSpec returns the cache.Open argument for the CLI.
func (c Config) CacheSpec() string {
	if c.Cache.Disabled {
		return "none"
	}
	return c.Cache.URL
}

func setInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if *dst == 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
