// Package config loads srcweb settings from srcweb.yaml, SRCWEB_*
// environment variables and flags, and turns them into render options.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/skelly-dev/srcweb/internal/markup"
	"github.com/skelly-dev/srcweb/internal/render"
)

const (
	AppName  = "srcweb"
	FileName = "srcweb.yaml"
)

// CVSWeb configures the link to a CVS web front end.
type CVSWeb struct {
	URL       string `mapstructure:"url" yaml:"url"`
	CVSRoot   string `mapstructure:"cvsroot" yaml:"cvsroot"`
	UseModule bool   `mapstructure:"use_module" yaml:"use_module"`
}

// Config is everything srcweb.yaml can set.
type Config struct {
	DB     string `mapstructure:"db" yaml:"db"`
	Output string `mapstructure:"output" yaml:"output"`
	Jobs   int    `mapstructure:"jobs" yaml:"jobs"`

	Header         string `mapstructure:"header" yaml:"header"`
	LineNumbers    bool   `mapstructure:"line_numbers" yaml:"line_numbers"`
	NCol           int    `mapstructure:"ncol" yaml:"ncol"`
	Tabs           int    `mapstructure:"tabs" yaml:"tabs"`
	Icons          bool   `mapstructure:"icons" yaml:"icons"`
	FixedGuide     bool   `mapstructure:"fixed_guide" yaml:"fixed_guide"`
	ShowPosition   bool   `mapstructure:"show_position" yaml:"show_position"`
	Warnings       bool   `mapstructure:"warnings" yaml:"warnings"`
	ColorizeWarned bool   `mapstructure:"colorize_warned" yaml:"colorize_warned"`
	Dynamic        bool   `mapstructure:"dynamic" yaml:"dynamic"`
	Action         string `mapstructure:"action" yaml:"action"`
	SiteKey        string `mapstructure:"site_key" yaml:"site_key"`

	// InsertHeader and InsertFooter name files whose contents are injected
	// into every page.
	InsertHeader string `mapstructure:"insert_header" yaml:"insert_header"`
	InsertFooter string `mapstructure:"insert_footer" yaml:"insert_footer"`

	CVSWeb CVSWeb `mapstructure:"cvsweb" yaml:"cvsweb"`

	// Suffix overrides vocabulary.suffix.
	Suffix     string            `mapstructure:"suffix" yaml:"suffix"`
	Vocabulary markup.Vocabulary `mapstructure:"vocabulary" yaml:"vocabulary"`
}

// Runtime holds settings that only come from the environment.
type Runtime struct {
	LogFile       string        `env:"SRCWEB_LOG_FILE"`
	NoColor       bool          `env:"NO_COLOR"`
	ConfigHome    string        `env:"SRCWEB_CONFIG_HOME"`
	XDGConfigHome string        `env:"XDG_CONFIG_HOME"`
	CacheTTL      time.Duration `env:"SRCWEB_CACHE_TTL"`
}

// LoadRuntime parses the environment-only settings.
func LoadRuntime() (Runtime, error) {
	rt, err := env.ParseAs[Runtime]()
	if err != nil {
		return Runtime{}, fmt.Errorf("error parsing environment: %w", err)
	}
	return rt, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	opts := render.DefaultOptions()
	return Config{
		DB:          ".srcweb/tags.db",
		Output:      "HTML",
		Jobs:        4,
		Header:      opts.Header.String(),
		LineNumbers: opts.LineNumbers,
		NCol:        opts.NumberWidth,
		Tabs:        opts.Tabs,
		Warnings:    opts.Warnings,
		Action:      opts.Action,
		Vocabulary:  markup.Default(),
	}
}

// SetDefaults registers every scalar default with v so that SRCWEB_*
// variables reach keys the config file does not mention.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("db", d.DB)
	v.SetDefault("output", d.Output)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("header", d.Header)
	v.SetDefault("line_numbers", d.LineNumbers)
	v.SetDefault("ncol", d.NCol)
	v.SetDefault("tabs", d.Tabs)
	v.SetDefault("icons", d.Icons)
	v.SetDefault("fixed_guide", d.FixedGuide)
	v.SetDefault("show_position", d.ShowPosition)
	v.SetDefault("warnings", d.Warnings)
	v.SetDefault("colorize_warned", d.ColorizeWarned)
	v.SetDefault("dynamic", d.Dynamic)
	v.SetDefault("action", d.Action)
	v.SetDefault("site_key", d.SiteKey)
	v.SetDefault("insert_header", "")
	v.SetDefault("insert_footer", "")
	v.SetDefault("cvsweb.url", "")
	v.SetDefault("cvsweb.cvsroot", "")
	v.SetDefault("cvsweb.use_module", false)
	v.SetDefault("suffix", "")
}

// SearchDirs lists the directories searched for srcweb.yaml after the
// working directory: $SRCWEB_CONFIG_HOME, $XDG_CONFIG_HOME/srcweb and the
// user config dirs.
func SearchDirs(rt Runtime) ([]string, error) {
	dirs, err := gap.NewScope(gap.User, AppName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	if rt.XDGConfigHome != "" {
		dirs = append([]string{filepath.Join(rt.XDGConfigHome, AppName)}, dirs...)
	}
	if rt.ConfigHome != "" {
		dirs = append([]string{rt.ConfigHome}, dirs...)
	}
	return dirs, nil
}

// DefaultFile is where `config init` writes when no path is given.
func DefaultFile() (string, error) {
	p, err := gap.NewScope(gap.User, AppName).ConfigPath(FileName)
	if err != nil {
		return "", fmt.Errorf("could not resolve config path: %w", err)
	}
	return p, nil
}

// Load reads the configuration into v. An explicit file must exist; without
// one a missing srcweb.yaml just leaves the defaults.
func Load(v *viper.Viper, file string, rt Runtime) (Config, error) {
	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		dirs, err := SearchDirs(rt)
		if err != nil {
			return Config{}, err
		}
		v.AddConfigPath(".")
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the renderer cannot use.
func (c Config) Validate() error {
	if _, err := render.ParseHeaderPolicy(c.Header); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.NCol < 1 {
		return fmt.Errorf("invalid config: ncol must be >= 1, got %d", c.NCol)
	}
	if c.Tabs < 1 {
		return fmt.Errorf("invalid config: tabs must be >= 1, got %d", c.Tabs)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("invalid config: jobs must be >= 1, got %d", c.Jobs)
	}
	if err := c.MarkupVocabulary().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MarkupVocabulary returns the vocabulary with the suffix override applied.
func (c Config) MarkupVocabulary() markup.Vocabulary {
	v := c.Vocabulary
	if c.Suffix != "" {
		v.Suffix = c.Suffix
	}
	return v
}

// RenderOptions builds the render options, reading the header and footer
// files once.
func (c Config) RenderOptions() (render.Options, error) {
	header, err := render.ParseHeaderPolicy(c.Header)
	if err != nil {
		return render.Options{}, err
	}
	opts := render.Options{
		Header:         header,
		LineNumbers:    c.LineNumbers,
		NumberWidth:    c.NCol,
		Tabs:           c.Tabs,
		Icons:          c.Icons,
		FixedGuide:     c.FixedGuide,
		ShowPosition:   c.ShowPosition,
		Warnings:       c.Warnings,
		ColorizeWarned: c.ColorizeWarned,
		Dynamic:        c.Dynamic,
		Action:         c.Action,
		SiteKey:        c.SiteKey,
		CVSWebURL:      c.CVSWeb.URL,
		CVSRoot:        c.CVSWeb.CVSRoot,
		UseCVSModule:   c.CVSWeb.UseModule,
	}
	if opts.HeaderHTML, err = readInsert(c.InsertHeader); err != nil {
		return render.Options{}, err
	}
	if opts.FooterHTML, err = readInsert(c.InsertFooter); err != nil {
		return render.Options{}, err
	}
	return opts, nil
}

func readInsert(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("reading insert file: %w", err)
	}
	return string(data), nil
}
