// Package config loads the wayfind.json project configuration. A
// missing file yields the defaults; a malformed one fails fast.
package config

import (
	stderrors "errors"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/wayfind-dev/wayfind/internal/errors"
	"github.com/wayfind-dev/wayfind/pkg/routegen"
)

const (
	// DefaultRoutesDir is where route files live.
	DefaultRoutesDir = "app/routes"

	// DefaultOutput is the generated file path.
	DefaultOutput = "app/routes/routes_gen.go"

	// DefaultPackage is the generated file's package name.
	DefaultPackage = "routes"

	// DefaultWatchAddr is the dev reload server address.
	DefaultWatchAddr = "localhost:8790"

	// DefaultDebounce is the watch poll interval.
	DefaultDebounce = 100 * time.Millisecond
)

// Config is the complete wayfind.json configuration.
type Config struct {
	// Routes is the path to the routes directory.
	Routes string `mapstructure:"routes"`

	// Output is the generated file path.
	Output string `mapstructure:"output"`

	// Package is the generated file's package name.
	Package string `mapstructure:"package"`

	// RoutePrefix restricts scanning to files with this name prefix.
	RoutePrefix string `mapstructure:"routePrefix"`

	// IgnorePrefix skips files and directories with this name prefix.
	IgnorePrefix string `mapstructure:"ignorePrefix"`

	// Extensions are the recognized route file extensions.
	Extensions []string `mapstructure:"extensions"`

	// Quote is the emitted string literal style: "double" or
	// "backtick".
	Quote string `mapstructure:"quote"`

	// TypedParams emits params structs for dynamic routes.
	TypedParams bool `mapstructure:"typedParams"`

	// Watch configures the dev loop.
	Watch WatchConfig `mapstructure:"watch"`
}

// WatchConfig configures the wayfind watch dev loop.
type WatchConfig struct {
	// Addr is the reload server listen address.
	Addr string `mapstructure:"addr"`

	// Debounce is the poll interval in milliseconds.
	Debounce int `mapstructure:"debounce"`
}

// Load reads wayfind.json from dir. A missing file is not an error;
// defaults apply. A malformed file fails fast with a coded error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("wayfind")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetDefault("routes", DefaultRoutesDir)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("package", DefaultPackage)
	v.SetDefault("quote", string(routegen.QuoteDouble))
	v.SetDefault("watch.addr", DefaultWatchAddr)
	v.SetDefault("watch.debounce", int(DefaultDebounce/time.Millisecond))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, errors.New("W001").
				WithDetail("reading %s", filepath.Join(dir, "wayfind.json")).
				WithSuggestion("check the file for JSON syntax errors").
				Wrap(err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("W001").
			WithDetail("decoding %s", filepath.Join(dir, "wayfind.json")).
			Wrap(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch routegen.QuoteStyle(c.Quote) {
	case routegen.QuoteDouble, routegen.QuoteBacktick:
	default:
		return errors.New("W002").
			WithDetail("quote must be %q or %q, got %q",
				routegen.QuoteDouble, routegen.QuoteBacktick, c.Quote).
			WithSuggestion(`set "quote" to "double" or "backtick"`)
	}
	if c.Watch.Debounce < 0 {
		return errors.New("W002").
			WithDetail("watch.debounce must not be negative, got %d", c.Watch.Debounce)
	}
	return nil
}

// ScanConfig maps the project configuration onto the generator's
// scanner options.
func (c *Config) ScanConfig() routegen.ScanConfig {
	return routegen.ScanConfig{
		Extensions:   c.Extensions,
		RoutePrefix:  c.RoutePrefix,
		IgnorePrefix: c.IgnorePrefix,
	}
}

// GenerateConfig maps the project configuration onto the generator's
// emission options.
func (c *Config) GenerateConfig() routegen.GenerateConfig {
	return routegen.GenerateConfig{
		Package:     c.Package,
		OutputPath:  c.Output,
		Quote:       routegen.QuoteStyle(c.Quote),
		TypedParams: c.TypedParams,
	}
}

// DebounceInterval returns the watch poll interval.
func (c *Config) DebounceInterval() time.Duration {
	if c.Watch.Debounce <= 0 {
		return DefaultDebounce
	}
	return time.Duration(c.Watch.Debounce) * time.Millisecond
}
