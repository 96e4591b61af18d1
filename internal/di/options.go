package di

import "context"

// ConfigSource selects where configuration is loaded from: "env" (default) or "ssm"
type ConfigSource string

// ConfigFile is the path of a YAML configuration file. When set it takes
// precedence over ConfigSource.
type ConfigFile string

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithContext sets the context handed to providers. The context should carry the
// logger so providers can log through zerolog.Ctx.
func WithContext(ctx context.Context) Option {
	return func(opts *options) {
		opts.ctx = ctx
	}
}

func WithConfigSource(source string) Option {
	return func(opts *options) {
		opts.configSource = ConfigSource(source)
	}
}

func WithConfigFile(path string) Option {
	return func(opts *options) {
		opts.configFile = ConfigFile(path)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func(cfg services.UnpackConfig) *Handler { return &Handler{config: cfg} },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	ctx          context.Context
	configSource ConfigSource
	configFile   ConfigFile
	providers    []any
}
