package ioc

import "log/slog"

// Option configures a Config.
type Option interface {
	apply(*configOptions)
}

// configOptions holds Config configuration.
type configOptions struct {
	logger  *slog.Logger
	source  MetadataSource
	objects ObjectConstructor
}

// optionFunc adapts a function to Option.
type optionFunc func(*configOptions)

func (f optionFunc) apply(opts *configOptions) {
	f(opts)
}

func defaultConfigOptions() *configOptions {
	source := DefaultReflectSource()
	return &configOptions{
		logger:  slog.Default(),
		source:  source,
		objects: source,
	}
}

// WithLogger sets the logger used for registration and commit events.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(opts *configOptions) {
		if logger != nil {
			opts.logger = logger
		}
	})
}

// WithMetadataSource sets the source describing injection points.
func WithMetadataSource(source MetadataSource) Option {
	return optionFunc(func(opts *configOptions) {
		opts.source = source
	})
}

// WithObjectConstructor sets the constructor that allocates instances and
// writes injected values.
func WithObjectConstructor(objects ObjectConstructor) Option {
	return optionFunc(func(opts *configOptions) {
		opts.objects = objects
	})
}

// WithReflectSource uses source as both metadata source and object
// constructor.
func WithReflectSource(source *ReflectSource) Option {
	return optionFunc(func(opts *configOptions) {
		opts.source = source
		opts.objects = source
	})
}
