package fluid

import "go.uber.org/zap"

// Option configures an Engine
type Option func(*Engine) error

// WithLogger sets the logger used by every pipeline stage
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return NewInvalidParamError("logger")
		}
		e.logger = logger
		return nil
	}
}

// WithConfigFile sets a configuration file whose tree seeds the render
// scope of every invocation
func WithConfigFile(path string) Option {
	return func(e *Engine) error {
		if path == "" {
			return NewInvalidParamError("config path")
		}
		e.configPath = path
		return nil
	}
}

// WithMaxIncludeDepth bounds include recursion
func WithMaxIncludeDepth(depth int) Option {
	return func(e *Engine) error {
		if depth < 1 {
			return NewInvalidParamError("include depth")
		}
		e.maxIncludeDepth = depth
		return nil
	}
}
