// Package fluid renders Liquid-style text templates: plain text interleaved
// with tag directives ({% keyword ... %}) and output objects ({{ identifier
// | filter | ... }}).
//
// # Basic Usage
//
// Create an engine and render a template file:
//
//	engine := fluid.MustNew()
//	output, err := engine.RenderFile("page.liq")
//
// Or render an in-memory source, giving the directory includes resolve
// against:
//
//	output, err := engine.RenderString("Hello {{ name }}!", ".")
//
// # Template Syntax
//
// Output objects interpolate values and may carry a filter pipeline:
//
//	{{ user | strip | upcase }}
//
// Tags drive control flow and binding:
//
//	{% assign greeting = "hello" %}
//	{% if count > 3 %}many{% else %}few{% endif %}
//	{% for item in items %}[{{ item }}]{% endfor %}
//	{% case x %}{% when 1 %}one{% else %}other{% endcase %}
//	{% capture joined %}{{ a }}{{ b }}{% endcapture %}
//
// Comment spans are dropped from the output entirely; raw spans suppress
// directive processing so delimiters can be emitted literally:
//
//	{% comment %}never rendered{% endcomment %}
//	{% raw %}{{ shown verbatim }}{% endraw %}
//
// Include splices another template in place, resolved relative to the
// including template's directory:
//
//	{% include "header.liq" %}
//
// # Pipeline
//
// Rendering runs lex -> tokenize -> preprocess -> parse -> render. The
// preprocessor recurses into included sub-templates; the parse-tree builder
// validates block nesting (if/elsif/else/endif, case/when, for/break/
// continue, unless, capture) before the tree is walked.
//
// # Configuration
//
// The render scope can be seeded from a configuration file of nested
// named containers, lists and scalars:
//
//	engine := fluid.MustNew(fluid.WithConfigFile("site.yaml"))
//
// # Error Handling
//
// All failures return typed errors with category codes (FLUID_LEX,
// FLUID_PARSE, FLUID_OBJECT, FLUID_CONFIG, FLUID_GENERIC) and position
// metadata where a source location applies.
package fluid

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/itsatony/go-fluid/internal"
)

// Engine renders templates. It carries only constant per-process
// configuration; all per-render state lives in the invocation.
type Engine struct {
	logger          *zap.Logger
	configPath      string
	maxIncludeDepth int
}

// New creates an engine with the given options
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:          zap.NewNop(),
		maxIncludeDepth: internal.DefaultMaxIncludeDepth,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger.Debug(LogMsgEngineCreated)
	return e, nil
}

// MustNew creates an engine and panics on option errors
func MustNew(opts ...Option) *Engine {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// RenderFile loads and renders a template file. Includes resolve relative
// to the template's directory.
func (e *Engine) RenderFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewFileNotFoundError(path, err)
	}
	return e.RenderString(string(data), filepath.Dir(path))
}

// RenderString renders an in-memory template source. Includes resolve
// relative to dir.
func (e *Engine) RenderString(source, dir string) (string, error) {
	e.logger.Debug(LogMsgRenderStart, zap.Int(LogFieldSource, len(source)))

	pipeline := internal.NewPipeline(fsLoader(dir), e.logger)
	pipeline.MaxDepth = e.maxIncludeDepth

	blocks, err := pipeline.Run(source)
	if err != nil {
		return "", wrapPipelineError(err)
	}

	root, err := internal.NewParser(blocks, e.logger).Parse()
	if err != nil {
		return "", wrapPipelineError(err)
	}

	scope, err := e.seedScope()
	if err != nil {
		return "", err
	}
	defer Release(scope)

	out, err := Render(root, scope, e.logger)
	if err != nil {
		return "", err
	}

	e.logger.Debug(LogMsgRenderEnd, zap.Int(LogFieldOutput, len(out)))
	return out, nil
}

// seedScope builds the per-invocation render scope, loading the configured
// seed file when one is set.
func (e *Engine) seedScope() (*Value, error) {
	if e.configPath == "" {
		return NewMap(), nil
	}
	scope, err := LoadConfigFile(e.configPath, e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Debug(LogMsgScopeSeeded, zap.Int(LogFieldEntries, scope.MapLen()))
	return scope, nil
}

// fsLoader resolves include names against dir; the loader returned for a
// sub-template resolves against that sub-template's own directory.
func fsLoader(dir string) internal.IncludeLoader {
	return func(name string) (string, internal.IncludeLoader, error) {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, err
		}
		return string(data), fsLoader(filepath.Dir(path)), nil
	}
}
