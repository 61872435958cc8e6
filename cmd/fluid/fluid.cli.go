package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	fluid "github.com/itsatony/go-fluid"
)

// cliConfig holds the parsed command line
type cliConfig struct {
	templatePath string
	outfilePath  string
	verbosity    verbosityFlag
	showVersion  bool
	showHelp     bool
}

// verbosityFlag counts -v occurrences and accepts an optional inline level
// (-v=2). It satisfies flag.Value as a boolean-style flag.
type verbosityFlag int

func (v *verbosityFlag) String() string {
	return strconv.Itoa(int(*v))
}

func (v *verbosityFlag) Set(s string) error {
	switch s {
	case "", "true":
		*v++
		return nil
	case "false":
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return errors.New(ErrMsgBadVerbosity)
	}
	*v = verbosityFlag(n)
	return nil
}

// IsBoolFlag lets -v appear without a value
func (v *verbosityFlag) IsBoolFlag() bool { return true }

// run is the CLI entry point, separated from main for testing
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtError, err)
		fmt.Fprint(stderr, HelpText)
		return ExitCodeUsageError
	}

	if cfg.showHelp {
		fmt.Fprint(stdout, HelpText)
		return ExitCodeSuccess
	}
	if cfg.showVersion {
		fmt.Fprintf(stdout, FmtVersion, fluid.Version)
		return ExitCodeSuccess
	}
	if cfg.templatePath == "" {
		fmt.Fprintf(stderr, FmtError, ErrMsgMissingTemplate)
		fmt.Fprint(stderr, HelpText)
		return ExitCodeUsageError
	}

	logger := newLogger(int(cfg.verbosity), stderr)
	defer func() { _ = logger.Sync() }()

	engine := fluid.MustNew(fluid.WithLogger(logger))
	output, err := engine.RenderFile(cfg.templatePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgRenderFailed, err)
		return ExitCodeError
	}

	if err := writeOutput(cfg.outfilePath, output, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("fluid", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.outfilePath, FlagOutfile, "", "")
	fs.StringVar(&cfg.outfilePath, FlagOutfileShort, "", "")
	fs.Var(&cfg.verbosity, FlagVerbose, "")
	fs.Var(&cfg.verbosity, FlagVerboseShort, "")
	fs.BoolVar(&cfg.showVersion, FlagVersion, false, "")
	fs.BoolVar(&cfg.showVersion, FlagVersionShort, false, "")
	fs.BoolVar(&cfg.showHelp, FlagHelp, false, "")
	fs.BoolVar(&cfg.showHelp, FlagHelpShort, false, "")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cfg.showHelp = true
			return cfg, nil
		}
		return nil, err
	}

	rest := fs.Args()
	if cfg.showHelp || cfg.showVersion {
		return cfg, nil
	}
	if len(rest) != 1 {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	cfg.templatePath = rest[0]
	return cfg, nil
}

// newLogger builds a console logger on stderr matching the verbosity:
// 0 errors only, 1 info, 2 and above debug.
func newLogger(verbosity int, stderr io.Writer) *zap.Logger {
	level := zapcore.ErrorLevel
	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(stderr), level)
	return zap.New(core)
}

// writeOutput writes the rendered text to the outfile, or stdout when no
// outfile was given
func writeOutput(path, output string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, output)
		return err
	}
	return os.WriteFile(path, []byte(output), FilePermissions)
}
