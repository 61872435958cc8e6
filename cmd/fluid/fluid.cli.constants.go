package main

// Flag names - long form
const (
	FlagOutfile = "outfile"
	FlagVerbose = "verbose"
	FlagVersion = "version"
	FlagHelp    = "help"
)

// Flag names - short form
const (
	FlagOutfileShort = "o"
	FlagVerboseShort = "v"
	FlagVersionShort = "V"
	FlagHelpShort    = "h"
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
)

// Output file permissions
const FilePermissions = 0o644

// Error messages - ALL must be constants
const (
	ErrMsgMissingTemplate   = "exactly one template file is required"
	ErrMsgRenderFailed      = "render failed"
	ErrMsgWriteOutputFailed = "failed to write output"
	ErrMsgBadVerbosity      = "invalid verbosity level"
)

// Format strings
const (
	FmtErrorWithCause = "fluid: %s: %v\n"
	FmtError          = "fluid: %s\n"
	FmtVersion        = "fluid %s\n"
)

// Help text
const HelpText = `fluid - a Liquid-style template renderer

Usage:
  fluid [OPTIONS] <template_file>

Options:
  -o, --outfile <path>     write rendered output to the file (default: stdout)
  -v, --verbose[=level]    increase verbosity (repeatable)
  -V, --version            print version and exit
  -h, --help               print this help and exit
`
