package fluid

import (
	"errors"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-fluid/internal"
)

// Error message constants - ALL error messages must be constants
const (
	// Generic errors
	ErrMsgUnknown      = "unknown failure"
	ErrMsgFileNotFound = "file not found"
	ErrMsgInvalidParam = "invalid parameter"

	// Object/value errors
	ErrMsgValueLiteral    = "invalid value literal"
	ErrMsgIdentifierLen   = "identifier too long"
	ErrMsgValueType       = "value type mismatch"
	ErrMsgIndexBounds     = "index out of bounds"

	// Configuration errors
	ErrMsgConfigParser  = "configuration parser failed"
	ErrMsgConfigEvent   = "unexpected event for configuration state"
	ErrMsgConfigNesting = "invalid ascend from configuration root"

	// Template errors
	ErrMsgTemplateLex   = "template lex failed"
	ErrMsgTemplateParse = "template parse failed"
	ErrMsgRenderFailed  = "template render failed"
)

// Error code constants for categorization, one per error category
const (
	ErrCodeGeneric = "FLUID_GENERIC"
	ErrCodeObject  = "FLUID_OBJECT"
	ErrCodeConfig  = "FLUID_CONFIG"
	ErrCodeLex     = "FLUID_LEX"
	ErrCodeParse   = "FLUID_PARSE"
)

// NewFileNotFoundError creates an error for an unreadable input file
func NewFileNotFoundError(path string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeGeneric, ErrMsgFileNotFound).
		WithMetadata(MetaKeyFile, path)
}

// NewInvalidParamError creates an error for a bad API parameter
func NewInvalidParamError(detail string) error {
	return cuserr.NewValidationError(ErrCodeGeneric, ErrMsgInvalidParam).
		WithMetadata(MetaKeyKind, detail)
}

// NewValueLiteralError creates an error for a literal autovivify cannot type
func NewValueLiteralError(literal string) error {
	return cuserr.NewValidationError(ErrCodeObject, ErrMsgValueLiteral).
		WithMetadata(MetaKeyLiteral, literal)
}

// NewIdentifierLenError creates an error for an over-long identifier
func NewIdentifierLenError(identifier string) error {
	return cuserr.NewValidationError(ErrCodeObject, ErrMsgIdentifierLen).
		WithMetadata(MetaKeyIdentifier, identifier)
}

// NewValueTypeError creates an error for an accessor or cast type mismatch
func NewValueTypeError(want, have ValueKind) error {
	return cuserr.NewValidationError(ErrCodeObject, ErrMsgValueType).
		WithMetadata(MetaKeyWant, want.String()).
		WithMetadata(MetaKeyHave, have.String())
}

// NewIndexBoundsError creates an error for a list access past its length
func NewIndexBoundsError(index, length int) error {
	return cuserr.NewValidationError(ErrCodeObject, ErrMsgIndexBounds).
		WithMetadata(MetaKeyIndex, strconv.Itoa(index)).
		WithMetadata(MetaKeyHave, strconv.Itoa(length))
}

// NewConfigParserError creates an error for an unparseable configuration file
func NewConfigParserError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeConfig, ErrMsgConfigParser)
}

// NewConfigEventError creates an error for an event the loader state machine
// does not accept in its current state
func NewConfigEventError(state, event string) error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgConfigEvent).
		WithMetadata(MetaKeyState, state).
		WithMetadata(MetaKeyEvent, event)
}

// NewConfigNestingError creates an error for an ascend from depth zero
func NewConfigNestingError() error {
	return cuserr.NewValidationError(ErrCodeConfig, ErrMsgConfigNesting)
}

// wrapPipelineError maps internal lexer/parser failures onto the public
// error taxonomy, carrying position and keyword metadata through.
func wrapPipelineError(err error) error {
	var lexErr *internal.LexError
	if errors.As(err, &lexErr) {
		return cuserr.WrapStdError(err, ErrCodeLex, ErrMsgTemplateLex).
			WithMetadata(MetaKeyLine, strconv.Itoa(lexErr.Position.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(lexErr.Position.Column)).
			WithMetadata(MetaKeyOffset, strconv.Itoa(lexErr.Position.Offset))
	}

	var parseErr *internal.ParseError
	if errors.As(err, &parseErr) {
		return cuserr.WrapStdError(err, ErrCodeParse, ErrMsgTemplateParse).
			WithMetadata(MetaKeyLine, strconv.Itoa(parseErr.Position.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(parseErr.Position.Column)).
			WithMetadata(MetaKeyKeyword, parseErr.Keyword)
	}

	return cuserr.WrapStdError(err, ErrCodeGeneric, ErrMsgUnknown)
}
