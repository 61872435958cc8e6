package fluid

// Version is the library version
const Version = "1.0.0"

// Value model limits
const (
	// MaxIdentifierLen is the maximum byte length of a value identifier
	MaxIdentifierLen = 32
)

// Metadata keys for error context
const (
	MetaKeyLine       = "line"
	MetaKeyColumn     = "column"
	MetaKeyOffset     = "offset"
	MetaKeyKeyword    = "keyword"
	MetaKeyIdentifier = "identifier"
	MetaKeyFile       = "file"
	MetaKeyKind       = "kind"
	MetaKeyWant       = "want"
	MetaKeyHave       = "have"
	MetaKeyIndex      = "index"
	MetaKeyLiteral    = "literal"
	MetaKeyState      = "state"
	MetaKeyEvent      = "event"
)

// Log messages
const (
	LogMsgEngineCreated = "engine created"
	LogMsgRenderStart   = "starting render"
	LogMsgRenderEnd     = "render complete"
	LogMsgConfigLoaded  = "configuration loaded"
	LogMsgScopeSeeded   = "render scope seeded"
)

// Log field names
const (
	LogFieldFile    = "file"
	LogFieldSource  = "source_length"
	LogFieldOutput  = "output_length"
	LogFieldEntries = "entry_count"
)
