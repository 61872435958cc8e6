package fluid

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// configEventType enumerates the structural events the loader consumes.
// The stream is derived from the parsed document tree in the same order an
// event-driven parser would emit it.
type configEventType int

const (
	cfgEventStreamStart configEventType = iota
	cfgEventStreamEnd
	cfgEventDocumentStart
	cfgEventDocumentEnd
	cfgEventMappingStart
	cfgEventMappingEnd
	cfgEventSequenceStart
	cfgEventSequenceEnd
	cfgEventScalar
)

// Configuration event names for diagnostics
var cfgEventNames = map[configEventType]string{
	cfgEventStreamStart:   "STREAM_START",
	cfgEventStreamEnd:     "STREAM_END",
	cfgEventDocumentStart: "DOCUMENT_START",
	cfgEventDocumentEnd:   "DOCUMENT_END",
	cfgEventMappingStart:  "MAPPING_START",
	cfgEventMappingEnd:    "MAPPING_END",
	cfgEventSequenceStart: "SEQUENCE_START",
	cfgEventSequenceEnd:   "SEQUENCE_END",
	cfgEventScalar:        "SCALAR",
}

func (t configEventType) String() string {
	return cfgEventNames[t]
}

type configEvent struct {
	typ   configEventType
	value string
}

// configState is the loader state machine's state
type configState int

const (
	cfgStateStart configState = iota
	cfgStateObjNew
	cfgStateObjKey
	cfgStateObjVal
	cfgStateStop
)

// Configuration state names for diagnostics
var cfgStateNames = map[configState]string{
	cfgStateStart:  "START",
	cfgStateObjNew: "OBJ_NEW",
	cfgStateObjKey: "OBJ_KEY",
	cfgStateObjVal: "OBJ_VAL",
	cfgStateStop:   "STOP",
}

func (s configState) String() string {
	return cfgStateNames[s]
}

// configReader drives the state machine. The stack holds the container
// currently being filled; descend pushes, ascend pops.
type configReader struct {
	state configState
	stack []*Value
	key   string
}

// LoadConfigFile reads and loads a configuration file into a map value
// seeding the render scope.
func LoadConfigFile(path string, logger *zap.Logger) (*Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewFileNotFoundError(path, err)
	}
	return LoadConfig(data, logger)
}

// LoadConfig parses a configuration buffer. Structural open/close events
// descend/ascend the container stack, scalar events alternate between key
// and value; any event the current state does not accept is fatal.
func LoadConfig(data []byte, logger *zap.Logger) (*Value, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewConfigParserError(err)
	}

	events := streamEvents(&doc)

	root := NewMap()
	r := &configReader{state: cfgStateStart, stack: []*Value{root}}

	for _, ev := range events {
		if err := r.process(ev); err != nil {
			Release(root)
			return nil, err
		}
	}
	if r.state != cfgStateStop {
		Release(root)
		return nil, NewConfigEventError(r.state.String(), cfgEventStreamEnd.String())
	}

	logger.Debug(LogMsgConfigLoaded, zap.Int(LogFieldEntries, root.MapLen()))
	return root, nil
}

// process advances the state machine by one event
func (r *configReader) process(ev configEvent) error {
	switch r.state {
	case cfgStateStart:
		switch ev.typ {
		case cfgEventStreamStart:
		case cfgEventDocumentStart:
			r.state = cfgStateObjNew
		case cfgEventStreamEnd:
			// empty stream: no document at all
			r.state = cfgStateStop
		default:
			return r.eventError(ev)
		}

	case cfgStateObjNew:
		switch ev.typ {
		case cfgEventMappingStart:
			r.state = cfgStateObjKey
		case cfgEventDocumentEnd, cfgEventStreamEnd:
			r.state = cfgStateStop
		default:
			return r.eventError(ev)
		}

	case cfgStateObjKey:
		switch ev.typ {
		case cfgEventScalar:
			if len(ev.value) > MaxIdentifierLen {
				return NewIdentifierLenError(ev.value)
			}
			r.key = ev.value
			r.state = cfgStateObjVal
		case cfgEventMappingEnd:
			if len(r.stack) == 1 {
				// the root mapping closed; only document end may follow
				r.state = cfgStateObjNew
				break
			}
			if err := r.ascend(); err != nil {
				return err
			}
			if r.inList() {
				r.state = cfgStateObjVal
			}
		default:
			return r.eventError(ev)
		}

	case cfgStateObjVal:
		switch ev.typ {
		case cfgEventScalar:
			if r.inList() {
				return r.appendScalar(ev.value)
			}
			return r.insertScalar(ev.value)
		case cfgEventMappingStart:
			child := NewMap()
			if err := r.nest(child); err != nil {
				Release(child)
				return err
			}
			r.descend(child)
			Release(child)
			r.state = cfgStateObjKey
		case cfgEventSequenceStart:
			child := NewList(0)
			if err := r.nest(child); err != nil {
				Release(child)
				return err
			}
			r.descend(child)
			Release(child)
		case cfgEventSequenceEnd:
			if !r.inList() {
				return r.eventError(ev)
			}
			if err := r.ascend(); err != nil {
				return err
			}
			if !r.inList() {
				r.state = cfgStateObjKey
			}
		default:
			return r.eventError(ev)
		}

	case cfgStateStop:
	}

	return nil
}

// insertScalar stores an autovivified scalar under the pending key
func (r *configReader) insertScalar(literal string) error {
	val, err := Autovivify(literal)
	if err != nil {
		return err
	}
	err = r.top().MapInsert(r.key, val)
	Release(val)
	if err != nil {
		return err
	}
	r.state = cfgStateObjKey
	return nil
}

// appendScalar adds an autovivified scalar to the open list; the state
// stays at OBJ_VAL until the sequence closes.
func (r *configReader) appendScalar(literal string) error {
	val, err := Autovivify(literal)
	if err != nil {
		return err
	}
	err = r.top().Append(val)
	Release(val)
	return err
}

// nest attaches a fresh container into the one currently open
func (r *configReader) nest(child *Value) error {
	if r.inList() {
		return r.top().Append(child)
	}
	return r.top().MapInsert(r.key, child)
}

func (r *configReader) descend(child *Value) {
	r.stack = append(r.stack, child)
}

func (r *configReader) ascend() error {
	if len(r.stack) <= 1 {
		return NewConfigNestingError()
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *configReader) top() *Value {
	return r.stack[len(r.stack)-1]
}

func (r *configReader) inList() bool {
	return r.top().Kind() == ValueList
}

func (r *configReader) eventError(ev configEvent) error {
	return NewConfigEventError(r.state.String(), ev.typ.String())
}

// streamEvents flattens a parsed document tree into the event order an
// event-driven parser would produce.
func streamEvents(doc *yaml.Node) []configEvent {
	events := []configEvent{{typ: cfgEventStreamStart}}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		events = append(events, configEvent{typ: cfgEventDocumentStart})
		events = appendNodeEvents(events, doc.Content[0])
		events = append(events, configEvent{typ: cfgEventDocumentEnd})
	}
	return append(events, configEvent{typ: cfgEventStreamEnd})
}

func appendNodeEvents(events []configEvent, n *yaml.Node) []configEvent {
	switch n.Kind {
	case yaml.MappingNode:
		events = append(events, configEvent{typ: cfgEventMappingStart})
		for _, child := range n.Content {
			events = appendNodeEvents(events, child)
		}
		events = append(events, configEvent{typ: cfgEventMappingEnd})
	case yaml.SequenceNode:
		events = append(events, configEvent{typ: cfgEventSequenceStart})
		for _, child := range n.Content {
			events = appendNodeEvents(events, child)
		}
		events = append(events, configEvent{typ: cfgEventSequenceEnd})
	case yaml.ScalarNode:
		events = append(events, configEvent{typ: cfgEventScalar, value: n.Value})
	case yaml.AliasNode:
		if n.Alias != nil {
			events = appendNodeEvents(events, n.Alias)
		}
	}
	return events
}
