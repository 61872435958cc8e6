package fluid

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/itsatony/go-fluid/internal"
)

// Loop control signals, caught by the innermost enclosing loop
var (
	errLoopBreak    = errors.New("loop break")
	errLoopContinue = errors.New("loop continue")
)

// renderer walks a parse tree and writes the rendered text. The scope is a
// map value seeded from the configuration file and mutated by assignment
// tags while rendering.
type renderer struct {
	scope  *Value
	out    strings.Builder
	logger *zap.Logger
}

// Render walks the parse tree against the given scope and returns the
// rendered text. A nil scope renders with an empty one.
func Render(root *internal.RootNode, scope *Value, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scope == nil {
		scope = NewMap()
		defer Release(scope)
	}

	r := &renderer{scope: scope, logger: logger}
	if err := r.renderNodes(root.Children); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

func (r *renderer) renderNodes(nodes []internal.Node) error {
	for _, node := range nodes {
		if err := r.renderNode(node); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(node internal.Node) error {
	switch n := node.(type) {
	case *internal.TextNode:
		r.out.WriteString(n.Content)
		return nil
	case *internal.ObjectNode:
		return r.renderObject(n)
	case *internal.StatementNode:
		return r.renderStatement(n)
	case *internal.AssignNode:
		return r.renderAssign(n)
	case *internal.BranchNode:
		return r.renderBranch(n)
	case *internal.LoopNode:
		return r.renderLoop(n)
	default:
		return NewInvalidParamError(node.Type().String())
	}
}

// renderObject resolves the identifier in the scope and applies the filter
// pipeline. An unresolved identifier renders as nothing.
func (r *renderer) renderObject(n *internal.ObjectNode) error {
	s := stringify(r.resolvePath(n.Identifier))
	for i := range n.Filters {
		var err error
		if s, err = n.Filters[i].Apply(s); err != nil {
			return wrapPipelineError(err)
		}
	}
	r.out.WriteString(s)
	return nil
}

func (r *renderer) renderStatement(n *internal.StatementNode) error {
	if n.Keyword == internal.KwBreak {
		return errLoopBreak
	}
	return errLoopContinue
}

// renderAssign handles assign, increment, decrement and capture
func (r *renderer) renderAssign(n *internal.AssignNode) error {
	switch n.Keyword {
	case internal.KwIncrement, internal.KwDecrement:
		return r.step(n.Identifier, n.Keyword == internal.KwIncrement)

	case internal.KwCapture:
		sub := &renderer{scope: r.scope, logger: r.logger}
		if err := sub.renderNodes(n.Body); err != nil {
			return err
		}
		return r.bindString(n.Identifier, sub.out.String())

	default: // assign
		val := r.resolveOperand(n.Expression)
		if val == nil {
			val = NewString("")
		}
		if n.Filter != nil {
			s, err := n.Filter.Apply(stringify(val))
			if err != nil {
				Release(val)
				return wrapPipelineError(err)
			}
			Release(val)
			val = NewString(s)
		}
		err := r.scope.MapInsert(n.Identifier, val)
		Release(val)
		return err
	}
}

// step adjusts a numeric counter by one, starting from zero
func (r *renderer) step(identifier string, up bool) error {
	cur := 0.0
	if v := r.scope.MapGet(identifier); v != nil {
		if f, err := v.AsNumber(); err == nil {
			cur = f
		}
	}
	if up {
		cur++
	} else {
		cur--
	}
	val := NewNumber(cur)
	err := r.scope.MapInsert(identifier, val)
	Release(val)
	return err
}

func (r *renderer) bindString(identifier, s string) error {
	val := NewString(s)
	err := r.scope.MapInsert(identifier, val)
	Release(val)
	return err
}

func (r *renderer) renderBranch(n *internal.BranchNode) error {
	truth := r.evalCompare(n.Cond)
	if n.Negate {
		truth = !truth
	}
	if truth {
		return r.renderNodes(n.True)
	}
	return r.renderNodes(n.False)
}

func (r *renderer) renderLoop(n *internal.LoopNode) error {
	source := r.resolvePath(n.Source)
	if source.Kind() != ValueList || source.Length() == 0 {
		return r.renderNodes(n.Else)
	}

	// the loop variable shadows any outer binding of the same name
	outer := Acquire(r.scope.MapGet(n.Var))
	defer func() {
		if outer != nil {
			r.scope.MapInsert(n.Var, outer)
			Release(outer)
		} else {
			r.scope.MapDelete(n.Var)
		}
	}()

	for i := 0; i < source.Length(); i++ {
		item, err := source.Get(i)
		if err != nil {
			return err
		}
		if err := r.scope.MapInsert(n.Var, item); err != nil {
			return err
		}
		err = r.renderNodes(n.Body)
		if errors.Is(err, errLoopBreak) {
			break
		}
		if err != nil && !errors.Is(err, errLoopContinue) {
			return err
		}
	}
	return nil
}

// evalCompare evaluates a tag condition against the scope
func (r *renderer) evalCompare(c internal.Compare) bool {
	lhs := r.resolveOperand(c.LHS)
	defer Release(lhs)

	if c.Op == internal.OpNone {
		return truthy(lhs)
	}

	rhs := r.resolveOperand(c.RHS)
	defer Release(rhs)

	switch c.Op {
	case internal.OpEquals:
		return valueEqual(lhs, rhs)
	case internal.OpNotEqual:
		return !valueEqual(lhs, rhs)
	case internal.OpLess, internal.OpLessEqual, internal.OpGreater, internal.OpGreaterEqual:
		return valueOrder(lhs, rhs, c.Op)
	case internal.OpLogicAnd:
		return truthy(lhs) && truthy(rhs)
	case internal.OpLogicOr:
		return truthy(lhs) || truthy(rhs)
	case internal.OpContains:
		return valueContains(lhs, rhs)
	}
	return false
}

// resolveOperand turns a condition operand or assignment expression into a
// value: a scope binding when the word resolves, an autovivified literal
// otherwise. The caller owns the returned reference.
func (r *renderer) resolveOperand(word string) *Value {
	if word == "" {
		return nil
	}
	if v := r.resolvePath(word); v != nil {
		return Acquire(v)
	}
	v, err := Autovivify(word)
	if err != nil {
		return nil
	}
	return v
}

// resolvePath resolves a dotted identifier through nested map values.
// No reference is transferred.
func (r *renderer) resolvePath(path string) *Value {
	cur := r.scope
	for _, part := range strings.Split(path, ".") {
		if cur.Kind() != ValueMap {
			return nil
		}
		cur = cur.MapGet(part)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// truthy reports Liquid truthiness: nil and false are falsy, everything
// else is truthy.
func truthy(v *Value) bool {
	switch v.Kind() {
	case ValueNil:
		return false
	case ValueBool:
		return v.boolean
	}
	return true
}

func valueEqual(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case ValueNil:
		return true
	case ValueNumber:
		return a.num == b.num
	case ValueString:
		return a.str == b.str
	case ValueBool:
		return a.boolean == b.boolean
	}
	return a == b
}

func valueOrder(a, b *Value, op internal.Operator) bool {
	var cmp int
	switch {
	case a.Kind() == ValueNumber && b.Kind() == ValueNumber:
		switch {
		case a.num < b.num:
			cmp = -1
		case a.num > b.num:
			cmp = 1
		}
	case a.Kind() == ValueString && b.Kind() == ValueString:
		cmp = strings.Compare(a.str, b.str)
	default:
		return false
	}

	switch op {
	case internal.OpLess:
		return cmp < 0
	case internal.OpLessEqual:
		return cmp <= 0
	case internal.OpGreater:
		return cmp > 0
	case internal.OpGreaterEqual:
		return cmp >= 0
	}
	return false
}

func valueContains(a, b *Value) bool {
	switch a.Kind() {
	case ValueString:
		return b.Kind() == ValueString && strings.Contains(a.str, b.str)
	case ValueList:
		for _, item := range a.items {
			if valueEqual(item, b) {
				return true
			}
		}
	}
	return false
}

// stringify renders a value for output. Lists concatenate their items.
func stringify(v *Value) string {
	switch v.Kind() {
	case ValueNil, ValueMap:
		return ""
	case ValueList:
		var sb strings.Builder
		for _, item := range v.items {
			sb.WriteString(stringify(item))
		}
		return sb.String()
	default:
		return v.Serialize()
	}
}
