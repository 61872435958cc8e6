package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Parser builds a parse tree from a preprocessed block sequence by
// recursive descent. The cursor contract: each construct handler is entered
// with the cursor on its opening block and returns with the cursor past the
// terminator that closed it. parseNodes stops with the cursor ON a
// terminator block and lets the enclosing handler consume it.
type Parser struct {
	blocks []*Block
	pos    int
	stack  []BlockKind // chain of enclosing blocks, innermost last
	logger *zap.Logger
}

// NewParser creates a parser over a preprocessed block sequence
func NewParser(blocks []*Block, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldBlocks, len(blocks)))
	return &Parser{blocks: blocks, logger: logger}
}

// Parse builds the parse tree root from the block sequence
func (p *Parser) Parse() (*RootNode, error) {
	p.logger.Debug(LogMsgParserStart)

	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}

	// a terminator surviving to the top level has no block to close
	if blk := p.current(); blk != nil {
		kw := tagKeyword(blk)
		if kw.IsEndTag() {
			return nil, NewParseError(ErrMsgMismatchedEndTag, blk.Pos, kw.String())
		}
		return nil, NewParseError(ErrMsgInvalidNesting, blk.Pos, kw.String())
	}

	root := &RootNode{Children: nodes}
	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(nodes)))
	return root, nil
}

// parseNodes consumes blocks until a terminator tag or the end of the
// sequence and returns the children built along the way.
func (p *Parser) parseNodes() ([]Node, error) {
	var nodes []Node

	for {
		blk := p.current()
		if blk == nil {
			return nodes, nil
		}

		switch blk.Type {
		case BlockData:
			nodes = append(nodes, NewTextNode(blk.Content, blk.Pos))
			p.advance()

		case BlockObject:
			nodes = append(nodes, NewObjectNode(blk.Object, blk.Pos))
			p.advance()

		case BlockTag:
			kw := blk.Tag.Keyword
			if isTerminator(kw) {
				return nodes, nil
			}
			node, err := p.parseTag(blk)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)

		default:
			return nil, NewParseError(ErrMsgUnexpectedTag, blk.Pos, StrEmpty)
		}
	}
}

// isTerminator reports whether a keyword closes or re-opens the enclosing
// construct rather than starting a child of its own.
func isTerminator(kw Keyword) bool {
	switch kw {
	case KwElse, KwElsif, KwWhen:
		return true
	}
	return kw.IsEndTag()
}

// parseTag dispatches one non-terminator tag block
func (p *Parser) parseTag(blk *Block) (Node, error) {
	kw := blk.Tag.Keyword

	// break and continue are valid inside any for at any depth, so their
	// check walks the whole parent chain in parseStatement instead of the
	// immediate-parent gate below.
	if kw == KwBreak || kw == KwContinue {
		return p.parseStatement(blk)
	}

	if !IsValid(p.parentKind(), kw) {
		return nil, NewParseError(ErrMsgInvalidNesting, blk.Pos, kw.String())
	}

	switch kw {
	case KwAssign, KwIncrement, KwDecrement:
		return p.parseAssign(blk)
	case KwIf:
		return p.parseIf(blk)
	case KwUnless:
		return p.parseUnless(blk)
	case KwFor:
		return p.parseFor(blk)
	case KwCase:
		return p.parseCase(blk)
	case KwCapture:
		return p.parseCapture(blk)
	default:
		// comment, raw and include never survive the preprocessor
		return nil, NewParseError(ErrMsgUnexpectedTag, blk.Pos, kw.String())
	}
}

// parseAssign handles assign, increment and decrement. The identifier is
// the first operand; assign joins the remainder (minus the leading equals
// sign) into the expression text.
func (p *Parser) parseAssign(blk *Block) (Node, error) {
	tokens := blk.Tag.Tokens
	if len(tokens) == 0 {
		return nil, NewParseError(ErrMsgBadAssign, blk.Pos, blk.Tag.Keyword.String())
	}

	node := &AssignNode{
		pos:        blk.Pos,
		Keyword:    blk.Tag.Keyword,
		Identifier: tokens[0],
		Filter:     blk.Tag.Filter,
	}
	if blk.Tag.Keyword == KwAssign {
		rest := tokens[1:]
		if len(rest) > 0 && rest[0] == "=" {
			rest = rest[1:]
		}
		node.Expression = strings.Join(rest, StrSpace)
	}
	p.advance()
	return node, nil
}

// parseStatement handles break and continue. Both are valid inside a for
// loop at any nesting depth, so the whole parent chain is walked.
func (p *Parser) parseStatement(blk *Block) (Node, error) {
	if !p.insideLoop() {
		return nil, NewParseError(ErrMsgInvalidNesting, blk.Pos, blk.Tag.Keyword.String())
	}
	node := NewStatementNode(blk.Tag.Keyword, blk.Pos)
	p.advance()
	return node, nil
}

// parseIf handles an if block with its elsif/else chain. Each elsif becomes
// a fresh Branch nested as the false-body of the one before it.
func (p *Parser) parseIf(blk *Block) (Node, error) {
	cond, err := parseCondition(blk)
	if err != nil {
		return nil, err
	}

	p.push(BlkIf)
	defer p.pop()

	root := &BranchNode{pos: blk.Pos, Cond: cond}
	cur := root
	p.advance()

	for {
		body, err := p.parseNodes()
		if err != nil {
			return nil, err
		}
		cur.True = body

		term := p.current()
		if term == nil {
			return nil, NewParseError(ErrMsgMissingTerminator, blk.Pos, KwIf.String())
		}

		switch term.Tag.Keyword {
		case KwElsif:
			next := &BranchNode{pos: term.Pos}
			if next.Cond, err = parseCondition(term); err != nil {
				return nil, err
			}
			cur.False = []Node{next}
			cur = next
			p.advance()

		case KwElse:
			p.advance()
			if cur.False, err = p.parseNodes(); err != nil {
				return nil, err
			}
			if err := p.expectEnd(KwEndIf, blk.Pos); err != nil {
				return nil, err
			}
			return root, nil

		case KwEndIf:
			p.advance()
			return root, nil

		default:
			return nil, NewParseError(ErrMsgMismatchedEndTag, term.Pos, term.Tag.Keyword.String())
		}
	}
}

// parseUnless is a Branch with inverted condition semantics and no
// else chain; only endunless closes it.
func (p *Parser) parseUnless(blk *Block) (Node, error) {
	cond, err := parseCondition(blk)
	if err != nil {
		return nil, err
	}

	p.push(BlkUnless)
	defer p.pop()

	node := &BranchNode{pos: blk.Pos, Cond: cond, Negate: true}
	p.advance()

	if node.True, err = p.parseNodes(); err != nil {
		return nil, err
	}
	if err := p.expectEnd(KwEndUnless, blk.Pos); err != nil {
		return nil, err
	}
	return node, nil
}

// parseFor handles a for loop: `for <var> in <source>`, an optional else
// body for empty iteration sources, closed by endfor.
func (p *Parser) parseFor(blk *Block) (Node, error) {
	tokens := blk.Tag.Tokens
	if len(tokens) != 3 || tokens[1] != StrForIn {
		return nil, NewParseError(ErrMsgBadLoop, blk.Pos, KwFor.String())
	}

	p.push(BlkFor)
	defer p.pop()

	node := &LoopNode{pos: blk.Pos, Var: tokens[0], Source: tokens[2]}
	p.advance()

	var err error
	if node.Body, err = p.parseNodes(); err != nil {
		return nil, err
	}

	term := p.current()
	if term == nil {
		return nil, NewParseError(ErrMsgMissingTerminator, blk.Pos, KwFor.String())
	}

	switch term.Tag.Keyword {
	case KwElse:
		p.advance()
		if node.Else, err = p.parseNodes(); err != nil {
			return nil, err
		}
		if err := p.expectEnd(KwEndFor, blk.Pos); err != nil {
			return nil, err
		}
	case KwEndFor:
		p.advance()
	default:
		return nil, NewParseError(ErrMsgMismatchedEndTag, term.Pos, term.Tag.Keyword.String())
	}
	return node, nil
}

// parseCase handles a case block: the subject combines with each when's
// first operand into an equality Branch; successive whens chain as
// false-bodies, a final else body requires endcase after it.
func (p *Parser) parseCase(blk *Block) (Node, error) {
	tokens := blk.Tag.Tokens
	if len(tokens) == 0 {
		return nil, NewParseError(ErrMsgBadCondition, blk.Pos, KwCase.String())
	}
	subject := tokens[0]

	p.push(BlkCase)
	defer p.pop()
	p.advance()

	// only literal data may sit between `case` and the first `when`
	for {
		cur := p.current()
		if cur == nil {
			return nil, NewParseError(ErrMsgMissingTerminator, blk.Pos, KwCase.String())
		}
		if cur.Type == BlockData {
			p.advance()
			continue
		}
		if tagKeyword(cur) != KwWhen {
			return nil, NewParseError(ErrMsgUnexpectedTag, cur.Pos, KwCase.String())
		}
		break
	}

	var root, cur *BranchNode
	for {
		when := p.current()
		if len(when.Tag.Tokens) == 0 {
			return nil, NewParseError(ErrMsgBadCondition, when.Pos, KwWhen.String())
		}
		next := &BranchNode{
			pos:  when.Pos,
			Cond: Compare{LHS: subject, Op: OpEquals, RHS: when.Tag.Tokens[0]},
		}
		if root == nil {
			root = next
		} else {
			cur.False = []Node{next}
		}
		cur = next
		p.advance()

		body, err := p.parseNodes()
		if err != nil {
			return nil, err
		}
		cur.True = body

		term := p.current()
		if term == nil {
			return nil, NewParseError(ErrMsgMissingTerminator, blk.Pos, KwCase.String())
		}

		switch term.Tag.Keyword {
		case KwWhen:
			continue

		case KwElse:
			p.advance()
			if cur.False, err = p.parseNodes(); err != nil {
				return nil, err
			}
			if err := p.expectEnd(KwEndCase, blk.Pos); err != nil {
				return nil, err
			}
			return root, nil

		case KwEndCase:
			p.advance()
			return root, nil

		default:
			return nil, NewParseError(ErrMsgMismatchedEndTag, term.Pos, term.Tag.Keyword.String())
		}
	}
}

// parseCapture renders its body into a named value at evaluation time
func (p *Parser) parseCapture(blk *Block) (Node, error) {
	tokens := blk.Tag.Tokens
	if len(tokens) == 0 {
		return nil, NewParseError(ErrMsgBadAssign, blk.Pos, KwCapture.String())
	}

	p.push(BlkCapture)
	defer p.pop()

	node := &AssignNode{pos: blk.Pos, Keyword: KwCapture, Identifier: tokens[0]}
	p.advance()

	var err error
	if node.Body, err = p.parseNodes(); err != nil {
		return nil, err
	}
	if err := p.expectEnd(KwEndCapture, blk.Pos); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCondition builds a Compare from a tag's operand words: either a
// single truthiness operand or a full lhs/operator/rhs triple.
func parseCondition(blk *Block) (Compare, error) {
	tokens := blk.Tag.Tokens
	switch len(tokens) {
	case 1:
		return Compare{LHS: tokens[0]}, nil
	case 3:
		op := LookupOperator(tokens[1])
		if op == OpNone {
			return Compare{}, NewParseError(ErrMsgBadCondition, blk.Pos, blk.Tag.Keyword.String())
		}
		return Compare{LHS: tokens[0], Op: op, RHS: tokens[2]}, nil
	default:
		return Compare{}, NewParseError(ErrMsgBadCondition, blk.Pos, blk.Tag.Keyword.String())
	}
}

// expectEnd consumes the required closing keyword at the cursor
func (p *Parser) expectEnd(kw Keyword, openPos Position) error {
	blk := p.current()
	if blk == nil {
		return NewParseError(ErrMsgMissingTerminator, openPos, StartTagFor(kw).String())
	}
	if tagKeyword(blk) != kw {
		return NewParseError(ErrMsgMismatchedEndTag, blk.Pos, tagKeyword(blk).String())
	}
	p.advance()
	return nil
}

// Cursor and parent-chain helpers

func (p *Parser) current() *Block {
	if p.pos >= len(p.blocks) {
		return nil
	}
	return p.blocks[p.pos]
}

func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) push(kind BlockKind) {
	p.stack = append(p.stack, kind)
}

func (p *Parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *Parser) parentKind() BlockKind {
	if len(p.stack) == 0 {
		return BlkNone
	}
	return p.stack[len(p.stack)-1]
}

// insideLoop walks the parent chain for an enclosing for block
func (p *Parser) insideLoop() bool {
	for _, kind := range p.stack {
		if kind == BlkFor {
			return true
		}
	}
	return false
}
