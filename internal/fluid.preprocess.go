package internal

import (
	"go.uber.org/zap"
)

// DefaultMaxIncludeDepth bounds include recursion so cyclic includes fail
// instead of spinning.
const DefaultMaxIncludeDepth = 16

// IncludeLoader resolves an include operand to the sub-template source.
// The returned loader resolves names relative to the sub-template's own
// directory, so nested includes chain correctly.
type IncludeLoader func(name string) (string, IncludeLoader, error)

// Pipeline runs the front half of the renderer: block scan, token stage and
// preprocess, recursing into included sub-templates.
type Pipeline struct {
	Loader   IncludeLoader
	MaxDepth int
	Logger   *zap.Logger
}

// NewPipeline creates a pipeline with the given include loader
func NewPipeline(loader IncludeLoader, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Loader:   loader,
		MaxDepth: DefaultMaxIncludeDepth,
		Logger:   logger,
	}
}

// Run lexes, tokenizes and preprocesses a template source into its final
// block sequence.
func (p *Pipeline) Run(source string) ([]*Block, error) {
	return p.run(source, p.Loader, 0)
}

func (p *Pipeline) run(source string, loader IncludeLoader, depth int) ([]*Block, error) {
	if depth > p.MaxDepth {
		return nil, NewParseError(ErrMsgIncludeTooDeep, Position{}, KwInclude.String())
	}

	blocks, err := NewLexer(source, p.Logger).Lex()
	if err != nil {
		return nil, err
	}
	if err := Tokenize(blocks, p.Logger); err != nil {
		return nil, err
	}
	return p.preprocess(blocks, loader, depth)
}

// preprocessState tracks which span the left-to-right pass is inside.
// Comment and raw spans are mutually exclusive and do not nest.
type preprocessState int

const (
	spanNone preprocessState = iota
	spanComment
	spanRaw
)

// preprocess rewrites the block sequence: comment spans are removed
// wholesale, raw span interiors are cast to literal data, and include
// directives are expanded by splicing in the sub-template's block sequence.
// Adjacent data blocks are coalesced afterwards.
func (p *Pipeline) preprocess(blocks []*Block, loader IncludeLoader, depth int) ([]*Block, error) {
	p.Logger.Debug(LogMsgPreprocessStart,
		zap.Int(LogFieldBlocks, len(blocks)), zap.Int(LogFieldDepth, depth))

	out := make([]*Block, 0, len(blocks))
	state := spanNone
	var spanPos Position

	for _, blk := range blocks {
		kw := tagKeyword(blk)

		switch state {
		case spanComment:
			// everything inside a comment is swallowed, directives included
			if kw == KwEndComment {
				state = spanNone
			}

		case spanRaw:
			if kw == KwEndRaw {
				state = spanNone
				break
			}
			blk.CastToData()
			out = append(out, blk)

		case spanNone:
			switch kw {
			case KwComment:
				state = spanComment
				spanPos = blk.Pos
			case KwRaw:
				state = spanRaw
				spanPos = blk.Pos
			case KwInclude:
				sub, err := p.expandInclude(blk, loader, depth)
				if err != nil {
					return nil, err
				}
				out = append(out, sub...)
			default:
				out = append(out, blk)
			}
		}
	}

	switch state {
	case spanComment:
		return nil, NewParseError(ErrMsgUnterminatedComment, spanPos, KwComment.String())
	case spanRaw:
		return nil, NewParseError(ErrMsgUnterminatedRaw, spanPos, KwRaw.String())
	}

	out = coalesce(out, p.Logger)
	p.Logger.Debug(LogMsgPreprocessEnd, zap.Int(LogFieldBlocks, len(out)))
	return out, nil
}

// expandInclude loads the named sub-template, runs it through the full
// pipeline and returns its block sequence for splicing into the outer one.
func (p *Pipeline) expandInclude(blk *Block, loader IncludeLoader, depth int) ([]*Block, error) {
	if len(blk.Tag.Tokens) == 0 {
		return nil, NewParseError(ErrMsgIncludeNoOperand, blk.Pos, KwInclude.String())
	}
	name := unquoteArg(blk.Tag.Tokens[0])

	p.Logger.Debug(LogMsgIncludeExpand,
		zap.String(LogFieldFile, name), zap.Int(LogFieldDepth, depth))

	source, subLoader, err := loader(name)
	if err != nil {
		return nil, NewParseErrorCause(ErrMsgIncludeLoadFailed, blk.Pos, KwInclude.String(), err)
	}
	return p.run(source, subLoader, depth+1)
}

// coalesce merges every run of adjacent data blocks into one
func coalesce(blocks []*Block, logger *zap.Logger) []*Block {
	if len(blocks) < 2 {
		return blocks
	}
	out := blocks[:0]
	merged := 0
	for _, blk := range blocks {
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.Type == BlockData && blk.Type == BlockData {
				last.Content += blk.Content
				merged++
				continue
			}
		}
		out = append(out, blk)
	}
	if merged > 0 {
		logger.Debug(LogMsgCoalesced, zap.Int(LogFieldMerged, merged))
	}
	return out
}

// tagKeyword returns the keyword of a tokenized tag block, or KwNone
func tagKeyword(blk *Block) Keyword {
	if blk.Type == BlockTag && blk.Tag != nil {
		return blk.Tag.Keyword
	}
	return KwNone
}
