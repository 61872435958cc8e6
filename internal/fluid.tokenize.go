package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Tokenize converts every Tag and Object block's directive body into its
// structured token form. Data blocks are left untouched.
func Tokenize(blocks []*Block, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgTokenizeStart, zap.Int(LogFieldBlocks, len(blocks)))

	for _, blk := range blocks {
		switch blk.Type {
		case BlockTag:
			if err := tokenizeTag(blk); err != nil {
				return err
			}
		case BlockObject:
			if err := tokenizeObject(blk); err != nil {
				return err
			}
		}
	}

	logger.Debug(LogMsgTokenizeEnd)
	return nil
}

// tokenizeTag parses a tag body: keyword, operand words, and at most one
// trailing filter after the first single pipe. A doubled pipe is the
// logical-or operator and stays among the operands.
func tokenizeTag(blk *Block) error {
	body, err := directiveBody(blk)
	if err != nil {
		return err
	}

	word, rest := cutWord(body)
	if word == StrEmpty {
		return NewLexError(ErrMsgEmptyTag, blk.Pos)
	}

	kw := LookupKeyword(word)
	if kw == KwNone {
		return NewLexError(ErrMsgUnknownKeyword, blk.Pos)
	}

	tok := &TagToken{Keyword: kw}
	operands, filterPart, hasFilter := rest, StrEmpty, false
	for i := 0; i < len(rest); i++ {
		if rest[i] != CharPipe {
			continue
		}
		if i+1 < len(rest) && rest[i+1] == CharPipe {
			i++ // "||" is an operator, not a filter pipe
			continue
		}
		operands, filterPart, hasFilter = rest[:i], rest[i+1:], true
		break
	}
	if hasFilter {
		f, err := ParseFilter(strings.TrimSpace(filterPart), blk.Pos)
		if err != nil {
			return err
		}
		tok.Filter = f
	}
	if fields := strings.Fields(operands); len(fields) > 0 {
		tok.Tokens = fields
	}
	blk.Tag = tok
	return nil
}

// tokenizeObject parses an object body: identifier plus a pipeline of
// zero or more filters.
func tokenizeObject(blk *Block) error {
	body, err := directiveBody(blk)
	if err != nil {
		return err
	}

	ident, rest := cutWord(body)
	if ident == StrEmpty {
		return NewLexError(ErrMsgEmptyObject, blk.Pos)
	}

	tok := &ObjectToken{Identifier: ident}
	rest = strings.TrimSpace(rest)
	if rest != StrEmpty {
		if rest[0] != CharPipe {
			return NewLexError(ErrMsgFilterTrailing, blk.Pos)
		}
		for _, segment := range strings.Split(rest[1:], StrPipe) {
			f, err := ParseFilter(strings.TrimSpace(segment), blk.Pos)
			if err != nil {
				return err
			}
			tok.Filters = append(tok.Filters, *f)
		}
	}
	blk.Object = tok
	return nil
}

// directiveBody strips delimiters, enforces the body size bound and trims
// surrounding whitespace.
func directiveBody(blk *Block) (string, error) {
	body := blk.Body()
	if len(body) > MaxDirectiveBody {
		return StrEmpty, NewLexError(ErrMsgBlockTooLarge, blk.Pos)
	}
	return strings.TrimSpace(body), nil
}

// cutWord splits off the leading whitespace-delimited word
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t\r\n")
	if i < 0 {
		return s, StrEmpty
	}
	return s[:i], s[i+1:]
}
