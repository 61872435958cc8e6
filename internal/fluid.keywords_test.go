package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		word string
		want Keyword
	}{
		{"assign", KwAssign},
		{"break", KwBreak},
		{"capture", KwCapture},
		{"case", KwCase},
		{"when", KwWhen},
		{"comment", KwComment},
		{"continue", KwContinue},
		{"decrement", KwDecrement},
		{"for", KwFor},
		{"if", KwIf},
		{"elsif", KwElsif},
		{"else", KwElse},
		{"increment", KwIncrement},
		{"include", KwInclude},
		{"raw", KwRaw},
		{"unless", KwUnless},

		{"endif", KwEndIf},
		{"endcapture", KwEndCapture},
		{"endcase", KwEndCase},
		{"endcomment", KwEndComment},
		{"endfor", KwEndFor},
		{"endraw", KwEndRaw},
		{"endunless", KwEndUnless},

		{"", KwNone},
		{"nope", KwNone},
		{"end", KwNone},
		{"endnope", KwNone},
		// end* of a keyword that opens no block
		{"endassign", KwNone},
		{"endbreak", KwNone},
		// keywords resolve exactly, not by prefix
		{"assignment", KwNone},
		{"iffy", KwNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LookupKeyword(tt.word), "word %q", tt.word)
	}
}

func TestKeywordAttributes(t *testing.T) {
	assert.True(t, KwAssign.IsBare())
	assert.True(t, KwInclude.IsBare())
	assert.False(t, KwIf.IsBare())

	assert.True(t, KwBreak.IsLone())
	assert.True(t, KwBreak.IsEnclosed())
	assert.True(t, KwWhen.IsEnclosed())
	assert.False(t, KwWhen.IsLone())

	assert.True(t, KwEndIf.IsEndTag())
	assert.False(t, KwIf.IsEndTag())
}

func TestBlockRegistry(t *testing.T) {
	assert.Equal(t, KwEndFor, EndTagFor(KwFor))
	assert.Equal(t, KwNone, EndTagFor(KwAssign))
	assert.Equal(t, KwCase, StartTagFor(KwEndCase))
	assert.Equal(t, KwNone, StartTagFor(KwCase))

	assert.True(t, IsBlockBegin(KwIf))
	assert.True(t, IsBlockBegin(KwRaw))
	assert.False(t, IsBlockBegin(KwBreak))
	assert.True(t, IsBlockEnd(KwEndUnless))
	assert.False(t, IsBlockEnd(KwUnless))

	assert.Equal(t, BlkIf, BlockKindOf(KwIf))
	assert.Equal(t, BlkIf, BlockKindOf(KwEndIf))
	assert.Equal(t, BlkNone, BlockKindOf(KwAssign))
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name   string
		parent BlockKind
		kw     Keyword
		want   bool
	}{
		{"opener at top level", BlkNone, KwIf, true},
		{"bare at top level", BlkNone, KwAssign, true},
		{"else at top level", BlkNone, KwElse, false},
		{"break at top level", BlkNone, KwBreak, false},

		{"elsif inside if", BlkIf, KwElsif, true},
		{"else inside if", BlkIf, KwElse, true},
		{"when inside if", BlkIf, KwWhen, false},

		{"when inside case", BlkCase, KwWhen, true},
		{"else inside case", BlkCase, KwElse, true},
		{"elsif inside case", BlkCase, KwElsif, false},

		{"else inside for", BlkFor, KwElse, true},
		{"break inside for", BlkFor, KwBreak, true},
		{"continue inside for", BlkFor, KwContinue, true},
		{"break inside if", BlkIf, KwBreak, false},

		{"nested opener anywhere", BlkFor, KwIf, true},
		{"bare inside capture", BlkCapture, KwAssign, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.parent, tt.kw))
		})
	}
}

func TestLookupOperator(t *testing.T) {
	tests := []struct {
		word string
		want Operator
	}{
		{"==", OpEquals},
		{"!=", OpNotEqual},
		{"<", OpLess},
		{"<=", OpLessEqual},
		{">", OpGreater},
		{">=", OpGreaterEqual},
		{"&&", OpLogicAnd},
		{"||", OpLogicOr},
		{"contains", OpContains},
		{"=", OpNone},
		{"in", OpNone},
		{"", OpNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LookupOperator(tt.word), "word %q", tt.word)
	}
}
