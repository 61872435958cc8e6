package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexer_Lex_Blocks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		types    []BlockType
		contents []string
	}{
		{
			name:     "empty input",
			input:    "",
			types:    nil,
			contents: nil,
		},
		{
			name:     "plain text only",
			input:    "no directives at all",
			types:    []BlockType{BlockData},
			contents: []string{"no directives at all"},
		},
		{
			name:     "object between text",
			input:    "Hello {{ name }}!",
			types:    []BlockType{BlockData, BlockObject, BlockData},
			contents: []string{"Hello ", "{{ name }}", "!"},
		},
		{
			name:     "tag between text",
			input:    "a{% assign x = 1 %}b",
			types:    []BlockType{BlockData, BlockTag, BlockData},
			contents: []string{"a", "{% assign x = 1 %}", "b"},
		},
		{
			name:     "leading directive has no empty data block",
			input:    "{{ x }}tail",
			types:    []BlockType{BlockObject, BlockData},
			contents: []string{"{{ x }}", "tail"},
		},
		{
			name:     "trailing directive has no empty data block",
			input:    "head{% break %}",
			types:    []BlockType{BlockData, BlockTag},
			contents: []string{"head", "{% break %}"},
		},
		{
			name:     "adjacent directives",
			input:    "{{ a }}{% if a %}{{ b }}{% endif %}",
			types:    []BlockType{BlockObject, BlockTag, BlockObject, BlockTag},
			contents: []string{"{{ a }}", "{% if a %}", "{{ b }}", "{% endif %}"},
		},
		{
			name:     "multiline tag body",
			input:    "x{% assign a\n= 2 %}y",
			types:    []BlockType{BlockData, BlockTag, BlockData},
			contents: []string{"x", "{% assign a\n= 2 %}", "y"},
		},
		{
			name:     "lone closing braces stay data",
			input:    "a } b %} c",
			types:    []BlockType{BlockData},
			contents: []string{"a } b %} c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := NewLexer(tt.input, zap.NewNop()).Lex()
			require.NoError(t, err)

			require.Len(t, blocks, len(tt.types))
			for i, blk := range blocks {
				assert.Equal(t, tt.types[i], blk.Type, "block %d type", i)
				assert.Equal(t, tt.contents[i], blk.Content, "block %d content", i)
			}
		})
	}
}

func TestLexer_Lex_ContentConcatenationInvariant(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"Hello {{ name }}!",
		"{% if a == 1 %}X{% else %}Y{% endif %}",
		"{% for i in items %}[{{i}}]{% endfor %}",
		"a{% raw %}b{{x}}c{% endraw %}d",
		"{{a}}{{b}}{{c}}",
		"trailing text after {% break %} and more",
		"newlines\nare\npreserved {{ x }}\n",
	}

	for _, input := range inputs {
		blocks, err := NewLexer(input, zap.NewNop()).Lex()
		require.NoError(t, err, "input %q", input)

		var sb strings.Builder
		for _, blk := range blocks {
			sb.WriteString(blk.Content)
		}
		assert.Equal(t, input, sb.String(), "concatenated blocks must reproduce input")
	}
}

func TestLexer_Lex_DelimiterInvariant(t *testing.T) {
	input := "a{% if x %}b{{ y }}c{% endif %}"
	blocks, err := NewLexer(input, zap.NewNop()).Lex()
	require.NoError(t, err)

	for _, blk := range blocks {
		switch blk.Type {
		case BlockTag:
			assert.True(t, strings.HasPrefix(blk.Content, StrTagOpen))
			assert.True(t, strings.HasSuffix(blk.Content, StrTagClose))
		case BlockObject:
			assert.True(t, strings.HasPrefix(blk.Content, StrObjectOpen))
			assert.True(t, strings.HasSuffix(blk.Content, StrObjectClose))
		case BlockData:
			assert.NotEmpty(t, blk.Content)
		}
	}
}

func TestLexer_Lex_Unterminated(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"open tag at end", "text {% if a"},
		{"open object at end", "text {{ name"},
		{"tag closed by single percent", "{% assign x = 1 %"},
		{"object closed by single brace", "{{ name }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLexer(tt.input, zap.NewNop()).Lex()
			require.Error(t, err)

			var lexErr *LexError
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, ErrMsgUnterminatedDirective, lexErr.Message)
		})
	}
}

func TestLexer_Lex_Positions(t *testing.T) {
	blocks, err := NewLexer("ab\ncd{{ x }}", zap.NewNop()).Lex()
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, blocks[0].Pos)
	assert.Equal(t, Position{Offset: 5, Line: 2, Column: 3}, blocks[1].Pos)
}
