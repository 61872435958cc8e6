package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		wantID   FilterID
		wantArgs [MaxFilterArgs]string
		wantErr  string
	}{
		{name: "arity zero", segment: "strip", wantID: FilterStrip},
		{name: "arity zero padded", segment: "  upcase  ", wantID: FilterUpcase},
		{name: "arity one", segment: "append:!", wantID: FilterAppend, wantArgs: [MaxFilterArgs]string{"!", ""}},
		{name: "arity one trims args", segment: "truncate: 5", wantID: FilterTruncate, wantArgs: [MaxFilterArgs]string{"5", ""}},
		{name: "arity two", segment: "replace:a,b", wantID: FilterReplace, wantArgs: [MaxFilterArgs]string{"a", "b"}},
		{name: "arity two quoted", segment: `replace:"x y",z`, wantID: FilterReplace, wantArgs: [MaxFilterArgs]string{`"x y"`, "z"}},

		{name: "unknown filter", segment: "nope", wantErr: ErrMsgUnknownFilter},
		{name: "empty segment", segment: "", wantErr: ErrMsgUnknownFilter},
		{name: "args on arity zero", segment: "strip:x", wantErr: ErrMsgFilterArity},
		{name: "missing colon on arity one", segment: "append", wantErr: ErrMsgFilterArity},
		{name: "too few args", segment: "replace:a", wantErr: ErrMsgFilterArity},
		{name: "too many args", segment: "append:a,b", wantErr: ErrMsgFilterArity},
		{name: "over-long argument", segment: "append:" + strings.Repeat("x", MaxFilterArgLen+1), wantErr: ErrMsgFilterArgTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.segment, Position{})
			if tt.wantErr != "" {
				require.Error(t, err)
				var lexErr *LexError
				require.ErrorAs(t, err, &lexErr)
				assert.Equal(t, tt.wantErr, lexErr.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, f.ID)
			assert.Equal(t, tt.wantArgs, f.Args)
		})
	}
}

func TestFilterArity(t *testing.T) {
	assert.Equal(t, 0, FilterStrip.Arity())
	assert.Equal(t, 0, FilterDowncase.Arity())
	assert.Equal(t, 1, FilterAppend.Arity())
	assert.Equal(t, 1, FilterTruncate.Arity())
	assert.Equal(t, 2, FilterReplace.Arity())
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		input  string
		want   string
	}{
		{"strip", Filter{ID: FilterStrip}, "  x  ", "x"},
		{"lstrip", Filter{ID: FilterLstrip}, "  x  ", "x  "},
		{"rstrip", Filter{ID: FilterRstrip}, "  x  ", "  x"},
		{"upcase", Filter{ID: FilterUpcase}, "abC", "ABC"},
		{"downcase", Filter{ID: FilterDowncase}, "AbC", "abc"},
		{"capitalize", Filter{ID: FilterCapitalize}, "hello there", "Hello there"},
		{"capitalize empty", Filter{ID: FilterCapitalize}, "", ""},
		{"append", Filter{ID: FilterAppend, Args: [MaxFilterArgs]string{"!", ""}}, "hi", "hi!"},
		{"append quoted space", Filter{ID: FilterAppend, Args: [MaxFilterArgs]string{`" there"`, ""}}, "hi", "hi there"},
		{"prepend", Filter{ID: FilterPrepend, Args: [MaxFilterArgs]string{">", ""}}, "x", ">x"},
		{"remove", Filter{ID: FilterRemove, Args: [MaxFilterArgs]string{"l", ""}}, "hello", "heo"},
		{"truncate", Filter{ID: FilterTruncate, Args: [MaxFilterArgs]string{"3", ""}}, "hello", "hel"},
		{"truncate short input", Filter{ID: FilterTruncate, Args: [MaxFilterArgs]string{"10", ""}}, "hi", "hi"},
		{"replace", Filter{ID: FilterReplace, Args: [MaxFilterArgs]string{"a", "o"}}, "banana", "bonono"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.Apply(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterApply_BadTruncateCount(t *testing.T) {
	f := Filter{ID: FilterTruncate, Args: [MaxFilterArgs]string{"x", ""}}
	_, err := f.Apply("hello")
	require.Error(t, err)
}
