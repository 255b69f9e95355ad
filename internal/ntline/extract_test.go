package ntline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStrict(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Triple
		wantErr  error
		position Position
		text     string
	}{
		{
			name:     "simple triple",
			line:     "<a> <b> <c> .",
			expected: Triple{Subject: "<a>", Predicate: "<b>", Object: "<c>"},
		},
		{
			name: "full IRIs",
			line: "<http://example.org/s> <http://xmlns.com/foaf/0.1/knows> <http://example.org/o> .",
			expected: Triple{
				Subject:   "<http://example.org/s>",
				Predicate: "<http://xmlns.com/foaf/0.1/knows>",
				Object:    "<http://example.org/o>",
			},
		},
		{
			name:     "trailing content before terminator",
			line:     "<a> <b> <c> extra .",
			wantErr:  ErrUnexpectedLineSuffix,
			position: PositionTerminator,
			text:     "extra .",
		},
		{
			name:     "terminator missing",
			line:     "<a> <b> <c> ",
			wantErr:  ErrUnexpectedLineSuffix,
			position: PositionTerminator,
			text:     "",
		},
		{
			name:     "terminator glued to object",
			line:     "<a> <b> <c>.",
			wantErr:  ErrMissingSeparator,
			position: PositionTerminator,
			text:     "<c>.",
		},
		{
			name:     "subject without brackets",
			line:     "a <b> <c> .",
			wantErr:  ErrMalformedToken,
			position: PositionSubject,
			text:     "a",
		},
		{
			name:     "literal object",
			line:     `<a> <b> "c" .`,
			wantErr:  ErrMalformedToken,
			position: PositionObject,
			text:     `"c"`,
		},
		{
			name:     "lone bracket",
			line:     "< <b> <c> .",
			wantErr:  ErrMalformedToken,
			position: PositionSubject,
			text:     "<",
		},
		{
			name:     "two tokens only",
			line:     "<a> <b>",
			wantErr:  ErrMissingSeparator,
			position: PositionObject,
			text:     "<b>",
		},
		{
			name:     "empty line",
			line:     "",
			wantErr:  ErrMissingSeparator,
			position: PositionPredicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triple, err := Extract(tt.line, ModeStrict)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var syntaxErr *SyntaxError
				require.True(t, errors.As(err, &syntaxErr))
				assert.Equal(t, tt.position, syntaxErr.Position)
				assert.Equal(t, tt.text, syntaxErr.Text)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, triple)
		})
	}
}

func TestExtractPermissive(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Triple
		wantErr  bool
	}{
		{
			name:     "terminator discarded",
			line:     "<a> <b> <c> .",
			expected: Triple{Subject: "<a>", Predicate: "<b>", Object: "<c>"},
		},
		{
			name:     "any token shape",
			line:     `_:b1 p "literal" .`,
			expected: Triple{Subject: "_:b1", Predicate: "p", Object: `"literal"`},
		},
		{
			name:     "everything after third space dropped",
			line:     "s p o extra tokens here .",
			expected: Triple{Subject: "s", Predicate: "p", Object: "o"},
		},
		{
			name:     "object runs to end of line",
			line:     "s p o",
			expected: Triple{Subject: "s", Predicate: "p", Object: "o"},
		},
		{
			name:    "two segments",
			line:    "<a> <b>",
			wantErr: true,
		},
		{
			name:    "single segment",
			line:    "<a>",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			triple, err := Extract(tt.line, ModePermissive)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMissingSeparator)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, triple)
		})
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	_, err := Extract("a <b> <c> .", ModeStrict)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
	assert.Contains(t, err.Error(), "subject")
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("Permissive")
	require.NoError(t, err)
	assert.Equal(t, ModePermissive, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, mode)

	_, err = ParseMode("lenient")
	assert.Error(t, err)
}

func TestIsIgnorable(t *testing.T) {
	assert.True(t, IsIgnorable(""))
	assert.True(t, IsIgnorable("   "))
	assert.True(t, IsIgnorable("# comment"))
	assert.True(t, IsIgnorable("  # indented comment"))
	assert.False(t, IsIgnorable("<a> <b> <c> ."))
}
