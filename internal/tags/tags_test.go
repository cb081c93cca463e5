package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/mimic/internal/errors"
)

func TestDerive(t *testing.T) {
	deriver, err := NewDeriver(DefaultFormat())
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		start      string
		end        string
	}{
		{"uppercase", "HEADER", "<!--MIMIC_HEADER_START-->", "<!--MIMIC_HEADER_END-->"},
		{"lowercase is uppercased", "header", "<!--MIMIC_HEADER_START-->", "<!--MIMIC_HEADER_END-->"},
		{"hyphenated", "grey-fox", "<!--MIMIC_GREY-FOX_START-->", "<!--MIMIC_GREY-FOX_END-->"},
		{"surrounding space trimmed", "  readme ", "<!--MIMIC_README_START-->", "<!--MIMIC_README_END-->"},
		{"unicode", "straße", "<!--MIMIC_STRASSE_START-->", "<!--MIMIC_STRASSE_END-->"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := deriver.Derive(tt.identifier)
			require.NoError(t, err)
			assert.Equal(t, tt.start, pair.Start)
			assert.Equal(t, tt.end, pair.End)
		})
	}
}

func TestDeriveRejectsEmptyIdentifier(t *testing.T) {
	deriver, err := NewDeriver(DefaultFormat())
	require.NoError(t, err)

	for _, identifier := range []string{"", "   "} {
		_, err := deriver.Derive(identifier)
		require.Error(t, err)
		assert.True(t, errors.HasErrorCode(err, errors.ErrCodeInvalidTemplateName))
	}
}

func TestDeriveDistinctIdentifiers(t *testing.T) {
	deriver, err := NewDeriver(DefaultFormat())
	require.NoError(t, err)

	a, err := deriver.Derive("A")
	require.NoError(t, err)
	ab, err := deriver.Derive("A_B")
	require.NoError(t, err)

	assert.NotEqual(t, a.Start, ab.Start)
	assert.NotEqual(t, a.End, ab.End)
	assert.NotEqual(t, a.Start, a.End)
}

func TestCustomFormat(t *testing.T) {
	deriver, err := NewDeriver(Format{Start: "# BEGIN %s", End: "# END %s"})
	require.NoError(t, err)

	pair, err := deriver.Derive("license")
	require.NoError(t, err)
	assert.Equal(t, "# BEGIN LICENSE", pair.Start)
	assert.Equal(t, "# END LICENSE", pair.End)
	assert.Equal(t, "LICENSE", pair.Name)
}

func TestNewDeriverEmptyFormatUsesDefault(t *testing.T) {
	deriver, err := NewDeriver(Format{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFormat(), deriver.Format())
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name        string
		format      Format
		expectError bool
	}{
		{"default", DefaultFormat(), false},
		{"missing placeholder", Format{Start: "<!--START-->", End: "<!--%s_END-->"}, true},
		{"double placeholder", Format{Start: "%s%s", End: "<!--%s_END-->"}, true},
		{"extra verb", Format{Start: "<!--%d %s-->", End: "<!--%s_END-->"}, true},
		{"only placeholder", Format{Start: "%s", End: "<!--%s_END-->"}, true},
		{"identical sides", Format{Start: "<!--%s-->", End: "<!--%s-->"}, true},
		{"missing end", Format{Start: "<!--%s_START-->"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.HasErrorType(err, errors.ErrorTypeConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		path     string
		ext      string
		expected string
	}{
		{"templates/HEADER.mimic", ".mimic", "HEADER"},
		{"templates/grey-fox.mimic", ".mimic", "grey-fox"},
		{"templates/notes.v2.mimic", ".mimic", "notes.v2"},
		{"templates/footer.txt", ".mimic", "footer"},
		{"footer", "", "footer"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, Identifier(tt.path, tt.ext))
		})
	}
}

func TestPairString(t *testing.T) {
	pair := Pair{Name: "X", Start: "<a>", End: "</a>"}
	assert.Equal(t, "<a> ... </a>", pair.String())
}
