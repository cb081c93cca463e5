// Package tags derives the start/end marker pair that bounds a template's
// region inside a target file.
//
// A template named HEADER.mimic owns the pair
//
//	<!--MIMIC_HEADER_START-->
//	<!--MIMIC_HEADER_END-->
//
// The identifier is the template's filename stem, uppercased. The wrapper
// strings are configurable through Format.
package tags

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/mimic/internal/errors"
)

const (
	// DefaultStartFormat is the start marker used when none is configured.
	DefaultStartFormat = "<!--MIMIC_%s_START-->"
	// DefaultEndFormat is the end marker used when none is configured.
	DefaultEndFormat = "<!--MIMIC_%s_END-->"

	placeholder = "%s"
)

// Pair is the start/end marker pair of one template.
type Pair struct {
	Name  string
	Start string
	End   string
}

// String returns the pair in "start ... end" form for logs.
func (p Pair) String() string {
	return p.Start + " ... " + p.End
}

// Format holds the wrapper strings a template identifier is embedded in.
// Each side must contain the identifier placeholder %s exactly once.
type Format struct {
	Start string `yaml:"start" json:"start" mapstructure:"start"`
	End   string `yaml:"end" json:"end" mapstructure:"end"`
}

// DefaultFormat returns the HTML-comment marker format.
func DefaultFormat() Format {
	return Format{Start: DefaultStartFormat, End: DefaultEndFormat}
}

// Validate checks that the format produces distinct, injective tags.
func (f Format) Validate() error {
	for side, value := range map[string]string{"tags.start": f.Start, "tags.end": f.End} {
		if strings.Count(value, placeholder) != 1 {
			return errors.ConfigurationError(side, "must contain the %s placeholder exactly once", value)
		}
		if strings.Count(value, "%") != 1 {
			return errors.ConfigurationError(side, "must not contain format verbs other than %s", value)
		}
		if strings.TrimSpace(strings.Replace(value, placeholder, "", 1)) == "" {
			return errors.ConfigurationError(side, "must contain literal text around %s", value)
		}
	}
	if f.Start == f.End {
		return errors.ConfigurationError("tags", "start and end formats must differ", f.Start)
	}
	return nil
}

// Deriver maps template identifiers to tag pairs.
type Deriver struct {
	format Format
}

// NewDeriver creates a deriver for the given format. The format is
// validated.
func NewDeriver(format Format) (*Deriver, error) {
	if format.Start == "" && format.End == "" {
		format = DefaultFormat()
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &Deriver{format: format}, nil
}

// Format returns the marker format in use.
func (d *Deriver) Format() Format {
	return d.format
}

// Derive returns the tag pair for a template identifier. The identifier
// is uppercased; an empty or blank identifier is rejected.
func (d *Deriver) Derive(identifier string) (Pair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return Pair{}, errors.InvalidTemplateName(identifier)
	}

	// Caser values carry state, so one is built per call.
	name := cases.Upper(language.Und).String(identifier)
	return Pair{
		Name:  name,
		Start: fmt.Sprintf(d.format.Start, name),
		End:   fmt.Sprintf(d.format.End, name),
	}, nil
}

// Identifier returns the template identifier for a template path: the
// base name with the template extension removed.
func Identifier(path, templateExt string) string {
	base := filepath.Base(path)
	if templateExt != "" && strings.HasSuffix(base, templateExt) {
		return strings.TrimSuffix(base, templateExt)
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
