package diagnostic

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/lexer"
	"github.com/mccolljr/temple/pkg/parser"
	"github.com/mccolljr/temple/pkg/position"
)

// Generator is responsible for generating diagnostics for a template
type Generator interface {
	// Generate parses src and reports everything wrong with it
	Generate(ctx context.Context, file string, src string) (*Diagnostics, error)
}

// Diagnostics holds the findings for a single template file
type Diagnostics struct {
	File     string       `json:"file" yaml:"file"`
	Errors   []Diagnostic `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings []Diagnostic `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Hints    []Diagnostic `json:"hints,omitempty" yaml:"hints,omitempty"`
}

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Message  string               `json:"message" yaml:"message"`
	Location position.RawPosition `json:"-" yaml:"-"`
	Range    position.Range       `json:"range" yaml:"range"`
	// Line is the source line the diagnostic starts on
	Line     string   `json:"-" yaml:"-"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "info"
	SeverityHint        Severity = "hint"
)

// HasErrors reports whether any error level diagnostic was found
func (d *Diagnostics) HasErrors() bool {
	return d != nil && len(d.Errors) > 0
}

// All returns every diagnostic, most severe first
func (d *Diagnostics) All() []Diagnostic {
	if d == nil {
		return nil
	}
	all := make([]Diagnostic, 0, len(d.Errors)+len(d.Warnings)+len(d.Hints))
	all = append(all, d.Errors...)
	all = append(all, d.Warnings...)
	all = append(all, d.Hints...)
	return all
}

func (d *Diagnostics) add(diag Diagnostic) {
	switch diag.Severity {
	case SeverityError:
		d.Errors = append(d.Errors, diag)
	case SeverityWarning:
		d.Warnings = append(d.Warnings, diag)
	default:
		d.Hints = append(d.Hints, diag)
	}
}

// New builds a diagnostic for the text at offset in src
func New(src string, offset int, text string, message string, severity Severity) Diagnostic {
	loc := position.NewBasicPosition(text, offset)
	return Diagnostic{
		Message:  message,
		Location: loc,
		Range:    loc.GetRange(src),
		Line:     loc.LineText(src),
		Severity: severity,
	}
}

// FromError converts a structural template error into diagnostics. It returns
// false when err is not a template error, e.g. an I/O failure.
func FromError(file, src string, err error) (*Diagnostics, bool) {
	perr, ok := parser.AsError(err)
	if !ok {
		return nil, false
	}

	diags := &Diagnostics{File: file}
	diags.add(New(src, perr.Offset, tokenTextAt(src, perr.Offset), perr.Error(), SeverityError))
	return diags, true
}

// DefaultGenerator is the default implementation of Generator
type DefaultGenerator struct{}

// NewDefaultGenerator creates a new DefaultGenerator
func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{}
}

// Generate implements Generator
func (g *DefaultGenerator) Generate(ctx context.Context, file string, src string) (*Diagnostics, error) {
	if _, err := parser.Parse(ctx, src); err != nil {
		diags, ok := FromError(file, src, err)
		if !ok {
			return nil, errors.Errorf("parsing %s: %w", file, err)
		}
		return diags, nil
	}

	diags := &Diagnostics{File: file}

	// blocks with a blank body parse fine but give the generator nothing to emit
	toks := lexer.Tokenize(src)
	for i, tok := range toks {
		if !tok.Kind.IsOpen() || i+1 >= len(toks) {
			continue
		}
		body := toks[i+1]
		if body.Kind == lexer.KindLiteral && body.Text == "" {
			what := "render expression"
			if tok.Kind == lexer.KindOpenControl {
				what = "control statement"
			}
			diags.add(New(src, tok.Offset, tok.Delimiter(), "empty "+what, SeverityWarning))
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", file).
		Int("errors", len(diags.Errors)).
		Int("warnings", len(diags.Warnings)).
		Msg("generated diagnostics")

	return diags, nil
}

var delimiters = []string{"{{-", "{%-", "-}}", "-%}", "{{", "{%", "}}", "%}"}

// tokenTextAt returns the delimiter starting at offset, or the single character there.
func tokenTextAt(src string, offset int) string {
	if offset < 0 || offset >= len(src) {
		return ""
	}
	rest := src[offset:]
	for _, d := range delimiters {
		if strings.HasPrefix(rest, d) {
			return d
		}
	}
	_, w := utf8.DecodeRuneInString(rest)
	return rest[:w]
}
