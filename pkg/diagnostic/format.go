package diagnostic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Formatter formats diagnostics into different output formats
type Formatter interface {
	// Format formats diagnostics into a specific output format
	Format(diagnostics []*Diagnostics) ([]byte, error)
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string, colorize bool) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(colorize), nil
	case "vscode", "json":
		return NewVSCodeFormatter(), nil
	case "yaml":
		return NewYAMLFormatter(), nil
	}
	return nil, errors.Errorf("unknown diagnostic format %q", name)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

// NewVSCodeFormatter creates a new VSCodeFormatter
func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePlace struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeRange struct {
	Start vscodePlace `json:"start"`
	End   vscodePlace `json:"end"`
}

type vscodeDiagnostic struct {
	Severity int         `json:"severity"`
	Message  string      `json:"message"`
	Source   string      `json:"source"`
	Range    vscodeRange `json:"range"`
}

var vscodeSeverity = map[Severity]int{
	SeverityError:       1,
	SeverityWarning:     2,
	SeverityInformation: 3,
	SeverityHint:        4,
}

// Format implements Formatter
func (f *VSCodeFormatter) Format(diagnostics []*Diagnostics) ([]byte, error) {
	result := []vscodeDiagnostic{}

	for _, diags := range diagnostics {
		for _, d := range diags.All() {
			// positions are already zero based, which is what VSCode expects
			result = append(result, vscodeDiagnostic{
				Severity: vscodeSeverity[d.Severity],
				Message:  d.Message,
				Source:   diags.File,
				Range: vscodeRange{
					Start: vscodePlace{Line: d.Range.Start.Line, Character: d.Range.Start.Character},
					End:   vscodePlace{Line: d.Range.End.Line, Character: d.Range.End.Character},
				},
			})
		}
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Errorf("marshaling diagnostics: %w", err)
	}
	return out, nil
}

// YAMLFormatter writes the diagnostics as a YAML document
type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format implements Formatter
func (f *YAMLFormatter) Format(diagnostics []*Diagnostics) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(diagnostics); err != nil {
		return nil, errors.Errorf("encoding diagnostics: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Errorf("closing yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// TextFormatter writes compiler style messages with the offending source line
//
//	page.tpl:3:9: error: malformed block: expected '}}'
//	  Street: {{ .Address.Street
//	          ^
type TextFormatter struct {
	colorize bool
}

func NewTextFormatter(colorize bool) *TextFormatter {
	return &TextFormatter{colorize: colorize}
}

func (f *TextFormatter) paint(s string, attrs ...color.Attribute) string {
	if !f.colorize {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

var severityColor = map[Severity]color.Attribute{
	SeverityError:       color.FgRed,
	SeverityWarning:     color.FgYellow,
	SeverityInformation: color.FgCyan,
	SeverityHint:        color.FgBlue,
}

// Format implements Formatter
func (f *TextFormatter) Format(diagnostics []*Diagnostics) ([]byte, error) {
	var sb strings.Builder

	for _, diags := range diagnostics {
		for _, d := range diags.All() {
			// lines and columns are shown one based
			loc := fmt.Sprintf("%s:%d:%d:", diags.File, d.Range.Start.Line+1, d.Range.Start.Grapheme+1)
			fmt.Fprintf(&sb, "%s %s %s\n",
				f.paint(loc, color.Bold),
				f.paint(string(d.Severity)+":", severityColor[d.Severity], color.Bold),
				d.Message)

			if d.Line != "" {
				fmt.Fprintf(&sb, "%s\n", d.Line)
				fmt.Fprintf(&sb, "%s%s\n", caretPadding(d.Line, d.Range.Start.Character), f.paint("^", color.FgGreen, color.Bold))
			}
		}
	}

	return []byte(sb.String()), nil
}

// caretPadding keeps tabs and pads by display width so the caret lines up with the
// source line, also under wide or combining characters.
func caretPadding(line string, col int) string {
	if col > len(line) {
		col = len(line)
	}
	var sb strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			sb.WriteRune('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
