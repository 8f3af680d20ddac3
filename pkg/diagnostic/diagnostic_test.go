package diagnostic_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/mccolljr/temple/pkg/diagnostic"
	"github.com/mccolljr/temple/pkg/position"
)

func TestDefaultGenerator_Generate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []diagnostic.Diagnostic
	}{
		{
			name:     "valid template",
			template: "Hello {{ name }}!",
			want:     []diagnostic.Diagnostic{},
		},
		{
			name:     "unterminated render block",
			template: "Address:\n  Street: {{ street",
			want: []diagnostic.Diagnostic{
				{
					Message:  "malformed block: expected '}}'",
					Location: position.NewBasicPosition("{{", 19),
					Range: position.Range{
						Start: position.Place{Line: 1, Character: 10, Grapheme: 10},
						End:   position.Place{Line: 1, Character: 12, Grapheme: 12},
					},
					Line:     "  Street: {{ street",
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "stray closer after mismatched block",
			template: "{% if x }}",
			want: []diagnostic.Diagnostic{
				{
					Message:  "malformed block: expected '%}'",
					Location: position.NewBasicPosition("}}", 8),
					Range: position.Range{
						Start: position.Place{Line: 0, Character: 8, Grapheme: 8},
						End:   position.Place{Line: 0, Character: 10, Grapheme: 10},
					},
					Line:     "{% if x }}",
					Severity: diagnostic.SeverityError,
				},
			},
		},
		{
			name:     "empty render body",
			template: "a {{- }} b",
			want: []diagnostic.Diagnostic{
				{
					Message:  "empty render expression",
					Location: position.NewBasicPosition("{{-", 2),
					Range: position.Range{
						Start: position.Place{Line: 0, Character: 2, Grapheme: 2},
						End:   position.Place{Line: 0, Character: 5, Grapheme: 5},
					},
					Line:     "a {{- }} b",
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
		{
			name:     "empty control body",
			template: "{%  %}",
			want: []diagnostic.Diagnostic{
				{
					Message:  "empty control statement",
					Location: position.NewBasicPosition("{%", 0),
					Range: position.Range{
						Start: position.Place{Line: 0, Character: 0, Grapheme: 0},
						End:   position.Place{Line: 0, Character: 2, Grapheme: 2},
					},
					Line:     "{%  %}",
					Severity: diagnostic.SeverityWarning,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := diagnostic.NewDefaultGenerator()
			got, err := g.Generate(context.Background(), "test.tpl", tt.template)
			require.NoError(t, err)
			assert.Equal(t, "test.tpl", got.File)
			assert.Equal(t, tt.want, got.All())
		})
	}
}

func TestFromError(t *testing.T) {
	_, ok := diagnostic.FromError("x.tpl", "", errors.New("disk on fire"))
	assert.False(t, ok)
}

func sample(t *testing.T) []*diagnostic.Diagnostics {
	t.Helper()
	g := diagnostic.NewDefaultGenerator()
	bad, err := g.Generate(context.Background(), "bad.tpl", "one\n\ttwo {{ x")
	require.NoError(t, err)
	require.True(t, bad.HasErrors())
	good, err := g.Generate(context.Background(), "good.tpl", "fine {{ x }}")
	require.NoError(t, err)
	require.False(t, good.HasErrors())
	return []*diagnostic.Diagnostics{bad, good}
}

func TestTextFormatter(t *testing.T) {
	out, err := diagnostic.NewTextFormatter(false).Format(sample(t))
	require.NoError(t, err)

	want := "bad.tpl:2:6: error: malformed block: expected '}}'\n" +
		"\ttwo {{ x\n" +
		"\t    ^\n"
	assert.Equal(t, want, string(out))
}

func TestTextFormatter_WideCharacters(t *testing.T) {
	diags, err := diagnostic.NewDefaultGenerator().Generate(context.Background(), "wide.tpl", "日本 {{ x")
	require.NoError(t, err)

	out, err := diagnostic.NewTextFormatter(false).Format([]*diagnostic.Diagnostics{diags})
	require.NoError(t, err)

	want := "wide.tpl:1:4: error: malformed block: expected '}}'\n" +
		"日本 {{ x\n" +
		"     ^\n"
	assert.Equal(t, want, string(out))
}

func TestTextFormatter_Color(t *testing.T) {
	out, err := diagnostic.NewTextFormatter(true).Format(sample(t))
	require.NoError(t, err)
	assert.Contains(t, string(out), "\x1b[")
	assert.Contains(t, string(out), "malformed block")
}

func TestVSCodeFormatter(t *testing.T) {
	out, err := diagnostic.NewVSCodeFormatter().Format(sample(t))
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got, 1)
	assert.Equal(t, float64(1), got[0]["severity"])
	assert.Equal(t, "bad.tpl", got[0]["source"])
	assert.Equal(t, map[string]any{
		"start": map[string]any{"line": float64(1), "character": float64(5)},
		"end":   map[string]any{"line": float64(1), "character": float64(7)},
	}, got[0]["range"])

	empty, err := diagnostic.NewVSCodeFormatter().Format(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestYAMLFormatter(t *testing.T) {
	out, err := diagnostic.NewYAMLFormatter().Format(sample(t))
	require.NoError(t, err)

	var got []struct {
		File   string `yaml:"file"`
		Errors []struct {
			Message  string `yaml:"message"`
			Severity string `yaml:"severity"`
		} `yaml:"errors"`
	}
	require.NoError(t, yaml.Unmarshal(out, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "bad.tpl", got[0].File)
	require.Len(t, got[0].Errors, 1)
	assert.Equal(t, "error", got[0].Errors[0].Severity)
	assert.Empty(t, got[1].Errors)
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"text", "vscode", "json", "yaml", ""} {
		f, err := diagnostic.NewFormatter(name, false)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := diagnostic.NewFormatter("xml", false)
	assert.Error(t, err)
}
