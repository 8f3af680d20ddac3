package generate_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/config"
	"github.com/mccolljr/temple/pkg/diff"
	"github.com/mccolljr/temple/pkg/generate"
	"github.com/mccolljr/temple/pkg/parser"
)

const pageTemplate = "Hello {{ me.Name }}!\n{% for _, item := range me.Items { %}- {{ item }}\n{% } %}"

const pageGenerated = `// Code generated by temple. DO NOT EDIT.
// source: page.tpl

package views

import (
	"io"

	"github.com/mccolljr/temple"
)

const templeDataPage = "Hello {{ me.Name }}!\n{% for _, item := range me.Items { %}- {{ item }}\n{% } %}"

// TemplatePath returns the path of the template Page was generated from.
func (me *Page) TemplatePath() string {
	return "page.tpl"
}

// TemplateData returns the template source.
func (me *Page) TemplateData() string {
	return templeDataPage
}

// Render writes the template to w.
func (me *Page) Render(w io.Writer) error {
	if _, err := io.WriteString(w, "Hello "); err != nil {
		return err
	}
	if err := temple.Render(w, me.Name); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "!\n"); err != nil {
		return err
	}
	for _, item := range me.Items {
		if _, err := io.WriteString(w, "- "); err != nil {
			return err
		}
		if err := temple.Render(w, item); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
`

func pageOptions() generate.Options {
	return generate.Options{
		Package:      "views",
		Type:         "Page",
		Receiver:     "me",
		TemplatePath: "page.tpl",
		Source:       pageTemplate,
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	nodes, err := parser.Parse(ctx, pageTemplate)
	require.NoError(t, err)

	got, err := generate.Generate(ctx, nodes, pageOptions())
	require.NoError(t, err)
	assert.Equal(t, pageGenerated, string(got), diff.Text(pageGenerated, string(got)))
}

func TestGenerate_ContentOnly(t *testing.T) {
	opts := pageOptions()
	opts.Source = "static"

	got, err := generate.Generate(context.Background(), parser.Nodes{parser.Content("static")}, opts)
	require.NoError(t, err)
	assert.Contains(t, string(got), "import \"io\"\n")
	assert.NotContains(t, string(got), generate.RuntimeImport)
	assert.Contains(t, string(got), `io.WriteString(w, "static")`)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		nodes   parser.Nodes
		mutate  func(*generate.Options)
		wantErr string
	}{
		{
			name:    "invalid type name",
			nodes:   parser.Nodes{parser.Content("x")},
			mutate:  func(o *generate.Options) { o.Type = "my-page" },
			wantErr: `type "my-page" is not a valid Go identifier`,
		},
		{
			name:    "missing package",
			nodes:   parser.Nodes{parser.Content("x")},
			mutate:  func(o *generate.Options) { o.Package = "" },
			wantErr: `package "" is not a valid Go identifier`,
		},
		{
			name:    "empty render expression",
			nodes:   parser.Nodes{parser.Render("")},
			wantErr: "node 0: empty render expression",
		},
		{
			name:    "control statement that is not go",
			nodes:   parser.Nodes{parser.Control("if")},
			wantErr: "formatting generated code for page.tpl",
		},
		{
			name:    "unbalanced control flow",
			nodes:   parser.Nodes{parser.Control("if me.Show {")},
			wantErr: "formatting generated code for page.tpl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pageOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}
			got, err := generate.Generate(context.Background(), tt.nodes, opts)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func testProject(t *testing.T, files map[string]string) (afero.Fs, *config.Config) {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	cfg, err := config.Load(fs, "/proj/.temple.hcl")
	require.NoError(t, err)
	return fs, cfg
}

const projectConfig = `
package = "views"

template "page" {
  path = "page.tpl"
  type = "Page"
}
`

func TestGenerateFile(t *testing.T) {
	fs, cfg := testProject(t, map[string]string{
		"/proj/.temple.hcl": projectConfig,
		"/proj/page.tpl":    pageTemplate,
	})
	tmpl, ok := cfg.Lookup("page")
	require.True(t, ok)

	file, err := generate.GenerateFile(context.Background(), fs, cfg, tmpl)
	require.NoError(t, err)
	assert.Equal(t, "/proj/page.temple.go", file.Path)

	written, err := afero.ReadFile(fs, "/proj/page.temple.go")
	require.NoError(t, err)
	assert.Equal(t, pageGenerated, string(written), diff.Text(pageGenerated, string(written)))
}

func TestBuildFile_DoesNotWrite(t *testing.T) {
	fs, cfg := testProject(t, map[string]string{
		"/proj/.temple.hcl": projectConfig,
		"/proj/page.tpl":    pageTemplate,
	})
	tmpl, _ := cfg.Lookup("page")

	file, err := generate.BuildFile(context.Background(), fs, cfg, tmpl)
	require.NoError(t, err)
	assert.NotEmpty(t, file.Content)

	exists, err := afero.Exists(fs, file.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateFile_Errors(t *testing.T) {
	t.Run("missing template file", func(t *testing.T) {
		fs, cfg := testProject(t, map[string]string{"/proj/.temple.hcl": projectConfig})
		tmpl, _ := cfg.Lookup("page")

		_, err := generate.GenerateFile(context.Background(), fs, cfg, tmpl)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `template "page"`)
	})

	t.Run("malformed template", func(t *testing.T) {
		fs, cfg := testProject(t, map[string]string{
			"/proj/.temple.hcl": projectConfig,
			"/proj/page.tpl":    "Hello {{ me.Name",
		})
		tmpl, _ := cfg.Lookup("page")

		_, err := generate.GenerateFile(context.Background(), fs, cfg, tmpl)
		require.Error(t, err)
		assert.True(t, errors.Is(err, parser.ErrMalformedBlock))
		assert.Contains(t, err.Error(), "page.tpl")

		exists, _ := afero.Exists(fs, "/proj/page.temple.go")
		assert.False(t, exists)
	})
}
