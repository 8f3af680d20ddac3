package check

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/diagnostic"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, file string, src string) (*diagnostic.Diagnostics, error) {
	args := m.Called(ctx, file, src)
	diags, _ := args.Get(0).(*diagnostic.Diagnostics)
	return diags, args.Error(1)
}

func testFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestHandler_Run(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		format      string
		concurrency int
		want        string
		wantErr     error
	}{
		{
			name: "all good",
			files: map[string]string{
				"/proj/a.tpl":      "{{ a }}",
				"/proj/sub/b.tpl":  "{% if b %}b{% end %}",
				"/proj/readme.txt": "{{ not a template",
			},
			format: "text",
			want:   "",
		},
		{
			name: "one malformed",
			files: map[string]string{
				"/proj/a.tpl":     "{{ a }}",
				"/proj/sub/b.tpl": "x }}",
				"/proj/c.temple":  "line\n{{ c",
			},
			format:      "text",
			concurrency: 1,
			want:        "c.temple:2:1: error: malformed block: expected '}}'\n{{ c\n^\n",
			wantErr:     ErrMalformedTemplates,
		},
		{
			name: "config excludes",
			files: map[string]string{
				"/proj/.temple.yaml":      "exclude: [\"vendor/**\"]\n",
				"/proj/a.tpl":             "{{ a }}",
				"/proj/vendor/broken.tpl": "{{",
			},
			format: "text",
			want:   "",
		},
		{
			name: "config includes",
			files: map[string]string{
				"/proj/.temple.hcl": `include = ["**/*.html"]`,
				"/proj/a.tpl":       "{{",
				"/proj/b.html":      "{% x }}",
			},
			format:  "text",
			want:    "b.html:1:6: error: malformed block: expected '%}'\n{% x }}\n     ^\n",
			wantErr: ErrMalformedTemplates,
		},
		{
			name: "warnings only",
			files: map[string]string{
				"/proj/a.tpl": "{{ }}",
			},
			format: "text",
			want:   "a.tpl:1:1: warning: empty render expression\n{{ }}\n^\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			me := &Handler{
				format:      tt.format,
				concurrency: tt.concurrency,
				fs:          testFs(t, tt.files),
				out:         &out,
			}

			err := me.Run(context.Background(), "/proj")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestHandler_Run_VSCode(t *testing.T) {
	var out strings.Builder
	me := &Handler{
		format: "vscode",
		fs: testFs(t, map[string]string{
			"/proj/a.tpl": "{{ a",
			"/proj/b.tpl": "}}",
		}),
		out: &out,
	}

	err := me.Run(context.Background(), "/proj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 templates")

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out.String()), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "a.tpl", got[0]["source"])
}

func TestHandler_Run_Errors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		me := &Handler{format: "text", fs: afero.NewMemMapFs(), out: &strings.Builder{}}
		err := me.Run(context.Background(), "/nowhere")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "finding templates")
	})

	t.Run("bad format", func(t *testing.T) {
		me := &Handler{format: "xml", fs: afero.NewMemMapFs(), out: &strings.Builder{}}
		assert.Error(t, me.Run(context.Background(), "/proj"))
	})

	t.Run("explicit config missing", func(t *testing.T) {
		me := &Handler{format: "text", configPath: "/proj/nope.hcl", fs: testFs(t, map[string]string{"/proj/a.tpl": ""}), out: &strings.Builder{}}
		err := me.Run(context.Background(), "/proj")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading config")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		me := &Handler{format: "text", fs: testFs(t, map[string]string{"/proj/a.tpl": ""}), out: &strings.Builder{}}
		err := me.Run(ctx, "/proj")
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHandler_Run_GeneratorFailure(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, "a.tpl", "A").Return(&diagnostic.Diagnostics{File: "a.tpl"}, nil)
	gen.On("Generate", mock.Anything, "b.tpl", "B").Return(nil, errors.New("exploded"))

	var out strings.Builder
	me := &Handler{
		format:    "text",
		fs:        testFs(t, map[string]string{"/proj/a.tpl": "A", "/proj/b.tpl": "B"}),
		out:       &out,
		generator: gen,
	}

	err := me.Run(context.Background(), "/proj")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.tpl: exploded")
	assert.False(t, errors.Is(err, ErrMalformedTemplates))
	assert.Empty(t, out.String())
	gen.AssertExpectations(t)
}
