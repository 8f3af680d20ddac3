package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		wantInfo   bool
		wantDebug  bool
		wantCaller bool
	}{
		{name: "default level", opts: Options{}, wantInfo: true},
		{name: "warn level", opts: Options{Level: "warn"}},
		{name: "debug flag", opts: Options{Level: "error", Debug: true}, wantInfo: true, wantDebug: true, wantCaller: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			logger, err := NewLogger(&sb, tt.opts)
			require.NoError(t, err)

			logger.Info().Msg("info line")
			logger.Debug().Msg("debug line")

			out := sb.String()
			assert.Equal(t, tt.wantInfo, strings.Contains(out, "info line"), out)
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"), out)
			assert.Equal(t, tt.wantCaller, strings.Contains(out, "debug_test.go"), out)
		})
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(&strings.Builder{}, Options{Level: "loud"})
	assert.Error(t, err)
}

func TestGetPackageAndFuncFromFuncName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPkg  string
		wantFunc string
	}{
		{
			name:     "function",
			in:       "github.com/mccolljr/temple/pkg/parser.Parse",
			wantPkg:  "pkg/parser",
			wantFunc: "Parse",
		},
		{
			name:     "method",
			in:       "github.com/mccolljr/temple/pkg/parser.(*Parser).ParseNodes",
			wantPkg:  "pkg/parser",
			wantFunc: "(*Parser).ParseNodes",
		},
		{
			name:     "stdlib",
			in:       "runtime.main",
			wantPkg:  "runtime",
			wantFunc: "main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkg, fn := GetPackageAndFuncFromFuncName(tt.in)
			assert.Equal(t, tt.wantPkg, pkg)
			assert.Equal(t, tt.wantFunc, fn)
		})
	}
}

func TestFormatCaller(t *testing.T) {
	assert.Equal(t, "pkg/lexer:lexer.go:42", FormatCaller("pkg/lexer", "/src/pkg/lexer/lexer.go", 42, false))
	assert.Equal(t, "x.go", FileNameOfPath("x.go"))
}
