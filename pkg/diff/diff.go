// Package diff renders readable differences between expected and actual values
// for test failure messages.
package diff

import (
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/kylelemons/godebug/diff"
)

func printer() *pp.PrettyPrinter {
	p := pp.New()
	p.SetExportedOnly(true)
	p.SetColoringEnabled(false)
	return p
}

// Values pretty prints both values and returns a line diff that turns got into
// want, or "" when they print the same.
func Values[T any](want T, got T) string {
	p := printer()
	return annotate(diff.Diff(p.Sprint(got), p.Sprint(want)))
}

// Text returns a line diff that turns got into want, or "" when they are equal.
// Unlike Values it compares raw text, which suits generated source.
func Text(want, got string) string {
	return annotate(diff.Diff(got, want))
}

func annotate(d string) string {
	if d == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString("to convert ACTUAL ⏩️ EXPECTED:\n\n")
	sb.WriteString("add:    ➕\n")
	sb.WriteString("remove: ➖\n")
	sb.WriteString("\n")
	lines := strings.Split(d, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "-"):
			line = "➖" + line[1:]
		case strings.HasPrefix(line, "+"):
			line = "➕" + line[1:]
		}
		sb.WriteString(line)
		if i < len(lines)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
