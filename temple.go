// Package temple is the runtime used by code that temple generates.
//
// A template bound to a Go type gets a generated Render method; that type then
// satisfies [Template] and can itself be rendered from inside other templates.
//
//	┌──────────┐   gen    ┌──────────────────────┐
//	│ page.tpl │ ───────▶ │ func (me *Page)      │
//	└──────────┘          │   Render(io.Writer)  │
//	                      └──────────┬───────────┘
//	                                 │ temple.Render(w, me.Header)
//	                                 ▼
//	                      ┌──────────────────────┐
//	                      │ nested Renderable    │
//	                      └──────────────────────┘
package temple

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Renderable writes itself to w.
type Renderable interface {
	Render(w io.Writer) error
}

// Template is a Renderable generated from a template file.
type Template interface {
	Renderable
	// TemplatePath is the path the template was generated from, as configured.
	TemplatePath() string
	// TemplateData is the raw template source.
	TemplateData() string
}

// Render writes v to w. Renderables render themselves, strings and byte slices are
// written as is, io.WriterTo values write themselves, everything else goes through
// fmt.Fprint.
func Render(w io.Writer, v any) error {
	switch v := v.(type) {
	case Renderable:
		return v.Render(w)
	case string:
		if _, err := io.WriteString(w, v); err != nil {
			return errors.Errorf("writing string: %w", err)
		}
	case []byte:
		if _, err := w.Write(v); err != nil {
			return errors.Errorf("writing bytes: %w", err)
		}
	case io.WriterTo:
		if _, err := v.WriteTo(w); err != nil {
			return errors.Errorf("writing %T: %w", v, err)
		}
	default:
		if _, err := fmt.Fprint(w, v); err != nil {
			return errors.Errorf("writing %T: %w", v, err)
		}
	}
	return nil
}

// RenderString renders r into a string.
func RenderString(r Renderable) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
