// Package generate turns a parsed template into Go source.
//
// Each node becomes one statement of the generated Render method:
//
//	Content("Hi ")     →  io.WriteString(w, "Hi ")
//	Render("me.Name")  →  temple.Render(w, me.Name)
//	Control("if x {")  →  if x {
//
// Control statements are spliced in verbatim, so the template decides the control
// flow and the Go compiler checks it.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/config"
	"github.com/mccolljr/temple/pkg/finder"
	"github.com/mccolljr/temple/pkg/parser"
)

const (
	// Header marks generated files so tools and reviewers skip them.
	Header = "// Code generated by temple. DO NOT EDIT."

	// RuntimeImport is the package generated code calls into.
	RuntimeImport = "github.com/mccolljr/temple"
)

// Options describes the Go side of one template.
type Options struct {
	Package  string
	Type     string
	Receiver string
	// TemplatePath is what the generated TemplatePath method returns.
	TemplatePath string
	// Source is what the generated TemplateData method returns.
	Source string
}

func (me Options) validate() error {
	for _, f := range []struct{ field, value string }{
		{"package", me.Package},
		{"type", me.Type},
		{"receiver", me.Receiver},
	} {
		if !token.IsIdentifier(f.value) {
			return errors.Errorf("%s %q is not a valid Go identifier", f.field, f.value)
		}
	}
	return nil
}

// Generate writes the Go file for nodes.
func Generate(ctx context.Context, nodes parser.Nodes, opts Options) ([]byte, error) {
	if err := opts.validate(); err != nil {
		return nil, errors.Errorf("generating %s: %w", opts.TemplatePath, err)
	}

	var body bytes.Buffer
	for i, node := range nodes {
		switch node.Kind {
		case parser.KindContent:
			fmt.Fprintf(&body, "\tif _, err := io.WriteString(w, %s); err != nil {\n\t\treturn err\n\t}\n", strconv.Quote(node.Text))
		case parser.KindRender:
			if strings.TrimSpace(node.Text) == "" {
				return nil, errors.Errorf("generating %s: node %d: empty render expression", opts.TemplatePath, i)
			}
			fmt.Fprintf(&body, "\tif err := temple.Render(w, %s); err != nil {\n\t\treturn err\n\t}\n", node.Text)
		case parser.KindControl:
			fmt.Fprintf(&body, "\t%s\n", node.Text)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n// source: %s\n\n", Header, opts.TemplatePath)
	fmt.Fprintf(&buf, "package %s\n\n", opts.Package)
	if nodes.Count(parser.KindRender) > 0 {
		fmt.Fprintf(&buf, "import (\n\t\"io\"\n\n\t%q\n)\n\n", RuntimeImport)
	} else {
		buf.WriteString("import \"io\"\n\n")
	}

	recv := fmt.Sprintf("(%s *%s)", opts.Receiver, opts.Type)
	dataConst := "templeData" + opts.Type

	fmt.Fprintf(&buf, "const %s = %s\n\n", dataConst, strconv.Quote(opts.Source))
	fmt.Fprintf(&buf, "// TemplatePath returns the path of the template %s was generated from.\n", opts.Type)
	fmt.Fprintf(&buf, "func %s TemplatePath() string {\n\treturn %s\n}\n\n", recv, strconv.Quote(opts.TemplatePath))
	fmt.Fprintf(&buf, "// TemplateData returns the template source.\n")
	fmt.Fprintf(&buf, "func %s TemplateData() string {\n\treturn %s\n}\n\n", recv, dataConst)
	fmt.Fprintf(&buf, "// Render writes the template to w.\n")
	fmt.Fprintf(&buf, "func %s Render(w io.Writer) error {\n", recv)
	buf.Write(body.Bytes())
	buf.WriteString("\treturn nil\n}\n")

	out, err := format.Source(buf.Bytes())
	if err != nil {
		zerolog.Ctx(ctx).Debug().Str("template", opts.TemplatePath).Str("code", buf.String()).Msg("generated code does not parse")
		return nil, errors.Errorf("formatting generated code for %s: %w", opts.TemplatePath, err)
	}

	return out, nil
}

// File is a generated Go file.
type File struct {
	Path    string
	Content []byte
}

// BuildFile loads, parses and generates the template without writing anything.
func BuildFile(ctx context.Context, fs afero.Fs, cfg *config.Config, tmpl *config.Template) (*File, error) {
	src, err := finder.LoadTemplate(fs, cfg.Resolve(tmpl.Path))
	if err != nil {
		return nil, errors.Errorf("template %q: %w", tmpl.Name, err)
	}

	nodes, err := parser.Parse(ctx, src.Source())
	if err != nil {
		return nil, errors.Errorf("template %q (%s): %w", tmpl.Name, tmpl.Path, err)
	}

	out, err := Generate(ctx, nodes, Options{
		Package:      tmpl.Package,
		Type:         tmpl.Type,
		Receiver:     tmpl.Receiver,
		TemplatePath: tmpl.Path,
		Source:       src.Source(),
	})
	if err != nil {
		return nil, err
	}

	return &File{Path: cfg.Resolve(tmpl.Output), Content: out}, nil
}

// GenerateFile builds the template and writes the result next to it.
func GenerateFile(ctx context.Context, fs afero.Fs, cfg *config.Config, tmpl *config.Template) (*File, error) {
	file, err := BuildFile(ctx, fs, cfg, tmpl)
	if err != nil {
		return nil, err
	}

	if err := afero.WriteFile(fs, file.Path, file.Content, 0o644); err != nil {
		return nil, errors.Errorf("writing %s: %w", file.Path, err)
	}

	zerolog.Ctx(ctx).Info().Str("template", tmpl.Name).Str("output", file.Path).Int("bytes", len(file.Content)).Msg("generated")

	return file, nil
}
