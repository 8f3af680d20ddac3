// Package output prints token and node streams for the lex and parse commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/tidwall/pretty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", errors.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// Write prints items to w, one String per line in text format.
func Write[T fmt.Stringer](w io.Writer, format Format, items []T, colorize bool) error {
	switch format {
	case FormatJSON:
		if items == nil {
			items = []T{}
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return errors.Errorf("marshaling json: %w", err)
		}
		out := pretty.Pretty(raw)
		if colorize {
			out = pretty.Color(out, nil)
		}
		if _, err := w.Write(out); err != nil {
			return errors.Errorf("writing json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return errors.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return errors.Errorf("closing yaml encoder: %w", err)
		}
	default:
		for _, item := range items {
			if _, err := fmt.Fprintln(w, item.String()); err != nil {
				return errors.Errorf("writing text: %w", err)
			}
		}
	}
	return nil
}

// Colorize resolves a --color flag value. "auto" colours only terminals.
func Colorize(mode string, f *os.File) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	}
	return false, errors.Errorf("unknown color mode %q (want auto, always or never)", mode)
}
