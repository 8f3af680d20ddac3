package lexer

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// Kind identifies the variant of a Token.
type Kind int

const (
	// KindLiteral is a run of text, either template content or a block body.
	KindLiteral Kind = iota
	// KindOpenRender is "{{" or "{{-".
	KindOpenRender
	// KindCloseRender is "}}" or "-}}".
	KindCloseRender
	// KindOpenControl is "{%" or "{%-".
	KindOpenControl
	// KindCloseControl is "%}" or "-%}".
	KindCloseControl
)

var kindNames = map[Kind]string{
	KindLiteral:      "literal",
	KindOpenRender:   "open_render",
	KindCloseRender:  "close_render",
	KindOpenControl:  "open_control",
	KindCloseControl: "close_control",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return errors.Errorf("unknown token kind %q", string(text))
}

// IsOpen reports whether the kind opens a block.
func (k Kind) IsOpen() bool {
	return k == KindOpenRender || k == KindOpenControl
}

// IsClose reports whether the kind closes a block.
func (k Kind) IsClose() bool {
	return k == KindCloseRender || k == KindCloseControl
}

// Token is one lexical unit of a template.
type Token struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Text is only set for literals.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	// Trim is only set for delimiters. On an opener it asks for the literal before it to
	// lose its trailing whitespace, on a closer for the literal after it to lose its
	// leading whitespace.
	Trim bool `json:"trim,omitempty" yaml:"trim,omitempty"`
	// Offset is the byte offset of the first character of the token in the source.
	Offset int `json:"offset" yaml:"offset"`
}

func Literal(text string) Token {
	return Token{Kind: KindLiteral, Text: text}
}

func OpenRender(trim bool) Token {
	return Token{Kind: KindOpenRender, Trim: trim}
}

func CloseRender(trim bool) Token {
	return Token{Kind: KindCloseRender, Trim: trim}
}

func OpenControl(trim bool) Token {
	return Token{Kind: KindOpenControl, Trim: trim}
}

func CloseControl(trim bool) Token {
	return Token{Kind: KindCloseControl, Trim: trim}
}

// Delimiter returns the source spelling of a delimiter token, or "" for literals.
func (t Token) Delimiter() string {
	switch t.Kind {
	case KindOpenRender:
		if t.Trim {
			return "{{-"
		}
		return "{{"
	case KindCloseRender:
		if t.Trim {
			return "-}}"
		}
		return "}}"
	case KindOpenControl:
		if t.Trim {
			return "{%-"
		}
		return "{%"
	case KindCloseControl:
		if t.Trim {
			return "-%}"
		}
		return "%}"
	}
	return ""
}

func (t Token) String() string {
	if t.Kind == KindLiteral {
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
	return fmt.Sprintf("%s(%s)", t.Kind, t.Delimiter())
}
