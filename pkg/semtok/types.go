/*
Token Types:
-----------
Every semantic token has a type and a position:

	+-------------+     +-------------+
	| TokenType   | --> | RawPosition |
	+-------------+     +-------------+
	      |                   |
	      v                   v
	[Text,              offset + text
	 Operator,          in the source
	 Variable,
	 Keyword]
*/
package semtok

import (
	"fmt"

	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/position"
)

// TokenType represents the semantic meaning of a token. Values are indexes into Legend.
type TokenType uint32

const (
	// TokenText is literal content outside of blocks
	TokenText TokenType = iota
	// TokenOperator is a block delimiter such as {{ or -%}
	TokenOperator
	// TokenVariable is a render expression
	TokenVariable
	// TokenKeyword is a control statement
	TokenKeyword
)

// Legend is the token type legend announced to editors.
var Legend = []string{"string", "operator", "variable", "keyword"}

func (t TokenType) String() string {
	if int(t) < len(Legend) {
		return Legend[t]
	}
	return "unknown"
}

func (t TokenType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TokenType) UnmarshalText(text []byte) error {
	for i, name := range Legend {
		if name == string(text) {
			*t = TokenType(i)
			return nil
		}
	}
	return errors.Errorf("unknown token type %q", string(text))
}

// Token is a semantic token. It never spans more than one line.
type Token struct {
	Type  TokenType            `json:"type" yaml:"type"`
	Range position.RawPosition `json:"range" yaml:"range"`
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q@%d)", t.Type, t.Range.Text, t.Range.Offset)
}
