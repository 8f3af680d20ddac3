/*
Package semtok provides semantic tokens for template highlighting in editors.

	       Input
	         |
	         v
	  +------------+
	  | Template   |
	  | Text       |
	  +------------+
	         |
	      Lex only
	         |
	         v
	  +------------+
	  | Lexer      |
	  | Tokens     |
	  +------------+
	         |
	Classify & split lines
	         |
	         v
	  +------------+
	  | Semantic   |
	  | Tokens     |
	  +------------+

Only the lexer runs, so malformed templates still highlight.
*/
package semtok

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mccolljr/temple/pkg/lexer"
	"github.com/mccolljr/temple/pkg/position"
)

// GetTokensForText returns semantic tokens for the whole template, in source order.
func GetTokensForText(ctx context.Context, content []byte) []Token {
	src := string(content)

	var (
		tokens    []Token
		opener    lexer.Kind
		afterOpen bool
	)

	for tok := range lexer.New(src).All() {
		switch {
		case tok.Kind.IsOpen():
			opener = tok.Kind
			tokens = append(tokens, delimiter(tok))
			afterOpen = true
			continue
		case tok.Kind.IsClose():
			tokens = append(tokens, delimiter(tok))
		case tok.Text == "":
		case afterOpen:
			typ := TokenVariable
			if opener == lexer.KindOpenControl {
				typ = TokenKeyword
			}
			// block literals are trimmed, find where the text really starts
			offset := tok.Offset + strings.Index(src[tok.Offset:], tok.Text)
			tokens = append(tokens, splitLines(typ, tok.Text, offset)...)
		default:
			tokens = append(tokens, splitLines(TokenText, tok.Text, tok.Offset)...)
		}
		afterOpen = false
	}

	zerolog.Ctx(ctx).Trace().Int("tokens", len(tokens)).Msg("semantic tokens")

	return tokens
}

// GetTokensForRange returns the tokens overlapping ranged.
func GetTokensForRange(ctx context.Context, content []byte, ranged position.RawPosition) []Token {
	var tokens []Token
	for _, tok := range GetTokensForText(ctx, content) {
		if tok.Range.HasRangeOverlapWith(ranged) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Encode converts tokens to the relative five-integer form editors consume:
// delta line, delta start, length, type, modifiers. Columns and lengths are bytes.
func Encode(content []byte, tokens []Token) []uint32 {
	src := string(content)
	data := make([]uint32, 0, len(tokens)*5)

	prevLine, prevChar := 0, 0
	for _, tok := range tokens {
		line, char := tok.Range.GetLineAndColumn(src)

		deltaChar := char
		if line == prevLine {
			deltaChar = char - prevChar
		}

		data = append(data,
			uint32(line-prevLine),
			uint32(deltaChar),
			uint32(tok.Range.Length()),
			uint32(tok.Type),
			0,
		)

		prevLine, prevChar = line, char
	}

	return data
}

func delimiter(tok lexer.Token) Token {
	return Token{Type: TokenOperator, Range: position.NewBasicPosition(tok.Delimiter(), tok.Offset)}
}

func splitLines(typ TokenType, text string, offset int) []Token {
	var tokens []Token
	for _, line := range strings.SplitAfter(text, "\n") {
		if trimmed := strings.TrimSuffix(line, "\n"); trimmed != "" {
			tokens = append(tokens, Token{Type: typ, Range: position.NewBasicPosition(trimmed, offset)})
		}
		offset += len(line)
	}
	return tokens
}
