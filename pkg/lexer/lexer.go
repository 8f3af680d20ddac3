// Package lexer splits template text into literal runs and block delimiters.
//
// Lexer State Machine:
//
//	┌──────────────────┐
//	│     Outside      │  literal text is kept verbatim
//	└──────────┬───────┘
//	           │ "{{" / "{%" (optionally followed by "-")
//	           ▼
//	┌──────────────────┐
//	│      Inside      │  literal text is trimmed
//	└──────────┬───────┘
//	           │ "}}" / "%}" / "-}}" / "-%}"
//	           ▼
//	Back to Outside
//
// The lexer only knows whether it is inside a block. Which kind of block was
// opened travels with the token, and pairing render/control delimiters is the
// parser's job.
package lexer

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/mccolljr/temple/pkg/lookahead"
)

// Depth is the lookahead needed for the longest delimiter ("-}}", "-%}").
const Depth = 3

var (
	openRender   = []rune("{{")
	openControl  = []rune("{%")
	closeRender  = []rune("}}")
	closeControl = []rune("%}")
	trimMarker   = []rune("-")

	trimCloseRender  = []rune("-}}")
	trimCloseControl = []rune("-%}")
)

// Lexer produces tokens from a template source in a single forward pass.
type Lexer struct {
	src     string
	chars   *lookahead.Window[rune]
	widths  []int
	offset  int
	inBlock bool
}

// New creates a lexer over src.
func New(src string) *Lexer {
	me := &Lexer{src: src}

	pos := 0
	me.chars = lookahead.New(Depth, func() (rune, bool) {
		if pos >= len(src) {
			return 0, false
		}
		r, w := utf8.DecodeRuneInString(src[pos:])
		pos += w
		me.widths = append(me.widths, w)
		return r, true
	})

	return me
}

// Tokenize lexes all of src.
func Tokenize(src string) []Token {
	var out []Token
	for tok := range New(src).All() {
		out = append(out, tok)
	}
	return out
}

// InBlock reports whether the lexer is between an opener and its closer.
func (me *Lexer) InBlock() bool {
	return me.inBlock
}

// Offset is the byte offset of the next unconsumed character.
func (me *Lexer) Offset() int {
	return me.offset
}

// All yields the remaining tokens.
func (me *Lexer) All() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for {
			tok, ok := me.Next()
			if !ok || !yield(tok) {
				return
			}
		}
	}
}

// Next returns the next token, or false at the end of the source.
func (me *Lexer) Next() (Token, bool) {
	start := me.offset

	if !me.inBlock {
		if me.consume(openRender) {
			me.inBlock = true
			return Token{Kind: KindOpenRender, Trim: me.consume(trimMarker), Offset: start}, true
		}
		if me.consume(openControl) {
			me.inBlock = true
			return Token{Kind: KindOpenControl, Trim: me.consume(trimMarker), Offset: start}, true
		}
	} else {
		switch {
		case me.consume(closeRender):
			me.inBlock = false
			return Token{Kind: KindCloseRender, Offset: start}, true
		case me.consume(trimCloseRender):
			me.inBlock = false
			return Token{Kind: KindCloseRender, Trim: true, Offset: start}, true
		case me.consume(closeControl):
			me.inBlock = false
			return Token{Kind: KindCloseControl, Offset: start}, true
		case me.consume(trimCloseControl):
			me.inBlock = false
			return Token{Kind: KindCloseControl, Trim: true, Offset: start}, true
		}
	}

	if _, ok := me.advance(); !ok {
		return Token{}, false
	}
	for !me.atBoundary() {
		if _, ok := me.advance(); !ok {
			break
		}
	}

	// sliced from the source so bytes that are not valid UTF-8 survive
	text := me.src[start:me.offset]
	if me.inBlock {
		text = strings.TrimSpace(text)
	}

	return Token{Kind: KindLiteral, Text: text, Offset: start}, true
}

func (me *Lexer) atBoundary() bool {
	if me.inBlock {
		return me.chars.HasNext(closeRender...) ||
			me.chars.HasNext(closeControl...) ||
			me.chars.HasNext(trimCloseRender...) ||
			me.chars.HasNext(trimCloseControl...)
	}
	return me.chars.HasNext(openRender...) || me.chars.HasNext(openControl...)
}

func (me *Lexer) consume(seq []rune) bool {
	if !me.chars.ConsumeIf(seq...) {
		return false
	}
	for range seq {
		me.step()
	}
	return true
}

func (me *Lexer) advance() (rune, bool) {
	r, ok := me.chars.Next()
	if ok {
		me.step()
	}
	return r, ok
}

// step moves the byte offset past the oldest buffered character.
func (me *Lexer) step() {
	me.offset += me.widths[0]
	me.widths = me.widths[1:]
}
