// Package parser folds a template token stream into an ordered node sequence.
//
//	Token stream                          Nodes
//	────────────                          ─────
//	Literal("a  ")                 ──▶    Content("a")   ◀─┐ trimmed by {{-
//	OpenRender(trim) ──────────────────────────────────────┘
//	Literal("x")                   ──▶    Render("x")
//	CloseRender(trim) ─────────────────────────────────────┐
//	Literal("  b")                 ──▶    Content("b")   ◀─┘ trimmed by -}}
//
// An opener's trim marker edits the literal BEFORE it, a closer's trim marker
// edits the literal AFTER it.
package parser

import (
	"context"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/mccolljr/temple/pkg/lexer"
)

// TokenSource is anything that yields template tokens, usually a *lexer.Lexer.
type TokenSource interface {
	Next() (lexer.Token, bool)
}

type blockShape struct {
	body    NodeKind
	close   lexer.Kind
	noBody  string
	noClose string
}

var shapes = map[lexer.Kind]blockShape{
	lexer.KindOpenRender: {
		body:    KindRender,
		close:   lexer.KindCloseRender,
		noBody:  "expected render expression",
		noClose: "expected '}}'",
	},
	lexer.KindOpenControl: {
		body:    KindControl,
		close:   lexer.KindCloseControl,
		noBody:  "expected control statement",
		noClose: "expected '%}'",
	},
}

var strayClose = map[lexer.Kind]string{
	lexer.KindCloseRender:  "unexpected '}}'",
	lexer.KindCloseControl: "unexpected '%}'",
}

// Parser turns tokens into nodes in a single forward pass.
type Parser struct {
	tokens TokenSource
}

// New creates a parser that lexes src itself.
func New(src string) *Parser {
	return NewWithLexer(lexer.New(src))
}

// NewWithLexer creates a parser over an existing token source.
func NewWithLexer(tokens TokenSource) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses src and logs a summary to the logger carried by ctx.
func Parse(ctx context.Context, src string) (Nodes, error) {
	nodes, err := New(src).ParseNodes()
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Int("source_bytes", len(src)).Msg("template is malformed")
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Int("source_bytes", len(src)).
		Int("nodes", len(nodes)).
		Int("content", nodes.Count(KindContent)).
		Int("render", nodes.Count(KindRender)).
		Int("control", nodes.Count(KindControl)).
		Msg("parsed template")

	return nodes, nil
}

// ParseNodes consumes the token source and returns the nodes, or the first
// structural error. No nodes are returned alongside an error.
func (me *Parser) ParseNodes() (Nodes, error) {
	nodes := Nodes{}
	trimNext := false

	for {
		tok, ok := me.tokens.Next()
		if !ok {
			return nodes, nil
		}

		switch tok.Kind {
		case lexer.KindLiteral:
			text := tok.Text
			if trimNext {
				trimNext = false
				text = strings.TrimLeftFunc(text, unicode.IsSpace)
			}
			if text != "" {
				nodes = append(nodes, Content(text))
			}

		case lexer.KindOpenRender, lexer.KindOpenControl:
			shape := shapes[tok.Kind]

			if tok.Trim {
				nodes = trimLastContent(nodes)
			}

			body, ok := me.tokens.Next()
			if !ok || body.Kind != lexer.KindLiteral {
				return nil, malformed(offsetOr(body, ok, tok.Offset), shape.noBody)
			}
			nodes = append(nodes, Node{Kind: shape.body, Text: body.Text})

			closer, ok := me.tokens.Next()
			if !ok || closer.Kind != shape.close {
				return nil, malformed(offsetOr(closer, ok, tok.Offset), shape.noClose)
			}
			trimNext = closer.Trim

		case lexer.KindCloseRender, lexer.KindCloseControl:
			return nil, unexpectedClose(tok.Offset, strayClose[tok.Kind])
		}
	}
}

// trimLastContent strips trailing whitespace from the last node when it is
// content, dropping it entirely when nothing is left.
func trimLastContent(nodes Nodes) Nodes {
	if len(nodes) == 0 {
		return nodes
	}
	last := &nodes[len(nodes)-1]
	if last.Kind != KindContent {
		return nodes
	}
	last.Text = strings.TrimRightFunc(last.Text, unicode.IsSpace)
	if last.Text == "" {
		return nodes[:len(nodes)-1]
	}
	return nodes
}

func offsetOr(tok lexer.Token, ok bool, fallback int) int {
	if ok {
		return tok.Offset
	}
	return fallback
}
