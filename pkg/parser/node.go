package parser

import (
	"fmt"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// NodeKind identifies the variant of a Node.
type NodeKind int

const (
	// KindContent is literal output, written as is.
	KindContent NodeKind = iota
	// KindRender is the source of an expression whose value is written.
	KindRender
	// KindControl is the source of a statement spliced into the control flow.
	KindControl
)

func (k NodeKind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindRender:
		return "render"
	case KindControl:
		return "control"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *NodeKind) UnmarshalText(text []byte) error {
	for _, kind := range []NodeKind{KindContent, KindRender, KindControl} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return errors.Errorf("unknown node kind %q", string(text))
}

// Node is one unit of a parsed template. Render and Control bodies are never
// inspected here, they are handed as is to whatever generates output.
type Node struct {
	Kind NodeKind `json:"kind" yaml:"kind"`
	Text string   `json:"text" yaml:"text"`
}

func Content(text string) Node {
	return Node{Kind: KindContent, Text: text}
}

func Render(text string) Node {
	return Node{Kind: KindRender, Text: text}
}

func Control(text string) Node {
	return Node{Kind: KindControl, Text: text}
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%q)", n.Kind, n.Text)
}

// ToString turns the node back into template source, without trim markers.
func (n Node) ToString() string {
	switch n.Kind {
	case KindRender:
		return "{{ " + n.Text + " }}"
	case KindControl:
		return "{% " + n.Text + " %}"
	}
	return n.Text
}

// Nodes is an ordered node sequence. Order is execution order.
type Nodes []Node

// ToString turns the sequence back into template source.
func (me Nodes) ToString() string {
	var sb strings.Builder
	for _, n := range me {
		sb.WriteString(n.ToString())
	}
	return sb.String()
}

// Count returns how many nodes of the given kind the sequence holds.
func (me Nodes) Count(kind NodeKind) int {
	count := 0
	for _, n := range me {
		if n.Kind == kind {
			count++
		}
	}
	return count
}
