package position

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

// Place is a zero-based location in a source text.
type Place struct {
	Line int `json:"line" yaml:"line"`
	// Character is the byte column within the line.
	Character int `json:"character" yaml:"character"`
	// Grapheme is the column counted in user-perceived characters, which is what a
	// person reading the line would count.
	Grapheme int `json:"grapheme" yaml:"grapheme"`
}

type Range struct {
	Start Place `json:"start" yaml:"start"`
	End   Place `json:"end" yaml:"end"`
}

// RawPosition represents a position in the source text
type RawPosition struct {
	// Offset is the byte offset in the source text
	Offset int
	// Text is the actual text at this position
	Text string
}

// Length returns the length of the text at this position
func (p RawPosition) Length() int {
	return len(p.Text)
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

func (p RawPosition) HasRangeOverlapWith(start RawPosition) bool {
	startOffset := start.Offset
	endOffset := startOffset + start.Length()

	posOffset := p.Offset
	posEndOffset := posOffset + p.Length()

	// a zero-length position overlaps if it falls within the other range
	if p.Length() == 0 {
		return posOffset >= startOffset && posOffset <= endOffset
	}
	if start.Length() == 0 {
		return startOffset >= posOffset && startOffset <= posEndOffset
	}

	return startOffset < posEndOffset && endOffset > posOffset
}

// GetLineAndColumn calculates the zero-based line and byte column of the position.
// Offsets past the end of text are clamped to the end.
func (p RawPosition) GetLineAndColumn(text string) (line, col int) {
	offset := clamp(p.Offset, len(text))

	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}

	return line, offset - lastNewline - 1
}

// GetPlace is GetLineAndColumn plus the grapheme column.
func (p RawPosition) GetPlace(text string) Place {
	line, col := p.GetLineAndColumn(text)
	offset := clamp(p.Offset, len(text))
	return Place{
		Line:      line,
		Character: col,
		Grapheme:  graphemes(text[offset-col : offset]),
	}
}

func (p RawPosition) GetEndPosition() RawPosition {
	return RawPosition{
		Text:   "",
		Offset: p.Offset + p.Length(),
	}
}

// GetRange calculates the range covered by the position's text.
func (p RawPosition) GetRange(fileText string) Range {
	return Range{
		Start: p.GetPlace(fileText),
		End:   p.GetEndPosition().GetPlace(fileText),
	}
}

// LineText returns the full line the position starts on, without its newline.
func (p RawPosition) LineText(fileText string) string {
	offset := clamp(p.Offset, len(fileText))
	start := strings.LastIndexByte(fileText[:offset], '\n') + 1
	end := strings.IndexByte(fileText[offset:], '\n')
	if end < 0 {
		return fileText[start:]
	}
	return fileText[start : offset+end]
}

func (p RawPosition) String() string {
	return fmt.Sprintf("%s@%d", p.Text, p.Offset)
}

func clamp(offset, max int) int {
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}

func graphemes(s string) int {
	n, err := textseg.TokenCount([]byte(s), textseg.ScanGraphemeClusters)
	if err != nil {
		return utf8.RuneCountInString(s)
	}
	return n
}
