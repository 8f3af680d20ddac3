package lex

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/finder"
	"github.com/mccolljr/temple/pkg/lexer"
	"github.com/mccolljr/temple/pkg/output"
	"github.com/mccolljr/temple/pkg/position"
	"github.com/mccolljr/temple/pkg/semtok"
)

type Handler struct {
	format   string
	semantic bool
	encoded  bool
	ranged   string
	colorize bool
	fs       afero.Fs
	out      io.Writer
}

func NewLexCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "lex <file>",
		Short: "print the token stream of a template",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&me.semantic, "semantic", false, "print semantic highlighting tokens instead of lexer tokens")
	cmd.Flags().BoolVar(&me.encoded, "encoded", false, "with --semantic, print the relative five-integer encoding editors consume")
	cmd.Flags().StringVar(&me.ranged, "range", "", "with --semantic, only print tokens overlapping offset:length")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("color")
		colorize, err := output.Colorize(mode, os.Stdout)
		if err != nil {
			return err
		}
		me.colorize = colorize
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, path string) error {
	format, err := output.ParseFormat(me.format)
	if err != nil {
		return err
	}

	file, err := finder.LoadTemplate(me.fs, path)
	if err != nil {
		return err
	}

	if me.semantic {
		return me.writeSemantic(ctx, format, path, file.Content)
	}

	if me.encoded || me.ranged != "" {
		return errors.New("--encoded and --range need --semantic")
	}

	if err := output.Write(me.out, format, lexer.Tokenize(file.Source()), me.colorize); err != nil {
		return errors.Errorf("printing tokens of %s: %w", path, err)
	}

	return nil
}

func (me *Handler) writeSemantic(ctx context.Context, format output.Format, path string, content []byte) error {
	var tokens []semtok.Token
	if me.ranged != "" {
		ranged, err := parseRange(me.ranged, content)
		if err != nil {
			return err
		}
		tokens = semtok.GetTokensForRange(ctx, content, ranged)
	} else {
		tokens = semtok.GetTokensForText(ctx, content)
	}

	var err error
	if me.encoded {
		data := semtok.Encode(content, tokens)
		rows := make([]encodedRow, 0, len(data)/5)
		for i := 0; i+5 <= len(data); i += 5 {
			rows = append(rows, encodedRow(data[i:i+5]))
		}
		err = output.Write(me.out, format, rows, me.colorize)
	} else {
		err = output.Write(me.out, format, tokens, me.colorize)
	}
	if err != nil {
		return errors.Errorf("printing semantic tokens of %s: %w", path, err)
	}
	return nil
}

// parseRange reads "offset:length" into the span of content it covers.
func parseRange(s string, content []byte) (position.RawPosition, error) {
	offStr, lenStr, ok := strings.Cut(s, ":")
	if !ok {
		return position.RawPosition{}, errors.Errorf("invalid range %q: want offset:length", s)
	}
	offset, err := strconv.Atoi(offStr)
	if err != nil {
		return position.RawPosition{}, errors.Errorf("invalid range offset %q: %w", offStr, err)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil {
		return position.RawPosition{}, errors.Errorf("invalid range length %q: %w", lenStr, err)
	}
	if offset < 0 || length < 0 || offset+length > len(content) {
		return position.RawPosition{}, errors.Errorf("range %q is outside the %d byte template", s, len(content))
	}
	return position.NewBasicPosition(string(content[offset:offset+length]), offset), nil
}

// encodedRow is one token of the encoding: delta line, delta start, length, type, modifiers.
type encodedRow [5]uint32

func (me encodedRow) String() string {
	return fmt.Sprintf("%d %d %d %d %d", me[0], me[1], me[2], me[3], me[4])
}
