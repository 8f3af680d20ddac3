package parse

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/mccolljr/temple/pkg/diagnostic"
	"github.com/mccolljr/temple/pkg/finder"
	"github.com/mccolljr/temple/pkg/output"
	"github.com/mccolljr/temple/pkg/parser"
)

type Handler struct {
	format   string
	source   bool
	colorize bool
	fs       afero.Fs
	out      io.Writer
	errOut   io.Writer
}

func NewParseCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "print the nodes of a template",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "output format (text, json, yaml)")
	cmd.Flags().BoolVar(&me.source, "source", false, "print the nodes back as template source, with trimming applied")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("color")
		colorize, err := output.Colorize(mode, os.Stdout)
		if err != nil {
			return err
		}
		me.colorize = colorize
		me.out = cmd.OutOrStdout()
		me.errOut = cmd.ErrOrStderr()
		return me.Run(cmd.Context(), args[0])
	}

	return cmd
}

// Run prints the nodes, or the parse error as a diagnostic on errOut.
func (me *Handler) Run(ctx context.Context, path string) error {
	format, err := output.ParseFormat(me.format)
	if err != nil {
		return err
	}

	file, err := finder.LoadTemplate(me.fs, path)
	if err != nil {
		return err
	}

	nodes, err := parser.Parse(ctx, file.Source())
	if err != nil {
		if diags, ok := diagnostic.FromError(path, file.Source(), err); ok {
			text, ferr := diagnostic.NewTextFormatter(me.colorize).Format([]*diagnostic.Diagnostics{diags})
			if ferr == nil {
				_, _ = me.errOut.Write(text)
			}
		}
		return errors.Errorf("parsing %s: %w", path, err)
	}

	if me.source {
		if _, err := io.WriteString(me.out, nodes.ToString()); err != nil {
			return errors.Errorf("printing source of %s: %w", path, err)
		}
		return nil
	}

	if err := output.Write(me.out, format, nodes, me.colorize); err != nil {
		return errors.Errorf("printing nodes of %s: %w", path, err)
	}

	return nil
}
