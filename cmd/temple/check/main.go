package check

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/mccolljr/temple/pkg/config"
	"github.com/mccolljr/temple/pkg/diagnostic"
	"github.com/mccolljr/temple/pkg/finder"
	"github.com/mccolljr/temple/pkg/output"
)

// ErrMalformedTemplates is returned when at least one template failed to parse.
var ErrMalformedTemplates = errors.Base("malformed templates")

type Handler struct {
	format      string
	concurrency int
	configPath  string
	colorize    bool
	fs          afero.Fs
	out         io.Writer
	generator   diagnostic.Generator
}

func NewCheckCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs(), generator: diagnostic.NewDefaultGenerator()}

	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "parse every template below dir and report problems",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.Flags().StringVar(&me.format, "format", "text", "diagnostic format (text, vscode, yaml)")
	cmd.Flags().IntVar(&me.concurrency, "concurrency", 0, "templates parsed at once (0 means one per CPU)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		me.configPath, _ = cmd.Flags().GetString("config")
		mode, _ := cmd.Flags().GetString("color")
		colorize, err := output.Colorize(mode, os.Stdout)
		if err != nil {
			return err
		}
		me.colorize = colorize
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), dir)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, dir string) error {
	formatter, err := diagnostic.NewFormatter(me.format, me.colorize)
	if err != nil {
		return err
	}

	cfg, err := config.Discover(me.fs, me.configPath, dir)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	files, err := finder.NewDefaultFinder(me.fs).FindTemplates(ctx, dir, cfg.Include, cfg.Exclude)
	if err != nil {
		return errors.Errorf("finding templates: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Int("templates", len(files)).Msg("checking templates")

	limit := me.concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns its index in both slices
	results := make([]*diagnostic.Diagnostics, len(files))
	failures := make([]error, len(files))

	generator := me.generator
	if generator == nil {
		generator = diagnostic.NewDefaultGenerator()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			name := file.Path
			if rel, err := filepath.Rel(dir, file.Path); err == nil {
				name = filepath.ToSlash(rel)
			}

			diags, err := generator.Generate(gctx, name, file.Source())
			if err != nil {
				failures[i] = errors.Errorf("%s: %w", name, err)
				return nil
			}
			results[i] = diags
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Errorf("checking templates: %w", err)
	}

	var reported []*diagnostic.Diagnostics
	malformed := 0
	for _, diags := range results {
		if diags == nil {
			continue
		}
		reported = append(reported, diags)
		if diags.HasErrors() {
			malformed++
		}
	}

	out, err := formatter.Format(reported)
	if err != nil {
		return errors.Errorf("formatting diagnostics: %w", err)
	}
	if _, err := me.out.Write(out); err != nil {
		return errors.Errorf("writing diagnostics: %w", err)
	}

	zerolog.Ctx(ctx).Info().Int("templates", len(files)).Int("malformed", malformed).Msg("check finished")

	err = multierr.Combine(failures...)
	if malformed > 0 {
		err = multierr.Append(err, errors.Errorf("%d of %d templates: %w", malformed, len(files), ErrMalformedTemplates))
	}
	return err
}
