package gen

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/mccolljr/temple/pkg/config"
	"github.com/mccolljr/temple/pkg/generate"
)

type Handler struct {
	watch      bool
	dryRun     bool
	only       []string
	configPath string
	fs         afero.Fs
	out        io.Writer
}

func NewGenCommand() *cobra.Command {
	me := &Handler{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "gen [dir]",
		Short: "generate Go Render methods for the configured templates",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.Flags().BoolVar(&me.watch, "watch", false, "regenerate a template whenever it changes")
	cmd.Flags().BoolVar(&me.dryRun, "dry-run", false, "print the generated code instead of writing it")
	cmd.Flags().StringSliceVar(&me.only, "template", nil, "only generate the named templates")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		me.configPath, _ = cmd.Flags().GetString("config")
		me.out = cmd.OutOrStdout()
		return me.Run(cmd.Context(), dir)
	}

	return cmd
}

func (me *Handler) Run(ctx context.Context, dir string) error {
	cfg, err := config.Discover(me.fs, me.configPath, dir)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	templates, err := me.selected(cfg)
	if err != nil {
		return err
	}

	err = me.generateAll(ctx, cfg, templates)
	if !me.watch {
		return err
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("initial generation failed, watching anyway")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	seen := map[string]bool{}
	for _, tmpl := range templates {
		d := filepath.Dir(cfg.Resolve(tmpl.Path))
		if seen[d] {
			continue
		}
		seen[d] = true
		if err := watcher.Add(d); err != nil {
			return errors.Errorf("watching %s: %w", d, err)
		}
	}

	zerolog.Ctx(ctx).Info().Int("templates", len(templates)).Int("dirs", len(seen)).Msg("watching for changes")

	return me.watchLoop(ctx, cfg, templates, watcher.Events, watcher.Errors)
}

func (me *Handler) selected(cfg *config.Config) ([]*config.Template, error) {
	if len(cfg.Templates) == 0 {
		return nil, errors.New("no templates configured")
	}
	if len(me.only) == 0 {
		return cfg.Templates, nil
	}

	var templates []*config.Template
	for _, name := range me.only {
		tmpl, ok := cfg.Lookup(name)
		if !ok {
			return nil, errors.Errorf("unknown template %q", name)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// generateAll keeps going past failures and returns all of them.
func (me *Handler) generateAll(ctx context.Context, cfg *config.Config, templates []*config.Template) error {
	var errs error
	for _, tmpl := range templates {
		errs = multierr.Append(errs, me.generateOne(ctx, cfg, tmpl))
	}
	return errs
}

func (me *Handler) generateOne(ctx context.Context, cfg *config.Config, tmpl *config.Template) error {
	if !me.dryRun {
		_, err := generate.GenerateFile(ctx, me.fs, cfg, tmpl)
		return err
	}

	file, err := generate.BuildFile(ctx, me.fs, cfg, tmpl)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(me.out, "// %s\n%s", file.Path, file.Content); err != nil {
		return errors.Errorf("writing %s: %w", file.Path, err)
	}
	return nil
}

// watchLoop regenerates the template behind every write until ctx is done.
func (me *Handler) watchLoop(ctx context.Context, cfg *config.Config, templates []*config.Template, events <-chan fsnotify.Event, errs <-chan error) error {
	byPath := map[string]*config.Template{}
	for _, tmpl := range templates {
		byPath[filepath.Clean(cfg.Resolve(tmpl.Path))] = tmpl
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			tmpl, ok := byPath[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			zerolog.Ctx(ctx).Debug().Str("template", tmpl.Name).Str("op", event.Op.String()).Msg("template changed")
			if err := me.generateOne(ctx, cfg, tmpl); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Str("template", tmpl.Name).Msg("regenerating")
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			zerolog.Ctx(ctx).Warn().Err(err).Msg("watcher error")
		}
	}
}
