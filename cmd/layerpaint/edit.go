package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/example/layerpaint/internal/editor"
	"github.com/example/layerpaint/internal/project"
	"github.com/example/layerpaint/internal/tool"
	"github.com/example/layerpaint/internal/ui"
)

type editCmd struct {
	*root
	fs     *flag.FlagSet
	width  int
	height int
}

func (e *editCmd) FlagSet() *flag.FlagSet { return e.fs }

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	e := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	fs.IntVar(&e.width, "width", project.DefaultWidth, "document width for a new unsaved document")
	fs.IntVar(&e.height, "height", project.DefaultHeight, "document height for a new unsaved document")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if e.width < 1 || e.height < 1 {
		return nil, fmt.Errorf("document size must be at least 1x1, got %dx%d", e.width, e.height)
	}
	if fs.NArg() > 1 {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *editCmd) Run() error {
	path := e.fs.Arg(0)

	opts := []editor.Option{
		editor.WithTheme(e.activeTheme),
		editor.WithHistoryCap(e.config.HistoryCap),
	}
	width, height := e.width, e.height
	if path != "" {
		doc, g, err := project.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "%s does not exist yet; starting a fresh document\n", path)
			} else {
				fmt.Fprintf(os.Stderr, "warning: could not load %s: %v. starting a fresh document.\n", path, err)
			}
		}
		width, height = doc.W, doc.H
		opts = append(opts, editor.WithDocument(doc), editor.WithHistory(g))
	}

	ses := editor.New(width, height, opts...)
	to := ses.ToolOptions()
	to.Color = color.Black
	if e.config.PenWidth > 0 {
		to.Width = e.config.PenWidth
	}
	ses.SetToolOptions(to)
	ses.SetTool(tool.Pen, editor.ToolContinuous)

	appOpts := []ui.Option{
		ui.WithPath(path),
		ui.WithNotifier(e.notifier),
	}
	if path != "" {
		appOpts = append(appOpts, ui.WithTitle("LayerPaint - "+path))
	}

	var saver *project.Autosaver
	if e.config.Autosave.Enabled && path != "" {
		debounce := time.Duration(e.config.Autosave.Debounce) * time.Second
		saver = project.NewAutosaver(path, debounce)
		saver.OnSave = func(p string) {
			if e.notifier != nil {
				e.notifier.Autosave(p)
			}
		}
		appOpts = append(appOpts, ui.WithAutosaver(saver))
	}

	app := ui.New(ses, appOpts...)
	app.Run()
	if saver != nil {
		saver.Close()
	}
	return nil
}
