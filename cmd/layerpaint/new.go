package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/layerpaint/internal/document"
	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/project"
)

type newCmd struct {
	*root
	fs     *flag.FlagSet
	width  int
	height int
	force  bool
}

func (n *newCmd) FlagSet() *flag.FlagSet { return n.fs }

func parseNewCmd(args []string, r *root) (*newCmd, error) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	n := &newCmd{root: r, fs: fs}
	fs.Usage = usageFunc(n)
	fs.IntVar(&n.width, "width", project.DefaultWidth, "document width in pixels")
	fs.IntVar(&n.height, "height", project.DefaultHeight, "document height in pixels")
	fs.BoolVar(&n.force, "force", false, "overwrite the project file if it already exists")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if n.width < 1 || n.height < 1 {
		return nil, fmt.Errorf("document size must be at least 1x1, got %dx%d", n.width, n.height)
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: n}
	}
	return n, nil
}

func (n *newCmd) Run() error {
	path := n.fs.Arg(0)
	if !n.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists; use -force to overwrite", path)
		}
	}
	doc := document.New(n.width, n.height)
	if err := project.Save(path, doc, history.NewLog(n.config.HistoryCap)); err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	n.notifySave(path)
	fmt.Printf("created %s (%dx%d)\n", path, n.width, n.height)
	return nil
}
