package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/example/layerpaint/internal/project"
)

type infoCmd struct {
	*root
	fs *flag.FlagSet
}

func (i *infoCmd) FlagSet() *flag.FlagSet { return i.fs }

func parseInfoCmd(args []string, r *root) (*infoCmd, error) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	i := &infoCmd{root: r, fs: fs}
	fs.Usage = usageFunc(i)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: i}
	}
	return i, nil
}

func (i *infoCmd) Run() error {
	path := i.fs.Arg(0)
	doc, g, err := project.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	fmt.Printf("%s: %dx%d, %d layers, %d history records\n", path, doc.W, doc.H, doc.Count(), g.Len())

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tVISIBLE\tOPACITY\tACTIVE")
	for idx := doc.Count() - 1; idx >= 0; idx-- {
		l := doc.Layers()[idx]
		active := ""
		if l.ID == doc.ActiveID() {
			active = "*"
		}
		fmt.Fprintf(w, "  %d\t%s\t%v\t%.2f\t%s\n", l.ID, l.Name, l.Visible, l.Opacity, active)
	}
	return w.Flush()
}
