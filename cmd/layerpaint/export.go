package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/layerpaint/internal/compose"
	"github.com/example/layerpaint/internal/project"
	"github.com/example/layerpaint/internal/render"
)

type exportCmd struct {
	*root
	fs            *flag.FlagSet
	output        string
	stdout        bool
	shadow        bool
	shadowRadius  int
	shadowOffset  string
	shadowPoint   image.Point
	shadowOpacity float64
}

func (e *exportCmd) FlagSet() *flag.FlagSet { return e.fs }

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	e := &exportCmd{root: r, fs: fs}
	fs.Usage = usageFunc(e)
	defaults := render.DefaultShadowOptions()
	fs.StringVar(&e.output, "output", "", "write the flattened PNG to this path (default: project name with .png)")
	fs.BoolVar(&e.stdout, "stdout", false, "write PNG data to stdout")
	fs.BoolVar(&e.shadow, "shadow", false, "mat the export onto a drop shadow")
	fs.IntVar(&e.shadowRadius, "shadow-radius", defaults.Radius, "drop shadow blur radius in pixels")
	fs.StringVar(&e.shadowOffset, "shadow-offset", formatShadowOffset(defaults.Offset), "drop shadow offset as dx,dy")
	fs.Float64Var(&e.shadowOpacity, "shadow-opacity", defaults.Opacity, "drop shadow opacity between 0 and 1")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	pt, err := parseShadowOffset(e.shadowOffset)
	if err != nil {
		return nil, err
	}
	e.shadowPoint = pt
	if e.stdout && e.output != "" {
		return nil, fmt.Errorf("-stdout cannot be used with -output")
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: e}
	}
	return e, nil
}

func (e *exportCmd) Run() error {
	path := e.fs.Arg(0)
	doc, _, err := project.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	img := compose.New(e.activeTheme).Flatten(doc)
	if e.shadow {
		img = render.DropShadow(img, render.ShadowOptions{
			Radius:  e.shadowRadius,
			Offset:  e.shadowPoint,
			Opacity: e.shadowOpacity,
		})
	}

	if e.stdout {
		return png.Encode(os.Stdout, img)
	}

	out := e.output
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if e.notifier != nil {
		e.notifier.Export(out, img)
	}
	fmt.Printf("exported %s\n", out)
	return nil
}

func formatShadowOffset(pt image.Point) string {
	return fmt.Sprintf("%d,%d", pt.X, pt.Y)
}

func parseShadowOffset(s string) (image.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("invalid shadow offset %q, want dx,dy", s)
	}
	dx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid shadow offset %q: %w", s, err)
	}
	dy, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid shadow offset %q: %w", s, err)
	}
	return image.Pt(dx, dy), nil
}
