package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/layerpaint/internal/config"
	"github.com/example/layerpaint/internal/notify"
	"github.com/example/layerpaint/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs             *flag.FlagSet
	program        string
	config         *config.Config
	notifier       *notify.Notifier
	saveAlerts     bool
	exportAlerts   bool
	autosaveAlerts bool
	themeName      string
	activeTheme    *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:        program,
		config:         r.config,
		notifier:       r.notifier,
		saveAlerts:     r.saveAlerts,
		exportAlerts:   r.exportAlerts,
		autosaveAlerts: r.autosaveAlerts,
		themeName:      r.themeName,
		activeTheme:    r.activeTheme,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("layerpaint", flag.ExitOnError),
		program:  "layerpaint",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving a project")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting a PNG")
	r.fs.BoolVar(&r.autosaveAlerts, "notify-autosave", cfg.Notify.Autosave, "show a desktop notification after each autosave")

	// Precedence: CLI > Env > Config > Default. The flag default stays
	// empty so Run can tell an explicit choice from the fallback chain.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventSave, r.saveAlerts)
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventAutosave, r.autosaveAlerts)
	}

	themeName := r.themeName
	if themeName == "" {
		themeName = os.Getenv("LAYERPAINT_THEME")
	}
	if themeName == "" {
		themeName = r.config.Theme
	}

	if t, ok := r.config.Themes[themeName]; ok {
		r.activeTheme = t
	} else {
		t, err := theme.Lookup(themeName)
		if err != nil && themeName != "" && themeName != "default" {
			fmt.Fprintf(os.Stderr, "warning: unknown theme '%s': %v. using default.\n", themeName, err)
		}
		r.activeTheme = t
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "new":
		cmd, err = parseNewCmd(subArgs, r.subcommand("new"))
	case "edit":
		cmd, err = parseEditCmd(subArgs, r.subcommand("edit"))
	case "export":
		cmd, err = parseExportCmd(subArgs, r.subcommand("export"))
	case "info":
		cmd, err = parseInfoCmd(subArgs, r.subcommand("info"))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand("config"))
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}
