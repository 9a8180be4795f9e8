package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/layerpaint/internal/history"
	"github.com/example/layerpaint/internal/theme"
)

// Notify holds desktop-notification toggles per event.
type Notify struct {
	Save     bool
	Export   bool
	Autosave bool
}

// Autosave holds background persistence settings. Debounce is in
// seconds; zero falls back to the package default.
type Autosave struct {
	Enabled  bool
	Debounce int
}

// Config holds the application configuration.
type Config struct {
	Theme      string
	ProjectDir string
	HistoryCap int
	PenWidth   int
	Autosave   Autosave
	Notify     Notify
	Themes     map[string]*theme.Theme
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		HistoryCap: history.DefaultCap,
		PenWidth:   3,
		Autosave:   Autosave{Enabled: true},
		Themes:     make(map[string]*theme.Theme),
	}
}

// ResolveTheme returns the configured palette: a user-defined theme
// first, then a built-in, then the default.
func (c *Config) ResolveTheme() *theme.Theme {
	if t, ok := c.Themes[c.Theme]; ok {
		return t
	}
	t, _ := theme.Lookup(c.Theme)
	return t
}

// String implements fmt.Stringer and returns the configuration in RC
// format, round-trippable through Parse.
func (c *Config) String() string {
	var sb strings.Builder

	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.ProjectDir != "" {
		fmt.Fprintf(&sb, "project_dir = %s\n", c.ProjectDir)
	}
	fmt.Fprintf(&sb, "history_cap = %d\n", c.HistoryCap)
	fmt.Fprintf(&sb, "pen_width = %d\n", c.PenWidth)
	sb.WriteString("\n")

	sb.WriteString("[autosave]\n")
	fmt.Fprintf(&sb, "enabled = %v\n", c.Autosave.Enabled)
	fmt.Fprintf(&sb, "debounce = %d\n", c.Autosave.Debounce)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "autosave = %v\n", c.Notify.Autosave)
	sb.WriteString("\n")

	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "background = %s\n", theme.FormatColor(t.Background))
		fmt.Fprintf(&sb, "checker_light = %s\n", theme.FormatColor(t.CheckerLight))
		fmt.Fprintf(&sb, "checker_dark = %s\n", theme.FormatColor(t.CheckerDark))
		fmt.Fprintf(&sb, "handle_fill = %s\n", theme.FormatColor(t.HandleFill))
		fmt.Fprintf(&sb, "handle_border = %s\n", theme.FormatColor(t.HandleBorder))
		fmt.Fprintf(&sb, "dash_a = %s\n", theme.FormatColor(t.DashA))
		fmt.Fprintf(&sb, "dash_b = %s\n", theme.FormatColor(t.DashB))
		sb.WriteString("\n")
	}

	return sb.String()
}
