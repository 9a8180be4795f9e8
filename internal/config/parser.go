package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/layerpaint/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start from defaults so missing keys stay sane
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = setThemeField(currentTheme, key, value)
		case currentSection == "autosave":
			err = setAutosaveField(&cfg.Autosave, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "project_dir":
		cfg.ProjectDir = value
	case "history_cap":
		cfg.HistoryCap, err = strconv.Atoi(value)
	case "pen_width":
		cfg.PenWidth, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func setAutosaveField(a *Autosave, key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "enabled":
		a.Enabled, err = strconv.ParseBool(value)
	case "debounce":
		a.Debounce, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "save":
		n.Save = b
	case "export":
		n.Export = b
	case "autosave":
		n.Autosave = b
	}
	return nil
}

func setThemeField(t *theme.Theme, key, value string) error {
	col, err := theme.ParseColor(value)
	if err != nil {
		return fmt.Errorf("invalid color for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "background":
		t.Background = col
	case "checker_light":
		t.CheckerLight = col
	case "checker_dark":
		t.CheckerDark = col
	case "handle_fill":
		t.HandleFill = col
	case "handle_border":
		t.HandleBorder = col
	case "dash_a":
		t.DashA = col
	case "dash_b":
		t.DashB = col
	}
	return nil
}
