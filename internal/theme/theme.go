// Package theme defines the canvas color palette: everything the
// compositor and overlay renderer need that is taste rather than data.
package theme

import (
	"fmt"
	"image/color"
	"strings"
)

// Theme holds the colors used around and on top of the document canvas.
type Theme struct {
	Name string

	// Background fills the window area outside the document.
	Background color.RGBA

	// CheckerLight and CheckerDark form the transparency indicator
	// pattern behind the layer stack.
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Floating selection overlay.
	HandleFill   color.RGBA
	HandleBorder color.RGBA
	DashA        color.RGBA
	DashB        color.RGBA
}

// Default returns the light theme used when nothing is configured.
func Default() *Theme {
	return &Theme{
		Name:         "default",
		Background:   color.RGBA{220, 220, 220, 255},
		CheckerLight: color.RGBA{220, 220, 220, 255},
		CheckerDark:  color.RGBA{192, 192, 192, 255},
		HandleFill:   color.RGBA{255, 255, 255, 255},
		HandleBorder: color.RGBA{0, 0, 0, 255},
		DashA:        color.RGBA{255, 255, 255, 255},
		DashB:        color.RGBA{0, 0, 0, 255},
	}
}

// Dark returns the bundled dark theme.
func Dark() *Theme {
	return &Theme{
		Name:         "dark",
		Background:   color.RGBA{40, 40, 44, 255},
		CheckerLight: color.RGBA{70, 70, 76, 255},
		CheckerDark:  color.RGBA{54, 54, 60, 255},
		HandleFill:   color.RGBA{230, 230, 230, 255},
		HandleBorder: color.RGBA{20, 20, 20, 255},
		DashA:        color.RGBA{240, 240, 240, 255},
		DashB:        color.RGBA{30, 30, 30, 255},
	}
}

// Names lists the built-in theme names.
func Names() []string { return []string{"default", "dark"} }

// Lookup resolves a built-in theme by name. Unknown names fall back to
// the default with an error so callers can warn but keep running.
func Lookup(name string) (*Theme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return Default(), nil
	case "dark":
		return Dark(), nil
	}
	return Default(), fmt.Errorf("theme: unknown theme %q", name)
}
