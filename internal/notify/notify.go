// Package notify sends desktop notifications for persistence events.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/layerpaint/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave emits a notification when a project is saved.
	EventSave Event = "save"
	// EventExport emits a notification when a flattened image is exported.
	EventExport Event = "export"
	// EventAutosave emits a notification when a background save completes.
	EventAutosave Event = "autosave"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "LayerPaint",
		Events: map[Event]EventPreference{
			EventSave:     {Template: "Saved %s"},
			EventExport:   {Template: "Exported %s"},
			EventAutosave: {Template: "Autosaved %s"},
		},
	}
}

// LoadPreferences reads template overrides from environment variables.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("LAYERPAINT_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply("LAYERPAINT_NOTIFY_SAVE_TEXT", EventSave)
	apply("LAYERPAINT_NOTIFY_EXPORT_TEXT", EventExport)
	apply("LAYERPAINT_NOTIFY_AUTOSAVE_TEXT", EventAutosave)
	return prefs
}

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
}

// New creates a Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool)}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Save announces a completed project save.
func (n *Notifier) Save(path string) {
	n.pathEvent(EventSave, path)
}

// Autosave announces a completed background save.
func (n *Notifier) Autosave(path string) {
	n.pathEvent(EventAutosave, path)
}

// Export announces a completed export with a preview of the flattened
// image when the platform supports notification icons.
func (n *Notifier) Export(path string, img image.Image) {
	if !n.enabledFor(EventExport) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if preview, cleanup, err := createPreview(img); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = preview
		}
	}
	n.dispatch(EventExport, displayPath(path), opts)
}

func (n *Notifier) pathEvent(event Event, path string) {
	if !n.enabledFor(event) {
		return
	}
	opts := platform.Options{}
	if event == EventAutosave {
		// Autosaves recur; keep their toasts short.
		opts.TimeoutMS = 2000
	}
	n.dispatch(event, displayPath(path), opts)
}

func displayPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return strings.TrimSpace(path)
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil || n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := platform.Notify(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if n == nil {
		return ""
	}
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "layerpaint-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
