// Package ui hosts an editor session in a shiny window: it routes
// pointer and keyboard events into the session and paints composited
// frames on a dedicated goroutine so slow repaints never block input.
package ui

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/layerpaint/internal/clipboard"
	"github.com/example/layerpaint/internal/editor"
	"github.com/example/layerpaint/internal/notify"
	"github.com/example/layerpaint/internal/project"
	"github.com/example/layerpaint/internal/tool"
	"github.com/example/layerpaint/internal/viewport"
)

// frameDropThreshold caps how many queued frames may be cancelled in a
// row before one is allowed to finish, so the window never goes stale
// under a stream of invalidations.
const frameDropThreshold = 10

const (
	minWindowW = 640
	minWindowH = 480
)

const wheelZoomStep = 1.2

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// App owns one window over one session. Construct with New, then Run.
type App struct {
	session  *editor.Session
	path     string
	title    string
	notifier *notify.Notifier
	saver    *project.Autosaver

	closeOnce sync.Once
	onClose   func()
}

// Option configures an App.
type Option func(*App)

// WithPath sets the project file the save shortcut and autosaver write.
func WithPath(path string) Option {
	return func(a *App) { a.path = path }
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(a *App) { a.title = title }
}

// WithNotifier routes save and export confirmations to the desktop.
func WithNotifier(n *notify.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// WithAutosaver persists the document in the background after edits.
func WithAutosaver(s *project.Autosaver) Option {
	return func(a *App) { a.saver = s }
}

// WithOnClose registers a callback invoked once when the window dies.
func WithOnClose(fn func()) Option {
	return func(a *App) { a.onClose = fn }
}

// New wraps a session for display.
func New(s *editor.Session, opts ...Option) *App {
	a := &App{session: s, title: "LayerPaint"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// Run executes the UI loop using shiny's driver.
func (a *App) Run() { driver.Main(a.Main) }

func (a *App) Main(s screen.Screen) {
	ses := a.session
	doc := ses.Document()

	width := doc.W
	if width < minWindowW {
		width = minWindowW
	}
	height := doc.H
	if height < minWindowH {
		height = minWindowH
	}
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: a.title})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	defer a.notifyClose()

	ses.SetListeners(editor.Listeners{
		HistoryChanged: func(bool, bool) {
			if a.saver != nil {
				a.saver.Changed(ses.Document(), ses.History())
			}
			w.Send(paint.Event{})
		},
		LayersChanged: func() {
			w.Send(paint.Event{})
		},
	})
	defer ses.SetListeners(editor.Listeners{})

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	ses.Viewport().Fit(width, height, doc.W, doc.H)

	var drawing bool
	var panning bool
	var panLast viewport.Point
	var message string
	var messageUntil time.Time

	showMessage := func(text string) {
		message = text
		log.Print(text)
		messageUntil = time.Now().Add(2 * time.Second)
	}

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan frame, 1)
	go func() {
		for fr := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, fr)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
		}
	}()

	keyboardAction := map[KeyShortcut]string{}
	actions := map[string]func(){}
	register := func(name string, keys KeyboardShortcuts, fn func()) {
		actions[name] = fn
		if keys != nil {
			for _, sc := range keys.KeyboardShortcuts() {
				keyboardAction[sc] = name
			}
		}
	}

	register("pen", shortcutList{{Rune: 'p'}}, func() {
		ses.SetTool(tool.Pen, editor.ToolContinuous)
		showMessage("pen")
	})
	register("line", shortcutList{{Rune: 'l'}}, func() {
		ses.SetTool(tool.Line, editor.ToolShape)
		showMessage("line")
	})
	register("rect", shortcutList{{Rune: 'r'}}, func() {
		ses.SetTool(tool.Rect, editor.ToolShape)
		showMessage("rectangle")
	})
	register("fillrect", shortcutList{{Rune: 'r', Modifiers: key.ModShift}}, func() {
		ses.SetTool(tool.FilledRect, editor.ToolShape)
		showMessage("filled rectangle")
	})
	register("ellipse", shortcutList{{Rune: 'o'}}, func() {
		ses.SetTool(tool.Ellipse, editor.ToolShape)
		showMessage("ellipse")
	})
	register("fillellipse", shortcutList{{Rune: 'o', Modifiers: key.ModShift}}, func() {
		ses.SetTool(tool.FilledEllipse, editor.ToolShape)
		showMessage("filled ellipse")
	})
	register("fill", shortcutList{{Rune: 'f'}}, func() {
		ses.SetTool(tool.Fill, editor.ToolInstant)
		showMessage("fill")
	})
	register("marquee", shortcutList{{Rune: 'm'}}, func() {
		ses.SetTool(nil, editor.ToolSelect)
		showMessage("select")
	})

	register("undo", shortcutList{{Rune: 'z', Modifiers: key.ModControl}}, func() {
		ses.Undo()
	})
	register("redo", shortcutList{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}, func() {
		ses.Redo()
	})

	register("commit", shortcutList{{Code: key.CodeEscape}}, func() {
		ses.CommitFloat()
	})
	register("discard", shortcutList{
		{Code: key.CodeDeleteForward},
		{Code: key.CodeDeleteBackspace},
	}, func() {
		ses.DiscardFloat()
	})

	register("zoomin", shortcutList{{Rune: '+'}, {Rune: '+', Modifiers: key.ModShift}, {Rune: '='}}, func() {
		ses.Viewport().ZoomCenter(wheelZoomStep, width, height)
	})
	register("zoomout", shortcutList{{Rune: '-'}}, func() {
		ses.Viewport().ZoomCenter(1/wheelZoomStep, width, height)
	})
	register("fit", shortcutList{{Rune: '0'}}, func() {
		d := ses.Document()
		ses.Viewport().Fit(width, height, d.W, d.H)
	})

	register("addlayer", shortcutList{{Rune: 'n', Modifiers: key.ModControl | key.ModShift}}, func() {
		l := ses.AddLayer(fmt.Sprintf("Layer %d", ses.Document().Count()+1))
		showMessage("added " + l.Name)
	})
	register("layerup", shortcutList{{Code: key.CodePageUp}}, func() {
		a.cycleLayer(1, showMessage)
	})
	register("layerdown", shortcutList{{Code: key.CodePageDown}}, func() {
		a.cycleLayer(-1, showMessage)
	})

	register("save", shortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() {
		if a.path == "" {
			showMessage("no project path; start with a file argument to save")
			return
		}
		ses.CommitFloat()
		if err := project.Save(a.path, ses.Document(), ses.History()); err != nil {
			log.Printf("save: %v", err)
			showMessage("save failed")
			return
		}
		if a.notifier != nil {
			a.notifier.Save(a.path)
		}
		showMessage("saved " + filepath.Base(a.path))
	})
	register("export", shortcutList{{Rune: 'e', Modifiers: key.ModControl}}, func() {
		out := a.exportPath()
		img := ses.Export()
		if err := writePNG(out, img); err != nil {
			log.Printf("export: %v", err)
			showMessage("export failed")
			return
		}
		if a.notifier != nil {
			a.notifier.Export(out, img)
		}
		showMessage("exported " + filepath.Base(out))
	})
	register("copy", shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() {
		if err := clipboard.WriteImage(ses.Export()); err != nil {
			log.Printf("copy: %v", err)
			return
		}
		showMessage("image copied to clipboard")
	})
	register("paste", shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() {
		img, err := clipboard.ReadImage()
		if err != nil {
			log.Printf("paste: %v", err)
			return
		}
		center := ses.Viewport().ToDocument(viewport.Pt(float64(width)/2, float64(height)/2))
		b := img.Bounds()
		sizePx := b.Dx()
		if b.Dy() > sizePx {
			sizePx = b.Dy()
		}
		if !ses.PasteStamp(img, image.Pt(int(center.X), int(center.Y)), sizePx) {
			log.Printf("paste: empty clipboard image")
		}
	})

	handleShortcut := func(action string) {
		if fn, ok := actions[action]; ok {
			fn()
		}
		w.Send(paint.Event{})
	}

	for {
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			if canvas.Bounds().Dx() != width || canvas.Bounds().Dy() != height {
				canvas = image.NewRGBA(image.Rect(0, 0, width, height))
				ses.Viewport().Pan(0, 0) // force recomposite at the new size
			}
			ses.Render(canvas)
			fr := a.snapshotFrame(canvas, width, height, message, messageUntil)
			select {
			case paintCh <- fr:
			default:
				<-paintCh
				paintCh <- fr
			}
		case mouse.Event:
			pt := viewport.Pt(float64(e.X), float64(e.Y))
			switch {
			case e.Button == mouse.ButtonWheelUp && e.Direction == mouse.DirPress:
				ses.Viewport().ZoomAt(wheelZoomStep, pt)
				w.Send(paint.Event{})
			case e.Button == mouse.ButtonWheelDown && e.Direction == mouse.DirPress:
				ses.Viewport().ZoomAt(1/wheelZoomStep, pt)
				w.Send(paint.Event{})
			case e.Button == mouse.ButtonMiddle && e.Direction == mouse.DirPress:
				panning = true
				panLast = pt
			case panning && e.Direction == mouse.DirNone:
				ses.Viewport().Pan(pt.X-panLast.X, pt.Y-panLast.Y)
				panLast = pt
				w.Send(paint.Event{})
			case e.Button == mouse.ButtonMiddle && e.Direction == mouse.DirRelease:
				panning = false
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				drawing = true
				ses.PointerDown(pt)
				w.Send(paint.Event{})
			case drawing && e.Direction == mouse.DirNone:
				ses.PointerDrag(pt)
				w.Send(paint.Event{})
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				if drawing {
					drawing = false
					ses.PointerUp(pt)
					w.Send(paint.Event{})
				}
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			r := e.Rune
			if r < 0 {
				r = 0
			}
			// Shortcuts are registered on either a rune or a key code;
			// try the rune form first so layout remapping wins.
			if r > 0 {
				ks := KeyShortcut{Rune: unicode.ToLower(r), Modifiers: e.Modifiers}
				if action, ok := keyboardAction[ks]; ok {
					handleShortcut(action)
					continue
				}
			}
			ks := KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}
			if action, ok := keyboardAction[ks]; ok {
				handleShortcut(action)
			}
		case error:
			log.Printf("ui: %v", e)
		}
	}
}

// cycleLayer moves the active layer up or down the stack.
func (a *App) cycleLayer(delta int, showMessage func(string)) {
	doc := a.session.Document()
	idx := doc.Index(doc.ActiveID())
	if idx < 0 {
		return
	}
	next := idx + delta
	layers := doc.Layers()
	if next < 0 || next >= len(layers) {
		return
	}
	if err := a.session.SetActiveLayer(layers[next].ID); err != nil {
		log.Printf("switch layer: %v", err)
		return
	}
	showMessage(layers[next].Name)
}

// exportPath derives a PNG destination from the project path, falling
// back to the working directory for unsaved documents.
func (a *App) exportPath() string {
	if a.path == "" {
		return "layerpaint.png"
	}
	base := strings.TrimSuffix(a.path, filepath.Ext(a.path))
	return base + ".png"
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
