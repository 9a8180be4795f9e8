package ui

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/layerpaint/internal/theme"
	"github.com/example/layerpaint/internal/viewport"
)

// handleBoxPx is the drawn edge of a selection handle, in device
// pixels. It stays constant across zoom levels.
const handleBoxPx = 8

var messageFace = basicfont.Face7x13

// frame is everything a single repaint needs, captured on the event
// loop so the paint goroutine never touches the session.
type frame struct {
	width, height int
	canvas        *image.RGBA
	theme         *theme.Theme

	floatActive bool
	floatRect   image.Rectangle
	handles     [8]image.Rectangle

	selRect image.Rectangle

	message      string
	messageUntil time.Time
}

func (a *App) snapshotFrame(canvas *image.RGBA, width, height int, message string, messageUntil time.Time) frame {
	ses := a.session
	view := ses.Viewport()
	fr := frame{
		width:        width,
		height:       height,
		canvas:       canvas,
		theme:        ses.Compositor().Theme(),
		message:      message,
		messageUntil: messageUntil,
	}

	if r, ok := ses.Float().Rect(); ok {
		min := view.ToScreen(viewport.Pt(r.X, r.Y))
		max := view.ToScreen(viewport.Pt(r.X+r.W, r.Y+r.H))
		fr.floatActive = true
		fr.floatRect = image.Rect(int(min.X), int(min.Y), int(max.X), int(max.Y))
		for i, h := range ses.Float().Handles() {
			p := view.ToScreen(viewport.Pt(h.X, h.Y))
			cx, cy := int(p.X), int(p.Y)
			hs := handleBoxPx / 2
			fr.handles[i] = image.Rect(cx-hs, cy-hs, cx+hs, cy+hs)
		}
	}

	if sel := ses.SelectionRect(); !sel.Empty() {
		min := view.ToScreen(viewport.Pt(float64(sel.Min.X), float64(sel.Min.Y)))
		max := view.ToScreen(viewport.Pt(float64(sel.Max.X), float64(sel.Max.Y)))
		fr.selRect = image.Rect(int(min.X), int(min.Y), int(max.X), int(max.Y))
	}
	return fr
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, fr frame) {
	b, err := s.NewBuffer(image.Point{fr.width, fr.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()

	draw.Draw(b.RGBA(), b.Bounds(), fr.canvas, fr.canvas.Bounds().Min, draw.Src)
	if ctx.Err() != nil {
		return
	}

	if !fr.selRect.Empty() {
		drawDashedRect(b.RGBA(), fr.selRect, 4, 1, fr.theme.DashA, fr.theme.DashB)
	}

	if fr.floatActive {
		drawDashedRect(b.RGBA(), fr.floatRect, 4, 1, fr.theme.DashA, fr.theme.DashB)
		for _, hr := range fr.handles {
			if ctx.Err() != nil {
				return
			}
			draw.Draw(b.RGBA(), hr, &image.Uniform{fr.theme.HandleFill}, image.Point{}, draw.Src)
			drawRectOutline(b.RGBA(), hr, fr.theme.HandleBorder)
		}
	}

	if ctx.Err() != nil {
		return
	}

	if fr.message != "" && time.Now().Before(fr.messageUntil) {
		d := &font.Drawer{Dst: b.RGBA(), Src: image.Black, Face: messageFace}
		wmsg := d.MeasureString(fr.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		px := (fr.width - wmsg) / 2
		py := fr.height - descent - 12
		rect := image.Rect(px-8, py-ascent-6, px+wmsg+8, py+descent+6)
		draw.Draw(b.RGBA(), rect, &image.Uniform{color.RGBA{255, 255, 255, 230}}, image.Point{}, draw.Over)
		drawRectOutline(b.RGBA(), rect, color.RGBA{0, 0, 0, 255})
		d.Dot = fixed.P(px, py)
		d.DrawString(fr.message)
	}

	if ctx.Err() != nil {
		return
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

func drawDashedLine(img *image.RGBA, x0, y0, x1, y1, dash, thickness int, c1, c2 color.Color) {
	horiz := y0 == y1
	length := x1 - x0
	if !horiz {
		length = y1 - y0
	}
	if length < 0 {
		length = -length
	}
	set := func(off, t int, col color.Color) {
		if horiz {
			if x0 < x1 {
				img.Set(x0+off, y0+t, col)
			} else {
				img.Set(x0-off, y0+t, col)
			}
			return
		}
		if y0 < y1 {
			img.Set(x0+t, y0+off, col)
		} else {
			img.Set(x0+t, y0-off, col)
		}
	}
	for i := 0; i <= length; i += dash * 2 {
		for j := 0; j < dash && i+j <= length; j++ {
			for t := 0; t < thickness; t++ {
				set(i+j, t, c1)
			}
		}
		for j := 0; j < dash && i+dash+j <= length; j++ {
			for t := 0; t < thickness; t++ {
				set(i+dash+j, t, c2)
			}
		}
	}
}

func drawDashedRect(img *image.RGBA, rect image.Rectangle, dash, thickness int, c1, c2 color.Color) {
	drawDashedLine(img, rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Min.Y, rect.Max.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Max.X, rect.Max.Y, rect.Min.X, rect.Max.Y, dash, thickness, c1, c2)
	drawDashedLine(img, rect.Min.X, rect.Max.Y, rect.Min.X, rect.Min.Y, dash, thickness, c1, c2)
}

func drawRectOutline(img *image.RGBA, rect image.Rectangle, col color.Color) {
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, col)
		img.Set(x, rect.Max.Y-1, col)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, col)
		img.Set(rect.Max.X-1, y, col)
	}
}
