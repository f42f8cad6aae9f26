// Package desktop shows a capture session in a native window.
//
// Ebitengine must own the main goroutine, so Capture runs the window loop on
// the calling goroutine and the capture loop on a worker. The worker talks to
// the window through the Operator methods below.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/xob0t/PixelTyper/pkg/capture"
)

type mode int

const (
	modeBusy mode = iota
	modeSelecting
	modeLabeling
)

// window is both the ebiten.Game and the capture.Operator.
type window struct {
	events chan capture.Event
	labels chan string
	done   chan struct{}
	cancel context.CancelFunc

	mu      sync.Mutex
	frame   *image.RGBA
	dirty   bool
	mode    mode
	labelAt image.Point
	input   []rune

	screen *ebiten.Image
}

func newWindow(cancel context.CancelFunc) *window {
	return &window{
		events: make(chan capture.Event, 1),
		labels: make(chan string, 1),
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Capture opens a window over s and runs the capture until the operator
// finishes, cancels, or closes the window. It must be called from the main
// goroutine.
func Capture(ctx context.Context, s *capture.Session) (*capture.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := newWindow(cancel)
	type outcome struct {
		res *capture.Result
		err error
	}
	result := make(chan outcome, 1)
	go func() {
		res, err := capture.Run(ctx, s, w)
		close(w.done)
		result <- outcome{res, err}
	}()

	b := s.Display().Bounds()
	ebiten.SetWindowTitle(fmt.Sprintf("PixelTyper - %s", s.Name()))
	ebiten.SetWindowSize(b.Dx(), b.Dy())
	ebiten.SetWindowClosingHandled(true)

	gameErr := ebiten.RunGame(w)
	cancel()
	out := <-result

	if gameErr != nil && !errors.Is(gameErr, ebiten.Termination) {
		return out.res, fmt.Errorf("capture window: %w", gameErr)
	}
	return out.res, out.err
}

// Next implements capture.Operator.
func (w *window) Next(ctx context.Context, display image.Image) (capture.Event, error) {
	w.show(display, modeSelecting)
	select {
	case <-ctx.Done():
		return capture.Event{}, ctx.Err()
	case ev := <-w.events:
		return ev, nil
	}
}

// Label implements capture.Operator.
func (w *window) Label(ctx context.Context, at image.Point) (string, error) {
	w.mu.Lock()
	w.mode = modeLabeling
	w.labelAt = at
	w.input = w.input[:0]
	w.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-w.labels:
		return l, nil
	}
}

// show copies display for the render loop.
func (w *window) show(display image.Image, m mode) {
	b := display.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), display, b.Min, draw.Src)

	w.mu.Lock()
	w.frame = frame
	w.dirty = true
	w.mode = m
	w.mu.Unlock()
}

func (w *window) send(ev capture.Event) {
	select {
	case w.events <- ev:
	default:
	}
}

func (w *window) Update() error {
	select {
	case <-w.done:
		return ebiten.Termination
	default:
	}

	if ebiten.IsWindowBeingClosed() {
		// The worker may be blocked on either channel.
		w.cancel()
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.mode {
	case modeSelecting:
		switch {
		case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
			x, y := ebiten.CursorPosition()
			w.mode = modeBusy
			w.send(capture.Event{Kind: capture.EventClick, At: image.Pt(x, y)})
		case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEnter):
			w.mode = modeBusy
			w.send(capture.Event{Kind: capture.EventFinish})
		case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
			w.mode = modeBusy
			w.send(capture.Event{Kind: capture.EventCancel})
		}

	case modeLabeling:
		w.input = ebiten.AppendInputChars(w.input)
		switch {
		case inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(w.input) > 0:
			w.input = w.input[:len(w.input)-1]
		case inpututil.IsKeyJustPressed(ebiten.KeyEnter), inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter):
			w.mode = modeBusy
			w.labels <- string(w.input)
		case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
			// An empty label skips the point.
			w.mode = modeBusy
			w.labels <- ""
		}
	}
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	if w.dirty {
		w.screen = ebiten.NewImageFromImage(w.frame)
		w.dirty = false
	}
	m, at, input := w.mode, w.labelAt, string(w.input)
	w.mu.Unlock()

	if w.screen != nil {
		screen.DrawImage(w.screen, nil)
	}

	switch m {
	case modeSelecting:
		ebitenutil.DebugPrintAt(screen, "click: add point   Q/Enter: save   Esc: cancel", 4, 4)
	case modeLabeling:
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("label for (%d, %d): %s_", at.X, at.Y, input), 4, 4)
		ebitenutil.DebugPrintAt(screen, "Enter: confirm   Esc: skip point", 4, 20)
	}
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frame == nil {
		return outsideWidth, outsideHeight
	}
	b := w.frame.Bounds()
	return b.Dx(), b.Dy()
}
