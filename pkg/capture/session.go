// Package capture builds templates by letting an operator click labeled points
// on a displayed image.
//
// A Session is the state of one capture. Clicks arrive in display space, which
// may be a downscaled copy of the image; points are always recorded in the
// original image's pixel space. Nothing is written until Finish, and Cancel
// leaves no file behind.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/fonts"
	"github.com/xob0t/PixelTyper/pkg/imagefile"
	"github.com/xob0t/PixelTyper/pkg/render"
	"github.com/xob0t/PixelTyper/pkg/template"
)

// State is a capture session state.
type State int

const (
	Idle State = iota
	Displaying
	AwaitingLabel
	Finished
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Displaying:
		return "displaying"
	case AwaitingLabel:
		return "awaiting-label"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further input is accepted.
func (s State) Terminal() bool { return s == Finished || s == Cancelled }

var (
	// ErrSessionClosed is returned by operations on a finished or cancelled
	// session.
	ErrSessionClosed = errors.New("capture session closed")
	// ErrState is returned when an input does not fit the current state, such
	// as a click while a label is pending.
	ErrState = errors.New("input not valid in current state")
)

// Default display box.
const (
	DefaultMaxWidth  = 1280
	DefaultMaxHeight = 720
)

const markerRadius = 5

var (
	markerColor = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	labelColor  = render.RGB{R: 220, G: 0, B: 0}
)

// Saver persists a finished template.
type Saver interface {
	Save(name string, pts template.Points) error
}

// Options configures a session.
type Options struct {
	MaxWidth  int // display box width, DefaultMaxWidth when 0
	MaxHeight int // display box height, DefaultMaxHeight when 0
	Log       logrus.FieldLogger
}

// Session is one interactive capture. It is not safe for concurrent use.
type Session struct {
	ID string

	name    string
	store   Saver
	log     logrus.FieldLogger
	state   State
	scale   float64
	size    image.Point
	display *image.RGBA

	pending        image.Point // original space
	pendingDisplay image.Point
	points         template.Points
}

// NewSession loads imagePath and prepares its display surface. The session
// starts in Displaying.
func NewSession(store Saver, name, imagePath string, opts Options) (*Session, error) {
	if err := template.ValidateName(name); err != nil {
		return nil, err
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultMaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = DefaultMaxHeight
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	s := &Session{
		ID:    uuid.NewString(),
		name:  name,
		store: store,
		state: Idle,
	}
	s.log = opts.Log.WithFields(logrus.Fields{"session": s.ID, "template": name})

	src, err := imagefile.Load(imagePath)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	s.size = b.Size()
	if s.size.X == 0 || s.size.Y == 0 {
		return nil, fmt.Errorf("image %s is empty: %w", imagePath, apperr.ErrLoad)
	}
	s.scale = Scale(s.size.X, s.size.Y, opts.MaxWidth, opts.MaxHeight)
	s.display = displaySurface(src, s.scale)
	s.state = Displaying

	s.log.WithFields(logrus.Fields{
		"width":  s.size.X,
		"height": s.size.Y,
		"scale":  s.scale,
	}).Info("capture started")
	return s, nil
}

// Scale returns the factor that fits a w×h image inside a maxW×maxH box. It
// never exceeds 1.
func Scale(w, h, maxW, maxH int) float64 {
	return min(float64(maxW)/float64(w), float64(maxH)/float64(h), 1.0)
}

func displaySurface(src image.Image, scale float64) *image.RGBA {
	if scale >= 1 {
		return imagefile.ToRGB(src)
	}
	b := src.Bounds()
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// ToOriginal converts a display-space position to original image space.
func (s *Session) ToOriginal(dx, dy int) image.Point {
	return image.Pt(
		int(math.Round(float64(dx)/s.scale)),
		int(math.Round(float64(dy)/s.scale)),
	)
}

// Name returns the template name.
func (s *Session) Name() string { return s.name }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Scale returns the display scale.
func (s *Session) Scale() float64 { return s.scale }

// ImageSize returns the original image dimensions.
func (s *Session) ImageSize() image.Point { return s.size }

// Display returns the display surface with feedback markers. The image is
// owned by the session and changes as labels are submitted.
func (s *Session) Display() *image.RGBA { return s.display }

// Points returns a copy of the points captured so far.
func (s *Session) Points() template.Points { return s.points.Clone() }

func (s *Session) expect(want State) error {
	if s.state.Terminal() {
		return ErrSessionClosed
	}
	if s.state != want {
		return fmt.Errorf("%w: %s", ErrState, s.state)
	}
	return nil
}

// Click records a primary-button click at display position (dx, dy) and
// waits for its label.
func (s *Session) Click(dx, dy int) error {
	if err := s.expect(Displaying); err != nil {
		return err
	}
	s.pending = s.ToOriginal(dx, dy)
	s.pendingDisplay = image.Pt(dx, dy)
	s.state = AwaitingLabel
	return nil
}

// SubmitLabel names the pending point. A blank label discards the point and
// reports false. A label already used replaces the earlier point.
func (s *Session) SubmitLabel(label string) (bool, error) {
	if err := s.expect(AwaitingLabel); err != nil {
		return false, err
	}
	s.state = Displaying

	label = strings.TrimSpace(label)
	if label == "" {
		s.log.WithField("at", s.pending).Debug("blank label, point skipped")
		return false, nil
	}

	if s.points.Has(label) {
		s.log.WithField("point", label).Info("label reused, earlier point replaced")
	}
	s.points.Set(label, template.NewPoint(s.pending.X, s.pending.Y))
	s.mark(s.pendingDisplay, label)

	s.log.WithFields(logrus.Fields{"point": label, "x": s.pending.X, "y": s.pending.Y}).Info("point captured")
	return true, nil
}

// mark draws a dot and the label at a display position. The label goes to
// the right of the dot unless it would run off the surface.
func (s *Session) mark(at image.Point, label string) {
	r2 := markerRadius * markerRadius
	for y := -markerRadius; y <= markerRadius; y++ {
		for x := -markerRadius; x <= markerRadius; x++ {
			if x*x+y*y <= r2 {
				s.display.SetRGBA(at.X+x, at.Y+y, markerColor)
			}
		}
	}
	face := fonts.Fallback()
	pos := at.Add(image.Pt(markerRadius+3, -markerRadius))
	if w, _ := render.Measure(face, label); pos.X+w > s.display.Bounds().Max.X {
		pos.X = max(0, at.X-markerRadius-3-w)
	}
	render.DrawText(s.display, pos, label, labelColor, face, 100)
}

// Finish ends the session and saves the captured points once. A pending
// unlabeled click is discarded. The session is terminal even when the save
// fails.
func (s *Session) Finish() (template.Points, error) {
	if s.state.Terminal() {
		return template.Points{}, ErrSessionClosed
	}
	s.state = Finished
	pts := s.points.Clone()

	if err := s.store.Save(s.name, pts); err != nil {
		s.log.WithError(err).Error("saving template failed")
		return pts, err
	}
	s.log.WithField("points", pts.Len()).Info("capture finished")
	return pts, nil
}

// Cancel ends the session without saving. It is a no-op on a terminal
// session.
func (s *Session) Cancel() {
	if s.state.Terminal() {
		return
	}
	s.state = Cancelled
	s.points = template.Points{}
	s.log.Info("capture cancelled")
}
