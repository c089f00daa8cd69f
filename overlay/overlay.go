// Package overlay draws the status panel shown over the fractal.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const Title = "Mandelbrot Viewer"

// Panel geometry in window pixels.
const (
	PanelX      = 5
	PanelY      = 5
	PanelWidth  = 330
	titleSize   = 20
	lineSize    = 12
	lineSpacing = 15
	textInset   = 10
	firstLine   = 35
	bottomInset = 5
)

var (
	SkyBlue  = color.NRGBA{R: 102, G: 191, B: 255, A: 178}
	Blue     = color.RGBA{R: 0, G: 121, B: 241, A: 255}
	DarkBlue = color.RGBA{R: 0, G: 82, B: 172, A: 255}
	Lime     = color.RGBA{R: 0, G: 158, B: 47, A: 255}
)

// PanelHeight returns the panel height for n status lines.
func PanelHeight(n int) int {
	return firstLine + lineSpacing*n + bottomInset
}

// Overlay renders status text into a transparent, premultiplied RGBA image
// the size of the window. It redraws only when the text changes.
type Overlay struct {
	img *image.RGBA

	title font.Face
	body  font.Face

	lines []string
	fps   string
}

func New(width, height int) (*Overlay, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("overlay size %dx%d must be positive", width, height)
	}

	title, err := newFace(gobold.TTF, titleSize)
	if err != nil {
		return nil, fmt.Errorf("title font: %w", err)
	}
	body, err := newFace(gomono.TTF, lineSize)
	if err != nil {
		return nil, fmt.Errorf("body font: %w", err)
	}

	return &Overlay{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		title: title,
		body:  body,
	}, nil
}

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Image returns the last drawn overlay.
func (o *Overlay) Image() *image.RGBA {
	return o.img
}

// Draw renders the panel with lines and the frame rate readout. It reports
// whether the image changed.
func (o *Overlay) Draw(lines []string, fps float64) bool {
	fpsText := fmt.Sprintf("%.0f FPS", fps)
	if slices.Equal(lines, o.lines) && fpsText == o.fps && o.lines != nil {
		return false
	}
	o.lines = slices.Clone(lines)
	if o.lines == nil {
		o.lines = []string{}
	}
	o.fps = fpsText

	clear(o.img.Pix)

	panel := image.Rect(PanelX, PanelY, PanelX+PanelWidth, PanelY+PanelHeight(len(lines)))
	draw.Draw(o.img, panel, image.NewUniform(SkyBlue), image.Point{}, draw.Over)
	o.outline(panel, Blue)

	o.text(o.title, Blue, PanelX+textInset, PanelY+textInset, Title)
	for i, line := range lines {
		o.text(o.body, DarkBlue, PanelX+textInset, PanelY+firstLine+i*lineSpacing, line)
	}

	width := font.MeasureString(o.body, fpsText).Ceil()
	o.text(o.body, Lime, o.img.Rect.Dx()-width-textInset, textInset, fpsText)
	return true
}

func (o *Overlay) outline(r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	draw.Draw(o.img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), src, image.Point{}, draw.Src)
	draw.Draw(o.img, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(o.img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(o.img, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), src, image.Point{}, draw.Src)
}

// text draws s with its top-left corner at (x, y).
func (o *Overlay) text(face font.Face, c color.Color, x, y int, s string) {
	d := &font.Drawer{
		Dst:  o.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y) + face.Metrics().Ascent},
	}
	d.DrawString(s)
}
