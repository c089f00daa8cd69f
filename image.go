package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gotk3/gotk3/gdk"
	"github.com/stewi1014/glmandel/render"
	"github.com/stewi1014/glmandel/view"
)

const iconSize = 64

// appIcon renders the whole set into a size x size image.
func appIcon(size int) (*image.RGBA, error) {
	return render.NewRasterizer().Render(context.Background(), render.Request{
		View: view.State{
			Center:     mgl64.Vec2{-0.7, 0},
			Width:      2.6,
			Iterations: 100,
		},
		Width:  size,
		Height: size,
	})
}

// PixbufFromImage converts img for GTK by way of PNG.
func PixbufFromImage(img image.Image) (*gdk.Pixbuf, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png.Encode failed: %w", err)
	}

	pixbuf, err := gdk.PixbufNewFromBytesOnly(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("gdk.PixbufNewFromBytesOnly failed: %w", err)
	}
	return pixbuf, nil
}
