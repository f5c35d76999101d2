package raster

import (
	"bytes"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Placeholder size used when callers pass zero dimensions.
const (
	placeholderWidth  = 480
	placeholderHeight = 240
)

// Placeholder draws a blank PNG with msg centered in grey. It stands in for
// the preview when rendering failed.
func Placeholder(width, height int, msg string) ([]byte, error) {
	if width <= 0 {
		width = placeholderWidth
	}
	if height <= 0 {
		height = placeholderHeight
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(truetype.NewFace(ttf, &truetype.Options{
		Size:    13,
		DPI:     72,
		Hinting: font.HintingFull,
	}))

	dc.SetColor(color.Gray{Y: 0x80})
	w, h := float64(width), float64(height)
	dc.DrawStringWrapped(msg, w/2, h/2, 0.5, 0.5, w-32, 1.4, gg.AlignCenter)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
