package decoder

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Render encodes text as a symbol scaled to fit width x height, black on
// white, including the symbology's quiet zone.
func Render(text string, format Format, width, height int) (*image.Gray, error) {
	var writer gozxing.Writer
	switch format {
	case FormatQRCode:
		writer = qrcode.NewQRCodeWriter()
	case FormatCode128:
		writer = oned.NewCode128Writer()
	default:
		return nil, fmt.Errorf("%w: cannot render %q", ErrUnsupportedFormat, format)
	}

	matrix, err := writer.Encode(text, zxingFormats[format], width, height, nil)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	w, h := matrix.GetWidth(), matrix.GetHeight()
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if matrix.Get(x, y) {
				gray.Pix[y*gray.Stride+x] = 0
			} else {
				gray.Pix[y*gray.Stride+x] = 255
			}
		}
	}
	return gray, nil
}

// Compose places symbol at (x, y) on a white canvas of the given size
func Compose(symbol *image.Gray, canvasWidth, canvasHeight, x, y int) *image.Gray {
	canvas := image.NewGray(image.Rect(0, 0, canvasWidth, canvasHeight))
	for i := range canvas.Pix {
		canvas.Pix[i] = 255
	}

	b := symbol.Bounds()
	for sy := 0; sy < b.Dy(); sy++ {
		cy := y + sy
		if cy < 0 || cy >= canvasHeight {
			continue
		}
		for sx := 0; sx < b.Dx(); sx++ {
			cx := x + sx
			if cx < 0 || cx >= canvasWidth {
				continue
			}
			canvas.Pix[cy*canvas.Stride+cx] = symbol.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y
		}
	}
	return canvas
}
