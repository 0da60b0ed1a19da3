package decoder

import (
	"errors"
	"image"
	"testing"

	"github.com/makiuchi-d/gozxing"
)

func luminanceSource(t *testing.T, gray *image.Gray) gozxing.LuminanceSource {
	t.Helper()
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	src, err := gozxing.NewPlanarYUVLuminanceSource(gray.Pix, gray.Stride, h, 0, 0, w, h, false)
	if err != nil {
		t.Fatalf("Failed to build luminance source: %v", err)
	}
	return src
}

func blankCanvas(w, h int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}
	return gray
}

func TestNew_NoFormats(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, ErrNoFormats) {
		t.Errorf("Expected ErrNoFormats, got %v", err)
	}
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, err := New(Options{Formats: []Format{"MAXICODE"}})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecoder_Formats(t *testing.T) {
	d, err := New(Options{Formats: []Format{FormatQRCode, FormatCode128}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	formats := d.Formats()
	if len(formats) != 2 || formats[0] != FormatQRCode || formats[1] != FormatCode128 {
		t.Errorf("Unexpected formats %v", formats)
	}
}

func TestDecode_QRCode(t *testing.T) {
	symbol, err := Render("HELLO", FormatQRCode, 300, 300)
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	canvas := Compose(symbol, 640, 480, 170, 90)

	d, err := New(Options{Formats: []Format{FormatQRCode}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := d.Decode(luminanceSource(t, canvas))
	if err != nil {
		t.Fatalf("Expected decode to succeed, got %v", err)
	}
	if result.Text != "HELLO" {
		t.Errorf("Expected payload HELLO, got %q", result.Text)
	}
	if result.Format != FormatQRCode {
		t.Errorf("Expected QR_CODE, got %s", result.Format)
	}
	if len(result.Points) == 0 {
		t.Error("Expected finder pattern points")
	}
}

func TestDecode_BlankImageNotFound(t *testing.T) {
	d, err := New(Options{Formats: []Format{FormatQRCode}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = d.Decode(luminanceSource(t, blankCanvas(320, 240)))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDecode_FormatRestriction(t *testing.T) {
	symbol, err := Render("HELLO", FormatQRCode, 300, 300)
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	canvas := Compose(symbol, 640, 480, 170, 90)

	d, err := New(Options{Formats: []Format{FormatCode128}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result, err := d.Decode(luminanceSource(t, canvas)); err == nil {
		t.Errorf("Expected QR symbol to be ignored by a Code 128 decoder, got %q", result.Text)
	}
}

func TestDecode_Code128(t *testing.T) {
	symbol, err := Render("SCAN-0042", FormatCode128, 400, 120)
	if err != nil {
		t.Fatalf("Failed to render: %v", err)
	}
	canvas := Compose(symbol, 640, 240, 120, 60)

	d, err := New(Options{Formats: []Format{FormatQRCode, FormatCode128}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	result, err := d.Decode(luminanceSource(t, canvas))
	if err != nil {
		t.Fatalf("Expected decode to succeed, got %v", err)
	}
	if result.Text != "SCAN-0042" || result.Format != FormatCode128 {
		t.Errorf("Unexpected result %q (%s)", result.Text, result.Format)
	}
}

func TestRender_Unsupported(t *testing.T) {
	if _, err := Render("x", FormatAztec, 100, 100); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestCompose_ClipsToCanvas(t *testing.T) {
	symbol := image.NewGray(image.Rect(0, 0, 10, 10))
	canvas := Compose(symbol, 20, 20, 15, 15)

	if canvas.GrayAt(0, 0).Y != 255 {
		t.Error("Expected white background")
	}
	if canvas.GrayAt(19, 19).Y != 0 {
		t.Error("Expected symbol pixel at the clipped corner")
	}
}
