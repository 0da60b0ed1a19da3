package analyzer

import (
	"bytes"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
)

// helloCanvas renders a 400x400 QR code for "HELLO" onto an 800x600 white canvas
func helloCanvas(t *testing.T) *image.Gray {
	t.Helper()
	symbol, err := decoder.Render("HELLO", decoder.FormatQRCode, 400, 400)
	if err != nil {
		t.Fatalf("Failed to render QR code: %v", err)
	}
	return decoder.Compose(symbol, 800, 600, 200, 100)
}

func blankCanvas(width, height int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, width, height))
	for i := range gray.Pix {
		gray.Pix[i] = 255
	}
	return gray
}

// countingFrame wraps the gray image as the luminance plane of a frame whose
// release increments the returned counter
func countingFrame(gray *image.Gray, enc frame.PixelEncoding) (*frame.Frame, *atomic.Int32) {
	var released atomic.Int32
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	luma := append([]byte(nil), gray.Pix...)
	chroma := bytes.Repeat([]byte{128}, ((w+1)/2)*((h+1)/2))
	f := frame.New(enc, w, h, []*frame.Plane{
		frame.NewPlane(luma, gray.Stride, 1),
		frame.NewPlane(chroma, (w+1)/2, 1),
		frame.NewPlane(append([]byte(nil), chroma...), (w+1)/2, 1),
	}, func() { released.Add(1) })
	return f, &released
}

type capture struct {
	results []*decoder.Result
}

func (c *capture) handle(r *decoder.Result) {
	c.results = append(c.results, r)
}

func newTestAnalyzer(t *testing.T, opts Options, c *capture) *FrameAnalyzer {
	t.Helper()
	var handler ResultHandler
	if c != nil {
		handler = c.handle
	}
	a, err := NewFrameAnalyzer(opts, handler)
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	return a
}

func TestNewFrameAnalyzer_InvalidOptions(t *testing.T) {
	_, err := NewFrameAnalyzer(DefaultOptions().WithFormats(), nil)
	if !errors.Is(err, decoder.ErrNoFormats) {
		t.Errorf("Expected ErrNoFormats, got %v", err)
	}

	_, err = NewFrameAnalyzer(DefaultOptions().WithEncodings(), nil)
	if err == nil {
		t.Error("Expected error for empty accepted encodings")
	}
}

func TestFrameAnalyzer_Accepts(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)

	tests := []struct {
		enc  frame.PixelEncoding
		want bool
	}{
		{frame.EncodingYUV420, true},
		{frame.EncodingYUV422, true},
		{frame.EncodingYUV444, true},
		{frame.EncodingNV21, false},
		{frame.EncodingYUYV, false},
		{frame.EncodingRGBA8888, false},
		{frame.EncodingJPEG, false},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			if got := a.Accepts(tt.enc); got != tt.want {
				t.Errorf("Accepts(%s) = %v, want %v", tt.enc, got, tt.want)
			}
		})
	}
}

func TestFrameAnalyzer_DecodesQRCode(t *testing.T) {
	c := &capture{}
	a := newTestAnalyzer(t, DefaultOptions(), c)

	f, released := countingFrame(helloCanvas(t), frame.EncodingYUV420)
	a.Analyze(f)

	if len(c.results) != 1 {
		t.Fatalf("Expected callback exactly once, got %d", len(c.results))
	}
	if c.results[0].Text != "HELLO" {
		t.Errorf("Expected text HELLO, got %q", c.results[0].Text)
	}
	if c.results[0].Format != decoder.FormatQRCode {
		t.Errorf("Expected format QR_CODE, got %s", c.results[0].Format)
	}
	if got := released.Load(); got != 1 {
		t.Errorf("Expected frame released once, got %d", got)
	}
}

func TestFrameAnalyzer_CallbackRunsBeforeRelease(t *testing.T) {
	f, released := countingFrame(helloCanvas(t), frame.EncodingYUV422)

	var heldDuringCallback bool
	a, err := NewFrameAnalyzer(DefaultOptions(), func(r *decoder.Result) {
		heldDuringCallback = !f.Released()
	})
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}

	a.Analyze(f)

	if !heldDuringCallback {
		t.Error("Expected frame to be held while the callback runs")
	}
	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestFrameAnalyzer_UnsupportedEncodingDropped(t *testing.T) {
	c := &capture{}
	a := newTestAnalyzer(t, DefaultOptions(), c)

	// A decodable luminance plane must still be rejected by encoding alone
	f, released := countingFrame(helloCanvas(t), frame.EncodingRGBA8888)
	a.Analyze(f)

	if len(c.results) != 0 {
		t.Errorf("Expected no callback for unsupported encoding, got %d", len(c.results))
	}
	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestFrameAnalyzer_UnsupportedEncodingLogsWarning(t *testing.T) {
	hook := logtest.NewLocal(logger.Logger)
	defer logger.Logger.ReplaceHooks(make(logrus.LevelHooks))

	c := &capture{}
	a := newTestAnalyzer(t, DefaultOptions(), c)

	f, _ := countingFrame(helloCanvas(t), frame.EncodingRGBA8888)
	a.Analyze(f)

	var warnings []*logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Data["outcome"] == OutcomeUnsupportedEncoding.String() {
			warnings = append(warnings, entry)
		}
	}
	if len(warnings) != 1 {
		t.Fatalf("Expected 1 rejection log entry, got %d", len(warnings))
	}
	entry := warnings[0]
	if entry.Level != logrus.WarnLevel {
		t.Errorf("Expected warn level, got %s", entry.Level)
	}
	if entry.Data["encoding"] != frame.EncodingRGBA8888.String() {
		t.Errorf("Expected encoding %s, got %v", frame.EncodingRGBA8888, entry.Data["encoding"])
	}
	if entry.Data["component"] != "frame_analyzer" {
		t.Errorf("Expected frame_analyzer component, got %v", entry.Data["component"])
	}
	if !errors.Is(entry.Data[logrus.ErrorKey].(error), ErrUnsupportedEncoding) {
		t.Errorf("Expected ErrUnsupportedEncoding attached, got %v", entry.Data[logrus.ErrorKey])
	}
}

func TestFrameAnalyzer_NoSymbolDropped(t *testing.T) {
	c := &capture{}
	a := newTestAnalyzer(t, DefaultOptions(), c)

	f, released := countingFrame(blankCanvas(640, 480), frame.EncodingYUV420)
	a.Analyze(f)

	if len(c.results) != 0 {
		t.Errorf("Expected no callback for blank frame, got %d", len(c.results))
	}
	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestFrameAnalyzer_FormatRestriction(t *testing.T) {
	c := &capture{}
	a := newTestAnalyzer(t, DefaultOptions().WithFormats(decoder.FormatCode128), c)

	f, released := countingFrame(helloCanvas(t), frame.EncodingYUV420)
	a.Analyze(f)

	if len(c.results) != 0 {
		t.Errorf("Expected QR code to be ignored by a Code 128 analyzer, got %d results", len(c.results))
	}
	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestFrameAnalyzer_IdenticalFramesSameOutcome(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)
	canvas := helloCanvas(t)

	first, _ := countingFrame(canvas, frame.EncodingYUV420)
	second, _ := countingFrame(canvas, frame.EncodingYUV420)

	r1, o1 := a.Decode(first)
	r2, o2 := a.Decode(second)

	if o1 != OutcomeDecoded || o2 != OutcomeDecoded {
		t.Fatalf("Expected both frames to decode, got %s and %s", o1, o2)
	}
	if r1.Text != r2.Text || r1.Format != r2.Format {
		t.Errorf("Expected identical results, got %q/%s and %q/%s", r1.Text, r1.Format, r2.Text, r2.Format)
	}
}

func TestFrameAnalyzer_RewindsPartiallyReadPlane(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)

	f, released := countingFrame(helloCanvas(t), frame.EncodingYUV420)
	skipped := make([]byte, 800*250)
	if _, err := f.Planes[0].Read(skipped); err != nil {
		t.Fatalf("Failed to advance plane cursor: %v", err)
	}

	result, outcome := a.Decode(f)
	if outcome != OutcomeDecoded {
		t.Fatalf("Expected decoded after rewind, got %s", outcome)
	}
	if result.Text != "HELLO" {
		t.Errorf("Expected text HELLO, got %q", result.Text)
	}
	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestFrameAnalyzer_RowStrideWiderThanFrame(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)
	canvas := helloCanvas(t)

	const padding = 64
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	stride := w + padding
	// The last row stops at the frame width, as camera buffers commonly do
	luma := make([]byte, stride*(h-1)+w)
	for y := 0; y < h; y++ {
		copy(luma[y*stride:], canvas.Pix[y*canvas.Stride:y*canvas.Stride+w])
	}

	f := frame.New(frame.EncodingYUV420, w, h, []*frame.Plane{frame.NewPlane(luma, stride, 1)}, nil)
	result, outcome := a.Decode(f)
	if outcome != OutcomeDecoded {
		t.Fatalf("Expected strided plane to decode, got %s", outcome)
	}
	if result.Text != "HELLO" {
		t.Errorf("Expected text HELLO, got %q", result.Text)
	}
}

func TestFrameAnalyzer_MalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		build func() *frame.Frame
	}{
		{"short plane", func() *frame.Frame {
			return frame.New(frame.EncodingYUV420, 640, 480,
				[]*frame.Plane{frame.NewPlane(make([]byte, 640*100), 640, 1)}, nil)
		}},
		{"no planes", func() *frame.Frame {
			return frame.New(frame.EncodingYUV420, 640, 480, nil, nil)
		}},
		{"zero dimensions", func() *frame.Frame {
			return frame.New(frame.EncodingYUV420, 0, 480,
				[]*frame.Plane{frame.NewPlane(make([]byte, 16), 0, 1)}, nil)
		}},
		{"interleaved luminance", func() *frame.Frame {
			return frame.New(frame.EncodingYUV422, 64, 64,
				[]*frame.Plane{frame.NewPlane(make([]byte, 64*64*2), 128, 2)}, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			a := newTestAnalyzer(t, DefaultOptions(), c)
			f := tt.build()

			a.Analyze(f)
			if len(c.results) != 0 {
				t.Errorf("Expected no callback, got %d", len(c.results))
			}
			if !f.Released() {
				t.Error("Expected malformed frame to be released")
			}

			_, outcome := newTestAnalyzer(t, DefaultOptions(), nil).Decode(tt.build())
			if outcome != OutcomeMalformedFrame {
				t.Errorf("Expected %s, got %s", OutcomeMalformedFrame, outcome)
			}
		})
	}
}

func TestFrameAnalyzer_DecodeOutcomes(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)

	decodable, _ := countingFrame(helloCanvas(t), frame.EncodingYUV444)
	blank, _ := countingFrame(blankCanvas(320, 240), frame.EncodingYUV420)
	rejected, _ := countingFrame(helloCanvas(t), frame.EncodingJPEG)

	tests := []struct {
		name  string
		frame *frame.Frame
		want  Outcome
	}{
		{"decoded", decodable, OutcomeDecoded},
		{"not found", blank, OutcomeNotFound},
		{"unsupported", rejected, OutcomeUnsupportedEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, outcome := a.Decode(tt.frame)
			if outcome != tt.want {
				t.Errorf("Expected outcome %s, got %s", tt.want, outcome)
			}
			if (result != nil) != (tt.want == OutcomeDecoded) {
				t.Errorf("Expected result only for decoded frames, got %v", result)
			}
			if !tt.frame.Released() {
				t.Error("Expected frame released by Decode")
			}
		})
	}
}

func TestFrameAnalyzer_NilHandler(t *testing.T) {
	a := newTestAnalyzer(t, DefaultOptions(), nil)
	f, released := countingFrame(helloCanvas(t), frame.EncodingYUV420)

	a.Analyze(f) // Should not panic without a handler

	if released.Load() != 1 {
		t.Errorf("Expected frame released once, got %d", released.Load())
	}
}

func TestOutcome_String(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
		dropped bool
	}{
		{OutcomeDecoded, "decoded", false},
		{OutcomeNotFound, "not_found", true},
		{OutcomeUnreadable, "unreadable", true},
		{OutcomeUnsupportedEncoding, "unsupported_encoding", true},
		{OutcomeMalformedFrame, "malformed_frame", true},
		{Outcome(42), "unknown", true},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if got := tt.outcome.Dropped(); got != tt.dropped {
			t.Errorf("%s: Dropped() = %v, want %v", tt.want, got, tt.dropped)
		}
	}
}
