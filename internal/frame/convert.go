package frame

import (
	"fmt"
	"image"
	"image/draw"
)

const neutralChroma = 128

// FromImage converts a decoded image into a planar YUV frame. YCbCr images
// keep their subsampling; anything else becomes 4:2:0 with neutral chroma.
func FromImage(img image.Image) (*Frame, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	if ycc, ok := img.(*image.YCbCr); ok {
		if enc, ok := encodingForRatio(ycc.SubsampleRatio); ok {
			return fromYCbCr(ycc, enc), nil
		}
	}

	gray, ok := img.(*image.Gray)
	if !ok || gray.Rect.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, width, height))
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	}
	return FromGray(gray), nil
}

// FromGray builds a 4:2:0 frame whose luminance plane is the gray image
func FromGray(gray *image.Gray) *Frame {
	width, height := gray.Rect.Dx(), gray.Rect.Dy()
	luma := make([]byte, width*height)
	for y := 0; y < height; y++ {
		copy(luma[y*width:(y+1)*width], gray.Pix[y*gray.Stride:y*gray.Stride+width])
	}

	cw, ch := (width+1)/2, (height+1)/2
	return New(EncodingYUV420, width, height, []*Plane{
		NewPlane(luma, width, 1),
		NewPlane(filled(cw*ch, neutralChroma), cw, 1),
		NewPlane(filled(cw*ch, neutralChroma), cw, 1),
	}, nil)
}

// FromYUYV deinterleaves a packed YUYV buffer into a planar 4:2:2 frame.
// The bytes are copied; release, if set, runs when the frame is closed.
func FromYUYV(data []byte, width, height int, release func()) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if width%2 != 0 {
		return nil, fmt.Errorf("%w: YUYV width must be even, got %d", ErrInvalidDimensions, width)
	}
	if len(data) < width*height*2 {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrShortBuffer, width*height*2, len(data))
	}

	cw := width / 2
	luma := make([]byte, width*height)
	u := make([]byte, cw*height)
	v := make([]byte, cw*height)
	for y := 0; y < height; y++ {
		row := data[y*width*2 : (y+1)*width*2]
		for x := 0; x < cw; x++ {
			luma[y*width+2*x] = row[4*x]
			u[y*cw+x] = row[4*x+1]
			luma[y*width+2*x+1] = row[4*x+2]
			v[y*cw+x] = row[4*x+3]
		}
	}

	return New(EncodingYUV422, width, height, []*Plane{
		NewPlane(luma, width, 1),
		NewPlane(u, cw, 1),
		NewPlane(v, cw, 1),
	}, release), nil
}

// WrapYUYV keeps a packed YUYV buffer as-is in a single plane
func WrapYUYV(data []byte, width, height int, release func()) *Frame {
	return New(EncodingYUYV, width, height, []*Plane{NewPlane(data, width*2, 2)}, release)
}

// Image renders the luminance plane as a gray image. It does not move the
// plane's read cursor.
func (f *Frame) Image() (*image.Gray, error) {
	if !f.Encoding.IsPlanarYUV() || len(f.Planes) == 0 {
		return nil, fmt.Errorf("%w: %s has no luminance plane", ErrUnknownEncoding, f.Encoding)
	}
	plane := f.Planes[0]
	stride := plane.RowStride
	if stride < f.Width {
		stride = f.Width
	}
	if plane.Size() < stride*(f.Height-1)+f.Width {
		return nil, fmt.Errorf("%w: luminance plane has %d bytes", ErrShortBuffer, plane.Size())
	}

	gray := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		copy(gray.Pix[y*gray.Stride:y*gray.Stride+f.Width], plane.data[y*stride:y*stride+f.Width])
	}
	return gray, nil
}

func fromYCbCr(img *image.YCbCr, enc PixelEncoding) *Frame {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	luma := make([]byte, width*height)
	for y := 0; y < height; y++ {
		off := img.YOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(luma[y*width:(y+1)*width], img.Y[off:off+width])
	}

	cw, ch := chromaSize(enc, width, height)
	sx, sy := subsampling(enc)
	cb := make([]byte, cw*ch)
	cr := make([]byte, cw*ch)
	for y := 0; y < ch; y++ {
		for x := 0; x < cw; x++ {
			px := img.Rect.Min.X + min(x*sx, width-1)
			py := img.Rect.Min.Y + min(y*sy, height-1)
			c := img.YCbCrAt(px, py)
			cb[y*cw+x] = c.Cb
			cr[y*cw+x] = c.Cr
		}
	}

	return New(enc, width, height, []*Plane{
		NewPlane(luma, width, 1),
		NewPlane(cb, cw, 1),
		NewPlane(cr, cw, 1),
	}, nil)
}

func encodingForRatio(ratio image.YCbCrSubsampleRatio) (PixelEncoding, bool) {
	switch ratio {
	case image.YCbCrSubsampleRatio420:
		return EncodingYUV420, true
	case image.YCbCrSubsampleRatio422:
		return EncodingYUV422, true
	case image.YCbCrSubsampleRatio444:
		return EncodingYUV444, true
	}
	return EncodingUnknown, false
}

func chromaSize(enc PixelEncoding, width, height int) (int, int) {
	switch enc {
	case EncodingYUV422:
		return (width + 1) / 2, height
	case EncodingYUV444:
		return width, height
	default:
		return (width + 1) / 2, (height + 1) / 2
	}
}

// subsampling returns how many luminance columns and rows share one
// chroma sample
func subsampling(enc PixelEncoding) (int, int) {
	switch enc {
	case EncodingYUV422:
		return 2, 1
	case EncodingYUV444:
		return 1, 1
	default:
		return 2, 2
	}
}

func filled(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}
