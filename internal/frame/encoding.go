package frame

import (
	"fmt"
	"strings"
)

// PixelEncoding identifies how a frame's pixels are laid out in its planes
type PixelEncoding int

const (
	EncodingUnknown PixelEncoding = iota
	// EncodingYUV420 is planar Y, U, V with 2x2 chroma subsampling
	EncodingYUV420
	// EncodingYUV422 is planar Y, U, V with horizontal chroma subsampling
	EncodingYUV422
	// EncodingYUV444 is planar Y, U, V without chroma subsampling
	EncodingYUV444
	// EncodingYUYV is packed 4:2:2 (Y0 U Y1 V) in a single plane
	EncodingYUYV
	// EncodingNV21 is semi-planar Y followed by interleaved V/U
	EncodingNV21
	EncodingJPEG
	EncodingRGBA8888
)

var encodingNames = map[PixelEncoding]string{
	EncodingUnknown:  "UNKNOWN",
	EncodingYUV420:   "YUV_420_888",
	EncodingYUV422:   "YUV_422_888",
	EncodingYUV444:   "YUV_444_888",
	EncodingYUYV:     "YUYV",
	EncodingNV21:     "NV21",
	EncodingJPEG:     "JPEG",
	EncodingRGBA8888: "RGBA_8888",
}

// String returns the canonical name of the encoding
func (e PixelEncoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return fmt.Sprintf("PixelEncoding(%d)", int(e))
}

// IsPlanarYUV reports whether the luminance samples form the first plane
// with one byte per pixel.
func (e PixelEncoding) IsPlanarYUV() bool {
	switch e {
	case EncodingYUV420, EncodingYUV422, EncodingYUV444, EncodingNV21:
		return true
	}
	return false
}

// ParseEncoding resolves an encoding name, case-insensitive
func ParseEncoding(name string) (PixelEncoding, error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	for enc, n := range encodingNames {
		if enc == EncodingUnknown {
			continue
		}
		if n == normalized {
			return enc, nil
		}
	}
	return EncodingUnknown, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
}

// ParseEncodings parses a comma separated encoding list
func ParseEncodings(list string) ([]PixelEncoding, error) {
	var encodings []PixelEncoding
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		enc, err := ParseEncoding(part)
		if err != nil {
			return nil, err
		}
		encodings = append(encodings, enc)
	}
	return encodings, nil
}
