package analyzer

import (
	"image"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// LuminanceStats summarizes a frame's luminance plane. They explain why a
// frame did not decode (too dark, flat, out of focus) without affecting
// the decode itself.
type LuminanceStats struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	LaplacianVar float64 `json:"laplacian_variance"`
	DarkRatio    float64 `json:"dark_ratio"`
	BrightRatio  float64 `json:"bright_ratio"`
}

const (
	darkLevel   = 40
	brightLevel = 215
)

// luminanceStatsCalculator implements LuminanceStatsCalculator with Gonum
type luminanceStatsCalculator struct {
	slicePool sync.Pool
}

// NewLuminanceStatsCalculator creates a new calculator
func NewLuminanceStatsCalculator() LuminanceStatsCalculator {
	return &luminanceStatsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 1024)
				return &s
			},
		},
	}
}

// Calculate computes the statistics over the whole image
func (c *luminanceStatsCalculator) Calculate(gray *image.Gray) LuminanceStats {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return LuminanceStats{}
	}

	buf := c.slicePool.Get().(*[]float64)
	defer func() {
		*buf = (*buf)[:0]
		c.slicePool.Put(buf)
	}()

	values := (*buf)[:0]
	var dark, bright int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v < darkLevel {
				dark++
			} else if v > brightLevel {
				bright++
			}
			values = append(values, float64(v))
		}
	}

	mean, std := values[0], 0.0
	if len(values) > 1 {
		mean, std = stat.MeanStdDev(values, nil)
	}
	total := float64(len(values))

	stats := LuminanceStats{
		Mean:        mean,
		StdDev:      std,
		DarkRatio:   float64(dark) / total,
		BrightRatio: float64(bright) / total,
	}

	values = values[:0]
	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			values = append(values, -4*center+top+bottom+left+right)
		}
	}
	if len(values) > 1 {
		stats.LaplacianVar = stat.Variance(values, nil)
	}

	*buf = values
	return stats
}
