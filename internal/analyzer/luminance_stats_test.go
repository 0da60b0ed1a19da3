package analyzer

import (
	"image"
	"math"
	"testing"
)

func TestLuminanceStats_Uniform(t *testing.T) {
	calc := NewLuminanceStatsCalculator()
	gray := image.NewGray(image.Rect(0, 0, 50, 40))
	for i := range gray.Pix {
		gray.Pix[i] = 128
	}

	stats := calc.Calculate(gray)

	if stats.Mean != 128 {
		t.Errorf("Expected mean 128, got %f", stats.Mean)
	}
	if stats.StdDev != 0 {
		t.Errorf("Expected zero std dev, got %f", stats.StdDev)
	}
	if stats.LaplacianVar != 0 {
		t.Errorf("Expected zero Laplacian variance for a flat image, got %f", stats.LaplacianVar)
	}
	if stats.DarkRatio != 0 || stats.BrightRatio != 0 {
		t.Errorf("Expected no dark or bright pixels, got %f/%f", stats.DarkRatio, stats.BrightRatio)
	}
}

func TestLuminanceStats_HalfDarkHalfBright(t *testing.T) {
	calc := NewLuminanceStatsCalculator()
	gray := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if x >= 10 {
				gray.Pix[gray.PixOffset(x, y)] = 255
			}
		}
	}

	stats := calc.Calculate(gray)

	if math.Abs(stats.Mean-127.5) > 1e-9 {
		t.Errorf("Expected mean 127.5, got %f", stats.Mean)
	}
	if stats.DarkRatio != 0.5 || stats.BrightRatio != 0.5 {
		t.Errorf("Expected 0.5 dark and bright ratios, got %f/%f", stats.DarkRatio, stats.BrightRatio)
	}
	if stats.LaplacianVar <= 0 {
		t.Errorf("Expected positive Laplacian variance across an edge, got %f", stats.LaplacianVar)
	}
}

func TestLuminanceStats_ContrastRaisesLaplacianVariance(t *testing.T) {
	calc := NewLuminanceStatsCalculator()

	crisp := helloCanvas(t)
	faded := image.NewGray(crisp.Rect)
	for i := range faded.Pix {
		faded.Pix[i] = 128 + crisp.Pix[i]/32
	}

	if calc.Calculate(crisp).LaplacianVar <= calc.Calculate(faded).LaplacianVar {
		t.Error("Expected a high contrast symbol to have higher Laplacian variance")
	}
}

func TestLuminanceStats_TinyImages(t *testing.T) {
	calc := NewLuminanceStatsCalculator()

	empty := calc.Calculate(image.NewGray(image.Rect(0, 0, 0, 0)))
	if empty != (LuminanceStats{}) {
		t.Errorf("Expected zero stats for empty image, got %+v", empty)
	}

	single := image.NewGray(image.Rect(0, 0, 1, 1))
	single.Pix[0] = 10
	stats := calc.Calculate(single)
	if stats.Mean != 10 || stats.StdDev != 0 || math.IsNaN(stats.StdDev) {
		t.Errorf("Expected mean 10 and zero std dev, got %+v", stats)
	}
	if stats.DarkRatio != 1 {
		t.Errorf("Expected dark ratio 1, got %f", stats.DarkRatio)
	}
}
